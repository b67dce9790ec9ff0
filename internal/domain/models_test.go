package domain

import "testing"

func TestValidatePlayerName(t *testing.T) {
	valid := []string{"ab", "Alice_99", "X_Y_Z", "abcdefghijklmnop"}
	for _, name := range valid {
		if err := ValidatePlayerName(name); err != nil {
			t.Errorf("expected %q valid, got %v", name, err)
		}
	}

	invalid := []string{"", "a", "abcdefghijklmnopq", "has space", "héllo", "semi;colon", "dash-name"}
	for _, name := range invalid {
		if err := ValidatePlayerName(name); err == nil {
			t.Errorf("expected %q invalid", name)
		}
	}
}

func TestQuestionValidate(t *testing.T) {
	q := Question{
		ID:      1,
		Answer:  OptionB,
		Options: map[OptionKey]string{OptionA: "no", OptionB: "yes"},
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("expected valid question, got %v", err)
	}

	q.Answer = OptionD
	if err := q.Validate(); err == nil {
		t.Fatalf("expected error for missing answer option")
	}

	q.Answer = OptionKey("Z")
	if err := q.Validate(); err == nil {
		t.Fatalf("expected error for bad answer key")
	}
}

func TestRanksAbove(t *testing.T) {
	a := PlayerBest{TotalPoints: 20}
	b := PlayerBest{TotalPoints: 10}
	if !a.RanksAbove(b) || b.RanksAbove(a) {
		t.Fatalf("higher points must rank above")
	}
}
