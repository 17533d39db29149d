package model

import "testing"

func TestActionApply(t *testing.T) {
	tests := []struct {
		action  ActionKind
		current int
		amount  int
		want    int
	}{
		{ActionCheckIn, 5, 3, 8},
		{ActionCheckIn, 0, 1, 1},
		{ActionCheckOut, 5, 5, 0},
		{ActionCheckOut, 5, 2, 3},
		{ActionUse, 4, 1, 3},
		{ActionRemoveAll, 10, 10, 0},
		{ActionTransfer, 7, 3, 7},
		// Over-withdrawal clamps at zero.
		{ActionCheckOut, 0, 1, 0},
		{ActionUse, 2, 9, 0},
		{ActionRemoveAll, 3, 4, 0},
	}

	for _, tt := range tests {
		got := tt.action.Apply(tt.current, tt.amount)
		if got != tt.want {
			t.Errorf("%s.Apply(%d, %d) = %d, want %d", tt.action, tt.current, tt.amount, got, tt.want)
		}
	}
}

func TestActionFits(t *testing.T) {
	tests := []struct {
		action  ActionKind
		current int
		amount  int
		want    bool
	}{
		{ActionCheckIn, 5, 3, true},
		{ActionCheckIn, 5, MaxQuantity - 5, true},
		{ActionCheckIn, 5, MaxQuantity - 4, false},
		{ActionCheckIn, 0, MaxQuantity + 1, false},
		{ActionCheckOut, MaxQuantity, MaxQuantity, true},
		{ActionUse, 3, MaxQuantity + 1, false},
		{ActionTransfer, MaxQuantity, 1, true},
	}

	for _, tt := range tests {
		if got := tt.action.Fits(tt.current, tt.amount); got != tt.want {
			t.Errorf("%s.Fits(%d, %d) = %v, want %v", tt.action, tt.current, tt.amount, got, tt.want)
		}
	}
}

func TestActionEffect(t *testing.T) {
	tests := []struct {
		action  ActionKind
		effect  StockEffect
		reduces bool
	}{
		{ActionCheckIn, EffectAdd, false},
		{ActionCheckOut, EffectSubtract, true},
		{ActionUse, EffectSubtract, true},
		{ActionRemoveAll, EffectSubtract, true},
		{ActionTransfer, EffectNone, false},
	}

	for _, tt := range tests {
		effect, err := tt.action.Effect()
		if err != nil {
			t.Fatalf("%s.Effect: %v", tt.action, err)
		}
		if effect != tt.effect {
			t.Errorf("%s effect = %d, want %d", tt.action, effect, tt.effect)
		}
		if tt.action.ReducesStock() != tt.reduces {
			t.Errorf("%s.ReducesStock() = %v, want %v", tt.action, !tt.reduces, tt.reduces)
		}
	}
}

func TestParseActionKind(t *testing.T) {
	for _, a := range ActionKinds {
		got, err := ParseActionKind(string(a))
		if err != nil {
			t.Errorf("ParseActionKind(%q): %v", a, err)
		}
		if got != a {
			t.Errorf("ParseActionKind(%q) = %q", a, got)
		}
	}

	for _, bad := range []string{"", "check in", "Restock", "Remove"} {
		if _, err := ParseActionKind(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
