package model

import (
	"fmt"
	"math"
)

// ActionKind is what a scan does to an item.
type ActionKind string

// Action kinds.
const (
	ActionCheckIn   ActionKind = "Check In"
	ActionCheckOut  ActionKind = "Check Out"
	ActionUse       ActionKind = "Use"
	ActionTransfer  ActionKind = "Transfer"
	ActionRemoveAll ActionKind = "Remove All"
)

// ActionKinds lists every action kind.
var ActionKinds = []ActionKind{ActionCheckIn, ActionCheckOut, ActionUse, ActionTransfer, ActionRemoveAll}

// MaxQuantity is the largest stock quantity or action amount. It matches the
// INTEGER column on every supported database.
const MaxQuantity = math.MaxInt32

// StockEffect is how an action changes the stocked quantity.
type StockEffect int

// Stock effects. EffectNone is explicit: Transfer records a movement but
// leaves the total quantity untouched.
const (
	EffectNone StockEffect = iota
	EffectAdd
	EffectSubtract
)

// ParseActionKind returns the action kind named by s.
func ParseActionKind(s string) (ActionKind, error) {
	a := ActionKind(s)
	if _, err := a.Effect(); err != nil {
		return "", err
	}
	return a, nil
}

// Effect returns the stock effect of a, or an error for unknown kinds.
func (a ActionKind) Effect() (StockEffect, error) {
	switch a {
	case ActionCheckIn:
		return EffectAdd, nil
	case ActionCheckOut, ActionUse, ActionRemoveAll:
		return EffectSubtract, nil
	case ActionTransfer:
		return EffectNone, nil
	default:
		return EffectNone, fmt.Errorf("unknown action %q", string(a))
	}
}

// Valid reports whether a is a known action kind.
func (a ActionKind) Valid() bool {
	_, err := a.Effect()
	return err == nil
}

// ReducesStock reports whether a subtracts from the quantity. Only these
// actions can raise a low-stock alert.
func (a ActionKind) ReducesStock() bool {
	effect, err := a.Effect()
	return err == nil && effect == EffectSubtract
}

// Fits reports whether applying a with amount to current stays within
// MaxQuantity. Only Check In can push a quantity past it.
func (a ActionKind) Fits(current, amount int) bool {
	if amount < 0 || amount > MaxQuantity {
		return false
	}
	effect, _ := a.Effect()
	return effect != EffectAdd || current <= MaxQuantity-amount
}

// Apply returns the quantity after applying a with the given amount to
// current. The result is clamped at zero: over-withdrawal empties the stock
// instead of failing.
func (a ActionKind) Apply(current, amount int) int {
	effect, _ := a.Effect()

	next := current
	switch effect {
	case EffectAdd:
		next = current + amount
	case EffectSubtract:
		next = current - amount
	case EffectNone:
	}

	return max(0, next)
}
