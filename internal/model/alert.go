package model

import "time"

// AlertKind names what raised an alert.
type AlertKind string

// Alert kinds. Expiry kinds are raised at most once per item; low-stock
// alerts are raised on every qualifying action.
const (
	AlertLowStock     AlertKind = "Low Stock"
	AlertExpiry15Days AlertKind = "15-Day Expiry Warning"
	AlertExpiry7Days  AlertKind = "7-Day Expiry Warning"
)

// Alert is a notification about an item. Only Read changes after creation.
type Alert struct {
	ID        int64     `json:"id" db:"id"`
	ItemID    int64     `json:"item_id" db:"item_id"`
	Kind      AlertKind `json:"kind" db:"kind"`
	ItemCode  string    `json:"item_code" db:"item_code"`
	ItemName  string    `json:"item_name" db:"item_name"`
	Location  string    `json:"location" db:"location"`
	Expiry    *Date     `json:"expiry,omitempty" db:"expiry_date"`
	Details   string    `json:"details" db:"details"`
	Read      bool      `json:"read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// AlertFor builds an unsaved alert carrying a snapshot of item.
func AlertFor(item *Item, kind AlertKind, details string, at time.Time) *Alert {
	return &Alert{
		ItemID:    item.ID,
		Kind:      kind,
		ItemCode:  item.Code,
		ItemName:  item.Name,
		Location:  item.Location,
		Expiry:    item.Expiry,
		Details:   details,
		CreatedAt: at,
	}
}
