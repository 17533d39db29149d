package model

import "time"

// HistoryEntry is the immutable record of one applied action. Item fields
// are snapshots taken when the action ran.
type HistoryEntry struct {
	ID           int64      `json:"id" db:"id"`
	ItemID       int64      `json:"item_id" db:"item_id"`
	ItemCode     string     `json:"item_code" db:"item_code"`
	ItemName     string     `json:"item_name" db:"item_name"`
	Category     Category   `json:"category" db:"category"`
	Action       ActionKind `json:"action" db:"action"`
	Quantity     int        `json:"quantity" db:"quantity"`
	BalanceAfter int        `json:"balance_after" db:"balance_after"`
	CaseID       string     `json:"case_id" db:"case_id"`
	Username     string     `json:"user" db:"username"`
	UserID       *int64     `json:"user_id,omitempty" db:"user_id"`
	CreatedAt    time.Time  `json:"date" db:"created_at"`
}

// HistoryFilter narrows a history listing. Zero values match everything.
type HistoryFilter struct {
	ItemID   int64
	ItemCode string
	Action   ActionKind
	Limit    int
}

// InventorySummary aggregates the history ledger for the dashboard.
type InventorySummary struct {
	CheckedIn     int `json:"checkedIn"`
	CheckedOut    int `json:"checkedOut"`
	LowStockCount int `json:"lowStockCount"`
}
