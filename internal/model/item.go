package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Item is a stocked supply identified by its scan code.
type Item struct {
	ID          int64      `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"`
	Name        string     `json:"name" db:"name"`
	Category    Category   `json:"category" db:"category"`
	Quantity    int        `json:"quantity" db:"quantity"`
	MinQuantity int        `json:"min_quantity" db:"min_quantity"`
	Expiry      *Date      `json:"expiry_date,omitempty" db:"expiry_date"`
	Location    string     `json:"location" db:"location"`
	LastScanned *time.Time `json:"last_scanned,omitempty" db:"last_scanned"`
	ImageMime   string     `json:"image_mime,omitempty" db:"image_mime"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Status derives the stock status from the current quantity and threshold.
func (i Item) Status() StockStatus {
	return StockStatusFor(i.Quantity, i.MinQuantity)
}

// MarshalJSON adds the derived status to the encoded item.
func (i Item) MarshalJSON() ([]byte, error) {
	type plain Item
	return json.Marshal(struct {
		plain
		Status StockStatus `json:"status"`
	}{plain(i), i.Status()})
}

// Category groups items for filtering and reporting.
type Category string

// Item categories.
const (
	CategoryMedication Category = "Medication"
	CategoryEquipment  Category = "Equipment"
	CategorySupplies   Category = "Supplies"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMedication, CategoryEquipment, CategorySupplies:
		return true
	}
	return false
}

// StockStatus is never stored; it is recomputed on every read.
type StockStatus string

// Stock statuses.
const (
	StatusInStock    StockStatus = "In Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusOutOfStock StockStatus = "Out of Stock"
)

// StockStatusFor returns Out of Stock at or below zero, Low Stock below the
// threshold and In Stock otherwise.
func StockStatusFor(quantity, minQuantity int) StockStatus {
	switch {
	case quantity <= 0:
		return StatusOutOfStock
	case quantity < minQuantity:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return Date{t}, nil
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan implements sql.Scanner. SQLite stores dates as text, Postgres
// returns them as time.Time.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewDate(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
