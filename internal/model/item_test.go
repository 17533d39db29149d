package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStockStatusFor(t *testing.T) {
	tests := []struct {
		quantity int
		min      int
		expected StockStatus
	}{
		{0, 0, StatusOutOfStock},
		{0, 3, StatusOutOfStock},
		{-1, 0, StatusOutOfStock},
		{1, 3, StatusLowStock},
		{2, 3, StatusLowStock},
		{3, 3, StatusInStock},
		{10, 3, StatusInStock},
		{1, 0, StatusInStock},
	}

	for _, tt := range tests {
		got := StockStatusFor(tt.quantity, tt.min)
		if got != tt.expected {
			t.Errorf("StockStatusFor(%d, %d) = %q, want %q", tt.quantity, tt.min, got, tt.expected)
		}
	}
}

func TestItemJSONIncludesStatus(t *testing.T) {
	item := Item{ID: 1, Code: "MED001", Name: "Epinephrine", Category: CategoryMedication, Quantity: 2, MinQuantity: 3}

	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["status"] != string(StatusLowStock) {
		t.Errorf("expected status %q, got %v", StatusLowStock, decoded["status"])
	}
	if decoded["code"] != "MED001" {
		t.Errorf("expected code MED001, got %v", decoded["code"])
	}
	if _, ok := decoded["expiry_date"]; ok {
		t.Error("expected expiry_date to be omitted when unset")
	}
}

func TestCategoryValid(t *testing.T) {
	for _, c := range []Category{CategoryMedication, CategoryEquipment, CategorySupplies} {
		if !c.Valid() {
			t.Errorf("expected %q to be valid", c)
		}
	}
	if Category("Food").Valid() {
		t.Error("expected Food to be invalid")
	}
}

func TestDateScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want string
	}{
		{"text", "2026-03-15", "2026-03-15"},
		{"bytes", []byte("2026-03-15"), "2026-03-15"},
		{"timestamp text", "2026-03-15T00:00:00Z", "2026-03-15"},
		{"time", time.Date(2026, 3, 15, 17, 30, 0, 0, time.UTC), "2026-03-15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			if err := d.Scan(tt.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if d.String() != tt.want {
				t.Errorf("expected %s, got %s", tt.want, d)
			}
		})
	}

	var d Date
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2026-12-01"`), &d); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	data, _ := json.Marshal(d)
	if string(data) != `"2026-12-01"` {
		t.Errorf("expected round trip, got %s", data)
	}

	err := json.Unmarshal([]byte(`"01/12/2026"`), &d)
	if err == nil || !strings.Contains(err.Error(), "YYYY-MM-DD") {
		t.Errorf("expected format error, got %v", err)
	}
}

func TestDaysUntil(t *testing.T) {
	today, _ := ParseDate("2026-01-01")
	tests := []struct {
		expiry string
		want   int
	}{
		{"2026-01-01", 0},
		{"2026-01-08", 7},
		{"2026-01-16", 15},
		{"2025-12-31", -1},
		{"2026-03-01", 59},
	}
	for _, tt := range tests {
		e, _ := ParseDate(tt.expiry)
		if got := today.DaysUntil(e); got != tt.want {
			t.Errorf("DaysUntil(%s) = %d, want %d", tt.expiry, got, tt.want)
		}
	}
}
