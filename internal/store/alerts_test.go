package store

import (
	"context"
	"testing"
	"time"

	"github.com/qmedic/qmedic/internal/db"
	"github.com/qmedic/qmedic/internal/model"
)

func TestAppendAlertNotDeduplicated(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := seedItem(t, database, "MED001", 1, 3)
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		a := model.AlertFor(item, model.AlertLowStock, "low", now)
		if err := AppendAlert(ctx, database, a); err != nil {
			t.Fatalf("AppendAlert: %v", err)
		}
	}

	alerts, _ := ListItemAlerts(ctx, database, item.ID)
	if len(alerts) != 2 {
		t.Errorf("expected 2 low stock alerts, got %d", len(alerts))
	}
}

func TestAppendAlertOnce(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	expiry, _ := model.ParseDate("2026-01-16")
	item, _ := CreateItem(ctx, database, NewItem{Code: "MED002", Name: "Insulin", Category: model.CategoryMedication, Expiry: &expiry})
	other := seedItem(t, database, "MED003", 1, 0)
	now := time.Now().UTC()

	inserted, err := AppendAlertOnce(ctx, database, model.AlertFor(item, model.AlertExpiry15Days, "15 days", now))
	if err != nil || !inserted {
		t.Fatalf("expected first expiry alert to insert, got %v (%v)", inserted, err)
	}

	inserted, err = AppendAlertOnce(ctx, database, model.AlertFor(item, model.AlertExpiry15Days, "again", now))
	if err != nil {
		t.Fatalf("AppendAlertOnce duplicate: %v", err)
	}
	if inserted {
		t.Error("expected duplicate expiry alert to be skipped")
	}

	// A different kind, or a different item, is still new.
	inserted, _ = AppendAlertOnce(ctx, database, model.AlertFor(item, model.AlertExpiry7Days, "7 days", now))
	if !inserted {
		t.Error("expected 7-day alert to insert alongside 15-day alert")
	}
	inserted, _ = AppendAlertOnce(ctx, database, model.AlertFor(other, model.AlertExpiry15Days, "15 days", now))
	if !inserted {
		t.Error("expected alert for another item to insert")
	}

	if _, err := AppendAlertOnce(ctx, database, model.AlertFor(item, model.AlertLowStock, "low", now)); err == nil {
		t.Error("expected low stock alerts to be refused by AppendAlertOnce")
	}

	alerts, _ := ListItemAlerts(ctx, database, item.ID)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts for item, got %d", len(alerts))
	}
	if alerts[0].Expiry == nil || alerts[0].Expiry.String() != "2026-01-16" {
		t.Errorf("expected expiry snapshot, got %v", alerts[0].Expiry)
	}
}

func TestListAndMarkAlertRead(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item := seedItem(t, database, "SUP001", 0, 2)
	base := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	older := model.AlertFor(item, model.AlertLowStock, "first", base)
	newer := model.AlertFor(item, model.AlertLowStock, "second", base.Add(time.Hour))
	AppendAlert(ctx, database, older)
	AppendAlert(ctx, database, newer)

	all, err := ListAlerts(ctx, database, false, 0)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(all) != 2 || all[0].Details != "second" {
		t.Fatalf("expected newest first, got %+v", all)
	}
	if all[0].Read {
		t.Error("expected new alert to be unread")
	}

	found, err := MarkAlertRead(ctx, database, older.ID)
	if err != nil || !found {
		t.Fatalf("MarkAlertRead: %v (found=%v)", err, found)
	}

	unread, _ := ListAlerts(ctx, database, true, 0)
	if len(unread) != 1 || unread[0].ID != newer.ID {
		t.Errorf("expected only the newer alert unread, got %+v", unread)
	}

	found, _ = MarkAlertRead(ctx, database, 9999)
	if found {
		t.Error("expected unknown alert to report not found")
	}
}
