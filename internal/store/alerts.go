package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/model"
)

const alertColumns = `id, item_id, kind, item_code, item_name, location, expiry_date, details, is_read, created_at`

const insertAlert = `INSERT INTO alerts (item_id, kind, item_code, item_name, location, expiry_date, details, created_at)
	 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func alertArgs(a *model.Alert) []any {
	return []any{a.ItemID, a.Kind, a.ItemCode, a.ItemName, a.Location, a.Expiry, a.Details, a.CreatedAt}
}

// AppendAlert inserts an alert and sets its ID.
func AppendAlert(ctx context.Context, q sqlx.ExtContext, a *model.Alert) error {
	id, err := insertReturningID(ctx, q, insertAlert, alertArgs(a)...)
	if err != nil {
		return fmt.Errorf("appending alert: %w", err)
	}
	a.ID = id
	return nil
}

// AppendAlertOnce inserts an expiry alert unless the item already has one of
// the same kind. It reports whether a row was inserted.
func AppendAlertOnce(ctx context.Context, q sqlx.ExtContext, a *model.Alert) (bool, error) {
	if a.Kind == model.AlertLowStock {
		return false, fmt.Errorf("appending alert once: %q alerts are not deduplicated", a.Kind)
	}

	id, err := insertReturningID(ctx, q, insertAlert+` ON CONFLICT DO NOTHING`, alertArgs(a)...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("appending alert once: %w", err)
	}
	a.ID = id
	return true, nil
}

// ListAlerts returns alerts newest first.
func ListAlerts(ctx context.Context, q sqlx.ExtContext, unreadOnly bool, limit int) ([]model.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	var args []any
	if unreadOnly {
		query += ` WHERE is_read = FALSE`
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var alerts []model.Alert
	if err := sqlx.SelectContext(ctx, q, &alerts, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	return alerts, nil
}

// ListItemAlerts returns every alert raised for an item, oldest first.
func ListItemAlerts(ctx context.Context, q sqlx.ExtContext, itemID int64) ([]model.Alert, error) {
	var alerts []model.Alert
	err := sqlx.SelectContext(ctx, q, &alerts, q.Rebind(
		`SELECT `+alertColumns+` FROM alerts WHERE item_id = ? ORDER BY created_at, id`), itemID)
	if err != nil {
		return nil, fmt.Errorf("listing item alerts: %w", err)
	}
	return alerts, nil
}

// MarkAlertRead flips an alert's read flag. It reports whether the alert exists.
func MarkAlertRead(ctx context.Context, q sqlx.ExtContext, id int64) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(`UPDATE alerts SET is_read = TRUE WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("marking alert read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("marking alert read: %w", err)
	}
	return n > 0, nil
}
