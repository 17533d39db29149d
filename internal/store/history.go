package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/model"
)

const historyColumns = `id, item_id, item_code, item_name, category, action, quantity, balance_after,
	case_id, username, user_id, created_at`

// AppendHistory inserts an entry into the ledger and sets its ID.
func AppendHistory(ctx context.Context, q sqlx.ExtContext, e *model.HistoryEntry) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO history (item_id, item_code, item_name, category, action, quantity, balance_after,
		                      case_id, username, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ItemID, e.ItemCode, e.ItemName, e.Category, e.Action, e.Quantity, e.BalanceAfter,
		e.CaseID, e.Username, e.UserID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending history: %w", err)
	}
	e.ID = id
	return nil
}

// ListHistory returns ledger entries newest first.
func ListHistory(ctx context.Context, q sqlx.ExtContext, f model.HistoryFilter) ([]model.HistoryEntry, error) {
	var (
		where []string
		args  []any
	)
	if f.ItemID != 0 {
		where = append(where, "item_id = ?")
		args = append(args, f.ItemID)
	}
	if f.ItemCode != "" {
		where = append(where, "item_code = ?")
		args = append(args, f.ItemCode)
	}
	if f.Action != "" {
		where = append(where, "action = ?")
		args = append(args, f.Action)
	}

	query := `SELECT ` + historyColumns + ` FROM history`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	var entries []model.HistoryEntry
	if err := sqlx.SelectContext(ctx, q, &entries, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	return entries, nil
}

// SummarizeHistory totals checked-in quantities and stock-reducing
// quantities across the whole ledger. LowStockCount is left to the caller,
// which derives it from item status.
func SummarizeHistory(ctx context.Context, q sqlx.ExtContext) (model.InventorySummary, error) {
	var row struct {
		CheckedIn  int `db:"checked_in"`
		CheckedOut int `db:"checked_out"`
	}
	// checked_out counts only actions that lower stock. Transfer moves stock
	// without changing it and is left out of both totals.
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(
		`SELECT
		     COALESCE(SUM(CASE WHEN action = ? THEN quantity ELSE 0 END), 0) AS checked_in,
		     COALESCE(SUM(CASE WHEN action IN (?, ?, ?) THEN quantity ELSE 0 END), 0) AS checked_out
		 FROM history`),
		model.ActionCheckIn, model.ActionCheckOut, model.ActionUse, model.ActionRemoveAll,
	)
	if err != nil {
		return model.InventorySummary{}, fmt.Errorf("summarizing history: %w", err)
	}
	return model.InventorySummary{CheckedIn: row.CheckedIn, CheckedOut: row.CheckedOut}, nil
}
