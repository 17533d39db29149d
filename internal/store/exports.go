package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/model"
)

// AppendExportLog records an export attempt and sets its ID.
func AppendExportLog(ctx context.Context, q sqlx.ExtContext, l *model.ExportLog) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO export_log (format, status, details, username, object_key, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.Format, l.Status, l.Details, l.Username, l.ObjectKey, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("appending export log: %w", err)
	}
	l.ID = id
	return nil
}

// ListExportLogs returns export attempts newest first.
func ListExportLogs(ctx context.Context, q sqlx.ExtContext, limit int) ([]model.ExportLog, error) {
	query := `SELECT id, format, status, details, username, object_key, created_at
		FROM export_log ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var logs []model.ExportLog
	if err := sqlx.SelectContext(ctx, q, &logs, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing export logs: %w", err)
	}
	return logs, nil
}
