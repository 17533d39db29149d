package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/model"
)

const itemColumns = `id, code, name, category, quantity, min_quantity, expiry_date, location,
	last_scanned, COALESCE(image_mime, '') AS image_mime, created_at, updated_at, deleted_at`

// NewItem holds the fields of an item being created.
type NewItem struct {
	Code        string
	Name        string
	Category    model.Category
	Quantity    int
	MinQuantity int
	Expiry      *model.Date
	Location    string
}

// ItemUpdate holds the editable metadata of an item. Quantity is not here:
// it only changes through logged actions.
type ItemUpdate struct {
	Name        string
	Category    model.Category
	MinQuantity int
	Expiry      *model.Date
	Location    string
}

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Category model.Category
	Search   string
}

// CreateItem creates a new item.
func CreateItem(ctx context.Context, q sqlx.ExtContext, n NewItem) (*model.Item, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO items (code, name, category, quantity, min_quantity, expiry_date, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.Code, n.Name, n.Category, n.Quantity, n.MinQuantity, n.Expiry, n.Location,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID, including soft-deleted items.
func GetItem(ctx context.Context, q sqlx.ExtContext, id int64) (*model.Item, error) {
	return getItem(ctx, q, "getting item",
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
}

// GetItemByCode returns the active item with the given scan code.
func GetItemByCode(ctx context.Context, q sqlx.ExtContext, code string) (*model.Item, error) {
	return getItem(ctx, q, "getting item by code",
		`SELECT `+itemColumns+` FROM items WHERE code = ? AND deleted_at IS NULL`, code)
}

// LockItemByCode reads the active item with the given scan code and holds
// its row lock until the surrounding transaction ends.
func LockItemByCode(ctx context.Context, q sqlx.ExtContext, code string) (*model.Item, error) {
	return getItem(ctx, q, "locking item",
		forUpdate(q, `SELECT `+itemColumns+` FROM items WHERE code = ? AND deleted_at IS NULL`), code)
}

func getItem(ctx context.Context, q sqlx.ExtContext, op, query string, args ...any) (*model.Item, error) {
	item := &model.Item{}
	err := sqlx.GetContext(ctx, q, item, q.Rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// ListItems returns all non-deleted items ordered by name.
func ListItems(ctx context.Context, q sqlx.ExtContext, f ItemFilter) ([]model.Item, error) {
	var (
		where []string
		args  []any
	)
	where = append(where, "deleted_at IS NULL")
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(code) LIKE ?)")
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name, code`

	var items []model.Item
	if err := sqlx.SelectContext(ctx, q, &items, q.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListDatedItems returns active items that have an expiry date.
func ListDatedItems(ctx context.Context, q sqlx.ExtContext) ([]model.Item, error) {
	var items []model.Item
	err := sqlx.SelectContext(ctx, q, &items,
		`SELECT `+itemColumns+` FROM items
		 WHERE deleted_at IS NULL AND expiry_date IS NOT NULL ORDER BY expiry_date, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing dated items: %w", err)
	}
	return items, nil
}

// UpdateItem updates an item's metadata.
func UpdateItem(ctx context.Context, q sqlx.ExtContext, id int64, u ItemUpdate) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE items SET name = ?, category = ?, min_quantity = ?, expiry_date = ?, location = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`),
		u.Name, u.Category, u.MinQuantity, u.Expiry, u.Location, id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// UpdateItemQuantity stores a new quantity and scan time.
func UpdateItemQuantity(ctx context.Context, q sqlx.ExtContext, id int64, quantity int, scannedAt time.Time) error {
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE items SET quantity = ?, last_scanned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`),
		quantity, scannedAt, id,
	)
	if err != nil {
		return fmt.Errorf("updating item quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item quantity: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("updating item quantity: %d rows affected", n)
	}
	return nil
}

// GetItemMinQuantity returns the current low-stock threshold of an item.
func GetItemMinQuantity(ctx context.Context, q sqlx.ExtContext, id int64) (int, error) {
	var threshold int
	err := sqlx.GetContext(ctx, q, &threshold, q.Rebind(`SELECT min_quantity FROM items WHERE id = ?`), id)
	if err != nil {
		return 0, fmt.Errorf("reading min quantity: %w", err)
	}
	return threshold, nil
}

// DeleteItem soft-deletes an item. History and alerts keep pointing at it.
func DeleteItem(ctx context.Context, q sqlx.ExtContext, id int64) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`),
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, q sqlx.ExtContext, id int64, image []byte, mime string) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`),
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, q sqlx.ExtContext, id int64) ([]byte, string, error) {
	var row struct {
		Image []byte         `db:"image"`
		Mime  sql.NullString `db:"image_mime"`
	}
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT image, image_mime FROM items WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return row.Image, row.Mime.String, nil
}
