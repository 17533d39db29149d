// Package inventory applies scanned actions to items. One action reads the
// item, writes its new quantity, appends a history entry and, when stock runs
// low, appends an alert, all inside a single transaction.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/metrics"
	"github.com/qmedic/qmedic/internal/model"
	"github.com/qmedic/qmedic/internal/store"
)

// DefaultTimeout bounds one action when the processor has no timeout set.
const DefaultTimeout = 5 * time.Second

// Processor runs inventory actions against the database.
type Processor struct {
	DB      *sqlx.DB
	Timeout time.Duration
	Metrics *metrics.Metrics

	// Now is the transaction clock. Defaults to time.Now.
	Now func() time.Time
	// CaseID generates a case id when the request carries none.
	CaseID func() string
}

// New creates a processor with the default clock and case id generator.
func New(db *sqlx.DB, timeout time.Duration, m *metrics.Metrics) *Processor {
	return &Processor{DB: db, Timeout: timeout, Metrics: m}
}

// Request is one scanned action.
type Request struct {
	ScanCode string
	Action   model.ActionKind
	Quantity int
	CaseID   string
}

// Result is the committed outcome of an action.
type Result struct {
	NewQuantity int                 `json:"newQuantity"`
	Status      model.StockStatus   `json:"status"`
	Entry       *model.HistoryEntry `json:"entry"`
	Alert       *model.Alert        `json:"alert,omitempty"`
}

// GenerateCaseID returns "C" followed by five digits.
func GenerateCaseID() string {
	return fmt.Sprintf("C%d", 10000+rand.IntN(90000))
}

// ApplyAction applies req on behalf of sess. Errors match ErrInvalidInput,
// ErrItemNotFound or ErrTransactionFailed. On any error nothing is written.
func (p *Processor) ApplyAction(ctx context.Context, sess model.Session, req Request) (*Result, error) {
	req.ScanCode = strings.TrimSpace(req.ScanCode)
	if err := validate(sess, req); err != nil {
		p.Metrics.ObserveAction(actionLabel(req.Action), metrics.ResultInvalid)
		return nil, err
	}
	if req.CaseID = strings.TrimSpace(req.CaseID); req.CaseID == "" {
		req.CaseID = p.caseID()
	}

	res, err := p.apply(ctx, sess, req)
	switch {
	case err == nil:
		p.Metrics.ObserveAction(string(req.Action), metrics.ResultOK)
	case errors.Is(err, ErrInvalidInput):
		p.Metrics.ObserveAction(string(req.Action), metrics.ResultInvalid)
		slog.Warn("action rejected", "code", req.ScanCode, "action", req.Action, "user", sess.Username, "error", err)
	case errors.Is(err, ErrItemNotFound):
		p.Metrics.ObserveAction(string(req.Action), metrics.ResultNotFound)
		slog.Warn("action on unknown item", "code", req.ScanCode, "action", req.Action, "user", sess.Username)
	default:
		p.Metrics.ObserveAction(string(req.Action), metrics.ResultFailed)
		slog.Error("inventory transaction failed", "code", req.ScanCode, "action", req.Action,
			"user", sess.Username, "error", err)
	}
	return res, err
}

func (p *Processor) apply(ctx context.Context, sess model.Session, req Request) (*Result, error) {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, &TransactionError{Op: "beginning transaction", Err: err}
	}
	defer tx.Rollback()

	item, err := store.LockItemByCode(ctx, tx, req.ScanCode)
	if err != nil {
		return nil, &TransactionError{Op: "reading item", Err: err}
	}
	if item == nil {
		return nil, &ItemNotFoundError{Code: req.ScanCode}
	}

	if !req.Action.Fits(item.Quantity, req.Quantity) {
		return nil, invalid("%s of %d would take %s past the maximum quantity of %d",
			req.Action, req.Quantity, item.Code, model.MaxQuantity)
	}

	now := p.now()
	newQty := req.Action.Apply(item.Quantity, req.Quantity)

	if err := store.UpdateItemQuantity(ctx, tx, item.ID, newQty, now); err != nil {
		return nil, &TransactionError{Op: "updating quantity", Err: err}
	}

	entry := &model.HistoryEntry{
		ItemID:       item.ID,
		ItemCode:     item.Code,
		ItemName:     item.Name,
		Category:     item.Category,
		Action:       req.Action,
		Quantity:     req.Quantity,
		BalanceAfter: newQty,
		CaseID:       req.CaseID,
		Username:     sess.Username,
		CreatedAt:    now,
	}
	if sess.UserID != 0 {
		uid := sess.UserID
		entry.UserID = &uid
	}
	if err := store.AppendHistory(ctx, tx, entry); err != nil {
		return nil, &TransactionError{Op: "appending history", Err: err}
	}

	// Threshold is re-read inside the transaction, after the writes.
	minQty, err := store.GetItemMinQuantity(ctx, tx, item.ID)
	if err != nil {
		return nil, &TransactionError{Op: "reading threshold", Err: err}
	}

	var alert *model.Alert
	if req.Action.ReducesStock() && newQty <= minQty {
		item.Quantity = newQty
		alert = model.AlertFor(item, model.AlertLowStock,
			fmt.Sprintf("Quantity is %d, which is at or below the minimum of %d.", newQty, minQty), now)
		if err := store.AppendAlert(ctx, tx, alert); err != nil {
			return nil, &TransactionError{Op: "appending alert", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &TransactionError{Op: "committing", Err: err}
	}

	slog.Info("action logged", "code", item.Code, "action", req.Action, "quantity", req.Quantity,
		"balance", newQty, "case", req.CaseID, "user", sess.Username)
	if alert != nil {
		p.Metrics.ObserveLowStockAlert()
		slog.Info("low stock alert raised", "code", item.Code, "quantity", newQty, "minimum", minQty)
	}

	return &Result{
		NewQuantity: newQty,
		Status:      model.StockStatusFor(newQty, minQty),
		Entry:       entry,
		Alert:       alert,
	}, nil
}

func validate(sess model.Session, req Request) error {
	if req.ScanCode == "" {
		return invalid("item code is required")
	}
	if !req.Action.Valid() {
		return invalid("unknown action %q", string(req.Action))
	}
	if req.Quantity <= 0 {
		return invalid("quantity must be positive, got %d", req.Quantity)
	}
	if req.Quantity > model.MaxQuantity {
		return invalid("quantity must be at most %d, got %d", model.MaxQuantity, req.Quantity)
	}
	if sess.Username == "" {
		return invalid("no signed-in user")
	}
	return nil
}

// actionLabel keeps arbitrary client input out of metric labels.
func actionLabel(a model.ActionKind) string {
	if a.Valid() {
		return string(a)
	}
	return "unknown"
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Processor) caseID() string {
	if p.CaseID != nil {
		return p.CaseID()
	}
	return GenerateCaseID()
}
