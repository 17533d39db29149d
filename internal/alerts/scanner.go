// Package alerts raises expiry warnings on a daily schedule.
package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/qmedic/qmedic/internal/metrics"
	"github.com/qmedic/qmedic/internal/model"
	"github.com/qmedic/qmedic/internal/store"
)

// Days before expiry at which warnings are raised.
const (
	FirstWarningDays = 15
	FinalWarningDays = 7
)

// Scanner checks dated items for upcoming expiry.
type Scanner struct {
	DB       *sqlx.DB
	Location *time.Location
	Hour     int
	Metrics  *metrics.Metrics

	Now func() time.Time
}

// KindFor returns the warning due for an item expiring in daysLeft days, if
// any. Expired items get nothing.
func KindFor(daysLeft int) (model.AlertKind, bool) {
	switch {
	case daysLeft == FirstWarningDays:
		return model.AlertExpiry15Days, true
	case daysLeft > 0 && daysLeft <= FinalWarningDays:
		return model.AlertExpiry7Days, true
	default:
		return "", false
	}
}

func details(item *model.Item, daysLeft int) string {
	if daysLeft == 1 {
		return fmt.Sprintf("%s expires tomorrow (%s).", item.Name, item.Expiry)
	}
	return fmt.Sprintf("%s expires in %d days (%s).", item.Name, daysLeft, item.Expiry)
}

// RunOnce raises the warnings due at now and returns how many were created.
// Each kind is raised at most once per item.
func (s *Scanner) RunOnce(ctx context.Context, now time.Time) (int, error) {
	items, err := store.ListDatedItems(ctx, s.DB)
	if err != nil {
		return 0, err
	}

	today := model.NewDate(now.In(s.location()))
	raised := 0
	for i := range items {
		item := &items[i]
		daysLeft := today.DaysUntil(*item.Expiry)
		kind, ok := KindFor(daysLeft)
		if !ok {
			continue
		}

		alert := model.AlertFor(item, kind, details(item, daysLeft), now.UTC())
		created, err := store.AppendAlertOnce(ctx, s.DB, alert)
		if err != nil {
			return raised, err
		}
		if !created {
			continue
		}

		raised++
		s.Metrics.ObserveExpiryAlert(string(kind))
		slog.Info("expiry alert raised", "code", item.Code, "kind", kind, "days_left", daysLeft)
	}
	return raised, nil
}

// Run scans once immediately, then daily at the configured hour, until ctx
// is cancelled.
func (s *Scanner) Run(ctx context.Context) {
	s.scan(ctx)

	for {
		wait := time.Until(s.NextRun(s.now()))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.scan(ctx)
		}
	}
}

func (s *Scanner) scan(ctx context.Context) {
	n, err := s.RunOnce(ctx, s.now())
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("expiry scan failed", "error", err)
		}
		return
	}
	slog.Info("expiry scan finished", "raised", n)
}

// NextRun returns the first scheduled time strictly after now.
func (s *Scanner) NextRun(now time.Time) time.Time {
	local := now.In(s.location())
	next := time.Date(local.Year(), local.Month(), local.Day(), s.Hour, 0, 0, 0, local.Location())
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *Scanner) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
