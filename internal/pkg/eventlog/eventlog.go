// Package eventlog serves the per-account lifecycle log for display.
package eventlog

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ManuelReschke/PlanAutomator/app/models"
	"github.com/ManuelReschke/PlanAutomator/app/repository"
	"github.com/ManuelReschke/PlanAutomator/internal/pkg/logger"
)

// UnlimitedLabel marks entries without an expiry.
const UnlimitedLabel = "unlimited"

const expiryLayout = "2006-01-02"

var (
	ErrConfirmationRequired = errors.New("clearing the log cannot be undone, confirm to proceed")
	ErrEntryNotFound        = errors.New("log entry not found")
)

// Row is a log entry with its display-time status. An entry whose expiry has
// passed displays as expired whatever its stored status.
type Row struct {
	models.LogEntry
	DisplayStatus models.SubscriptionStatus `json:"display_status"`
	ExpiryLabel   string                    `json:"expiry_label"`
}

func NewRow(e models.LogEntry, now time.Time) Row {
	r := Row{LogEntry: e, DisplayStatus: e.SubStatus, ExpiryLabel: UnlimitedLabel}
	if e.ExpiryDate != nil {
		r.ExpiryLabel = e.ExpiryDate.Format(expiryLayout)
	}
	if e.IsExpiredAt(now) {
		r.DisplayStatus = models.SubscriptionExpired
	}
	return r
}

type Service struct {
	store repository.RecordStore
	now   func() time.Time
}

func NewService(store repository.RecordStore) *Service {
	return &Service{store: store, now: time.Now}
}

// List returns the account's log newest-first.
func (s *Service) List(ctx context.Context, account string) ([]Row, error) {
	entries, err := s.store.GetEventLog(ctx, account)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rows := make([]Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, NewRow(e, now))
	}
	return rows, nil
}

// Find returns one entry of the account's log by id.
func (s *Service) Find(ctx context.Context, account, id string) (models.LogEntry, error) {
	entries, err := s.store.GetEventLog(ctx, account)
	if err != nil {
		return models.LogEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return models.LogEntry{}, ErrEntryNotFound
}

// Clear wipes the account's log and nothing else. It refuses unless confirmed.
func (s *Service) Clear(ctx context.Context, account string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	if err := s.store.ClearEventLog(ctx, account); err != nil {
		return err
	}
	logger.Get().Info("event log cleared", zap.String("account", account))
	return nil
}
