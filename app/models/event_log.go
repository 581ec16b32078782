package models

import (
	"fmt"
	"strings"
	"time"
)

// LogStatus is the coarse outcome of processing an event.
type LogStatus string

const (
	LogStatusSuccess    LogStatus = "success"
	LogStatusFailed     LogStatus = "failed"
	LogStatusProcessing LogStatus = "processing"
)

// SubscriptionStatus is the finer subscription state carried by an event.
type SubscriptionStatus string

const (
	SubscriptionActive          SubscriptionStatus = "active"
	SubscriptionCanceled        SubscriptionStatus = "canceled"
	SubscriptionPastDue         SubscriptionStatus = "past_due"
	SubscriptionExpired         SubscriptionStatus = "expired"
	SubscriptionOneTimePurchase SubscriptionStatus = "one_time_purchase"
)

// EventKind is one of the three payment lifecycle events the simulator emits.
type EventKind string

const (
	EventApproved EventKind = "approved"
	EventCanceled EventKind = "canceled"
	EventExpired  EventKind = "expired"
)

func ParseEventKind(s string) (EventKind, error) {
	switch k := EventKind(strings.ToLower(strings.TrimSpace(s))); k {
	case EventApproved, EventCanceled, EventExpired:
		return k, nil
	default:
		return "", fmt.Errorf("unknown event kind %q", s)
	}
}

// LogEntry is one recorded lifecycle notification. Entries are written once
// and never edited; the log is stored newest-first.
type LogEntry struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Provider   Provider           `json:"provider"`
	UserEmail  string             `json:"user_email"`
	Plan       string             `json:"plan"`
	Status     LogStatus          `json:"status"`
	SubStatus  SubscriptionStatus `json:"sub_status"`
	ExpiryDate *time.Time         `json:"expiry_date,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// IsExpiredAt reports whether the entry carries an expiry strictly before now.
func (e LogEntry) IsExpiredAt(now time.Time) bool {
	return e.ExpiryDate != nil && e.ExpiryDate.Before(now)
}

// IsValidAt reports whether the entry has no expiry or one strictly after now.
func (e LogEntry) IsValidAt(now time.Time) bool {
	return e.ExpiryDate == nil || e.ExpiryDate.After(now)
}
