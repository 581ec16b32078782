// Package retention projects an account's event log into subscription
// health metrics.
package retention

import (
	"sort"
	"time"

	"github.com/ManuelReschke/PlanAutomator/app/models"
)

// TrendSize is the number of recent events shown on the trend bar.
const TrendSize = 10

type Snapshot struct {
	Active          int         `json:"active"`
	AtRisk          int         `json:"at_risk"`
	Churned         int         `json:"churned"`
	Total           int         `json:"total"`
	AtRiskCustomers []string    `json:"at_risk_customers"`
	Trend           []time.Time `json:"trend"`
	Empty           bool        `json:"empty"`
	GeneratedAt     time.Time   `json:"generated_at"`
}

// LatestByCustomer keeps the entry with the latest timestamp per customer
// email. entries are newest-first; on equal timestamps the earlier one in the
// slice wins.
func LatestByCustomer(entries []models.LogEntry) map[string]models.LogEntry {
	latest := make(map[string]models.LogEntry, len(entries))
	for _, e := range entries {
		cur, seen := latest[e.UserEmail]
		if !seen || e.Timestamp.After(cur.Timestamp) {
			latest[e.UserEmail] = e
		}
	}
	return latest
}

func IsActive(e models.LogEntry, now time.Time) bool {
	if e.SubStatus != models.SubscriptionActive && e.SubStatus != models.SubscriptionCanceled {
		return false
	}
	return e.IsValidAt(now)
}

// IsAtRisk reports a canceled subscription still inside its grace window.
func IsAtRisk(e models.LogEntry, now time.Time) bool {
	return e.SubStatus == models.SubscriptionCanceled && e.ExpiryDate != nil && e.ExpiryDate.After(now)
}

func IsChurned(e models.LogEntry, now time.Time) bool {
	return e.SubStatus == models.SubscriptionExpired || e.IsExpiredAt(now)
}

// Compute reduces the log to one entry per customer and counts them. The
// predicates overlap: a canceled customer in grace is both active and at risk.
func Compute(entries []models.LogEntry, now time.Time) Snapshot {
	snap := Snapshot{
		AtRiskCustomers: []string{},
		Trend:           []time.Time{},
		Empty:           len(entries) == 0,
		GeneratedAt:     now,
	}
	if snap.Empty {
		return snap
	}

	latest := LatestByCustomer(entries)
	snap.Total = len(latest)
	for email, e := range latest {
		if IsActive(e, now) {
			snap.Active++
		}
		if IsAtRisk(e, now) {
			snap.AtRisk++
			snap.AtRiskCustomers = append(snap.AtRiskCustomers, email)
		}
		if IsChurned(e, now) {
			snap.Churned++
		}
	}
	sort.Strings(snap.AtRiskCustomers)
	snap.Trend = Trend(entries)
	return snap
}

// Trend returns the timestamps of the most recent events, oldest first.
func Trend(entries []models.LogEntry) []time.Time {
	stamps := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		stamps = append(stamps, e.Timestamp)
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].After(stamps[j]) })
	if len(stamps) > TrendSize {
		stamps = stamps[:TrendSize]
	}
	for i, j := 0, len(stamps)-1; i < j; i, j = i+1, j-1 {
		stamps[i], stamps[j] = stamps[j], stamps[i]
	}
	return stamps
}
