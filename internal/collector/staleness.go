package collector

import "time"

// StalenessInfo describes how fresh the last successful poll is
type StalenessInfo struct {
	IsStale            bool       `json:"is_stale"`
	NeverPolled        bool       `json:"never_polled"`
	AgeSeconds         float64    `json:"age_seconds"`
	LastSuccessfulPoll *time.Time `json:"last_successful_poll_time,omitempty"`
}

// IsStale reports whether the last successful poll is older than the
// threshold. Pure: depends only on its arguments. A zero lastSuccess
// means no poll has ever succeeded and is reported stale (fail-safe).
func IsStale(now, lastSuccess time.Time, threshold time.Duration) bool {
	if lastSuccess.IsZero() {
		return true
	}
	return now.Sub(lastSuccess) > threshold
}

// Staleness computes the full freshness report for the given instant
func Staleness(now, lastSuccess time.Time, threshold time.Duration) StalenessInfo {
	if lastSuccess.IsZero() {
		return StalenessInfo{IsStale: true, NeverPolled: true}
	}

	last := lastSuccess
	return StalenessInfo{
		IsStale:            now.Sub(lastSuccess) > threshold,
		AgeSeconds:         now.Sub(lastSuccess).Seconds(),
		LastSuccessfulPoll: &last,
	}
}
