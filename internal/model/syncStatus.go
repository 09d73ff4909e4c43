package model

import "time"

type SyncStatus struct {
	LastAttemptAt time.Time `json:"last_attempt_at"`
	LastSuccessAt time.Time `json:"last_success_at,omitempty"`
	HoldingsCount int       `json:"holdings_count"`
	LastError     string    `json:"last_error,omitempty"`
}

func (s SyncStatus) HasSucceeded() bool {
	return !s.LastSuccessAt.IsZero()
}
