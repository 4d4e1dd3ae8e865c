package model

import "time"

// SessionInfo is the externally visible state of a browser session.
type SessionInfo struct {
	ID         string         `json:"id"`
	State      LifecycleState `json:"state"`
	InFlight   bool           `json:"in_flight"`
	LastQuery  string         `json:"last_query,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
	Searches   int            `json:"searches"`
	CreatedAt  time.Time      `json:"created_at"`
	LastActive time.Time      `json:"last_active"`
}
