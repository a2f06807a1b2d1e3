package models

import (
	"encoding/json"
	"time"
)

// AuditLog records who did what to which entity
type AuditLog struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	UserID    string          `json:"userId"`
	UserName  string          `json:"userName"`
	Action    Action          `json:"action"`
	Details   string          `json:"details"`
	TargetID  string          `json:"targetId,omitempty"`
	Changes   json.RawMessage `json:"changes,omitempty"`
}

// Holiday is a non-collection day
type Holiday struct {
	ID          string    `json:"id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}
