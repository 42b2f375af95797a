package domain

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// StringArray is a custom type to handle JSON array in GORM
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = []string{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}
	if len(bytes) == 0 {
		*a = []string{}
		return nil
	}
	return json.Unmarshal(bytes, a)
}

const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// SyncReport summarizes one sync run for a user.
type SyncReport struct {
	RunID      string      `json:"run_id" firestore:"run_id" gorm:"primaryKey"`
	UserID     string      `json:"user_id" firestore:"user_id" gorm:"index;not null"`
	Status     string      `json:"status" firestore:"status"`
	Listed     int         `json:"listed" firestore:"listed"`
	Synced     int         `json:"synced" firestore:"synced"`
	Skipped    int         `json:"skipped" firestore:"skipped"`
	FailedIDs  StringArray `json:"failed_ids" firestore:"failed_ids" gorm:"type:text"`
	Error      string      `json:"error,omitempty" firestore:"error"`
	StartedAt  time.Time   `json:"started_at" firestore:"started_at" gorm:"index"`
	FinishedAt *time.Time  `json:"finished_at,omitempty" firestore:"finished_at"`
}

func (SyncReport) TableName() string {
	return "sync_runs"
}

// SyncRequest asks for one sync run.
type SyncRequest struct {
	UserID    string
	MaxEmails int
	Query     string
}
