package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType enumerates the timeline interaction kinds.
type ActivityType string

const (
	ActivityCall    ActivityType = "call"
	ActivityEmail   ActivityType = "email"
	ActivityMeeting ActivityType = "meeting"
	ActivityTask    ActivityType = "task"
	ActivityNote    ActivityType = "note"
	ActivitySMS     ActivityType = "sms"
)

// Valid reports whether the activity type is supported.
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityCall, ActivityEmail, ActivityMeeting, ActivityTask, ActivityNote, ActivitySMS:
		return true
	}
	return false
}

// Activity is a timeline entry attached to a record. Entries are
// never removed; completing and rescheduling are the only edits, any
// other correction is a new entry.
type Activity struct {
	ID          uuid.UUID      `json:"id"`
	WorkspaceID uuid.UUID      `json:"workspace_id"`
	RecordID    uuid.UUID      `json:"record_id"`
	Type        ActivityType   `json:"activity_type"`
	Subject     string         `json:"subject"`
	Body        string         `json:"body,omitempty"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	AssignedTo  *uuid.UUID     `json:"assigned_to,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedBy   uuid.UUID      `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
}

// ActivityCreate represents activity creation data.
type ActivityCreate struct {
	Type        ActivityType   `json:"activity_type" validate:"required,oneof=call email meeting task note sms"`
	Subject     string         `json:"subject" validate:"required,max=300"`
	Body        string         `json:"body,omitempty" validate:"max=10000"`
	ScheduledAt *time.Time     `json:"scheduled_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	AssignedTo  *uuid.UUID     `json:"assigned_to,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}
