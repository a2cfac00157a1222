package models

import "time"

type Comment struct {
	ID        string
	FileID    string
	UserID    string
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HistoryAction is the kind of comment transition recorded in the audit trail.
type HistoryAction string

const (
	ActionCreated HistoryAction = "created"
	ActionEdited  HistoryAction = "edited"
	ActionDeleted HistoryAction = "deleted"
)

// CommentHistoryEntry is one immutable audit record. PreviousText is nil for
// created entries and NewText is nil for deleted ones.
type CommentHistoryEntry struct {
	ID           string
	CommentID    string
	FileID       string
	Action       HistoryAction
	PreviousText *string
	NewText      *string
	ActorUserID  string
	CreatedAt    time.Time
}
