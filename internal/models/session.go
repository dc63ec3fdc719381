package models

import "time"

// SessionRecord is one completed engagement with a mood's content. Records
// are produced by the device app and are read-only here.
type SessionRecord struct {
	ID         string
	Mood       Mood
	UserID     string
	OccurredAt time.Time
}
