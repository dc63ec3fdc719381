package models

import "time"

// MeditationEntry is a single persistent document edited in place. There is
// no creation or deletion path in the admin surface.
type MeditationEntry struct {
	ID        string
	Heading   string
	Body      string
	AudioName string
	AudioURL  string
	UpdatedAt time.Time
}
