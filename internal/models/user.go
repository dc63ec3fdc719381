package models

import "time"

// Reserved document identifiers written by the device app as running
// counters. They live alongside real users and are excluded from every
// derived figure.
const (
	ReservedUserCount      = "noofusers"
	ReservedUserTotalCount = "totalnumberofusers"
)

// AppUser is an end-user device record. The device identifier is the key;
// status is the only field this system mutates.
type AppUser struct {
	DeviceID  string
	LastSeen  *time.Time
	CreatedAt *time.Time
	Status    bool
}

// ReservedUserID reports whether a document identifier is one of the
// aggregate-counter records rather than a real user.
func ReservedUserID(id string) bool {
	return id == ReservedUserCount || id == ReservedUserTotalCount
}

// ActivityTime is the timestamp used for weekly-activity checks: last seen
// when present, otherwise creation time.
func (u AppUser) ActivityTime() *time.Time {
	if u.LastSeen != nil {
		return u.LastSeen
	}
	return u.CreatedAt
}
