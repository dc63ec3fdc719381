package models

import "time"

// AdminUser is an operator account for this tool, distinct from the device
// users it manages.
type AdminUser struct {
	ID           string
	Email        string
	PasswordHash []byte
	DisplayName  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AdminSession backs refresh-token rotation for one signed-in device.
type AdminSession struct {
	ID               string
	AdminID          string
	RefreshTokenHash []byte
	IPAddress        string
	UserAgent        string
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}

// PasswordReset is a single-use reset token, stored hashed.
type PasswordReset struct {
	AdminID   string
	TokenHash []byte
	ExpiresAt time.Time
	CreatedAt time.Time
}
