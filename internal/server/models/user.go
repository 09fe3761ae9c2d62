// Package models defines server-side data models persisted by the stores.
package models

import "time"

// User is a row of the users table. PasswordHash holds a bcrypt hash and is
// never rendered.
type User struct {
	ID           string
	UserName     string
	PasswordHash []byte
	CreatedAt    time.Time
}
