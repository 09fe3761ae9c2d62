package models

import "time"

// Submission is one name/email form entry. The same logical submission may
// be written to several independent backends; the copies are never
// reconciled.
type Submission struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"nombre" db:"nombre"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"creado" db:"creado"`
}
