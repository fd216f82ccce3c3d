package domain

import "time"

// EmailTemplate is a saved subject+body pair the composer can reload.
// Templates are plain content storage; merge-field rendering happens in the
// template service at send time.
type EmailTemplate struct {
	ID        string    `json:"id" db:"id"`
	OwnerID   string    `json:"owner_id" db:"owner_id"`
	Subject   string    `json:"subject" db:"subject"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
