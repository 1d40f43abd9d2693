package models

import "time"

const (
	StatusScheduled = `scheduled`
	StatusCancelled = `cancelled`
	StatusCompleted = `completed`
)

// Terminal reports whether a status allows no further scheduling actions.
func Terminal(status string) bool {
	return status == StatusCancelled || status == StatusCompleted
}

type MeetingRequest struct {
	Title *string    `json:"title"`
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

type NoteRequest struct {
	Text *string `json:"text"`
}

type Note struct {
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Meeting struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Start       time.Time  `json:"start" db:"start_at"`
	End         time.Time  `json:"end" db:"end_at"`
	Status      string     `json:"status" db:"status"`
	Notes       []Note     `json:"notes" db:"-"`
	CancelledAt *time.Time `json:"cancelledAt" db:"cancelled_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}
