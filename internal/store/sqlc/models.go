package sqlc

import "time"

// Event mirrors one row of the events table.
type Event struct {
	ID           string
	Type         string
	Source       string
	Timestamp    time.Time
	Payload      string
	Status       string
	Attempts     int32
	Error        *string
	CreatedAt    time.Time
	ProcessedAt  *time.Time
	NextRetryAt  *time.Time
}

// ClaimedEvent is the narrow projection ClaimPending returns.
type ClaimedEvent struct {
	ID      string
	Payload string
}

// DLQEvent is the projection DLQ listing returns.
type DLQEvent struct {
	ID        string
	Payload   string
	Error     *string
	Attempts  int32
	CreatedAt time.Time
}
