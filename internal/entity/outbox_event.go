package entity

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEntry is written in the same transaction as the change it describes.
// SentAt == nil means the entry has not been delivered yet.
type OutboxEntry struct {
	ID          uuid.UUID  `json:"id"`
	AggregateID uuid.UUID  `json:"aggregate_id"`
	EventType   string     `json:"event_type"`
	Payload     []byte     `json:"payload"`
	CreatedAt   time.Time  `json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	ClaimedBy   *string    `json:"claimed_by,omitempty"`
	ClaimedAt   *time.Time `json:"claimed_at,omitempty"`
	Attempts    int        `json:"attempts"`
}
