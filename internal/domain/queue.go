package domain

import "time"

type QueuedPartID string

type QueuedPart struct {
	ID         QueuedPartID
	Part       Part
	EnqueuedAt time.Time
}
