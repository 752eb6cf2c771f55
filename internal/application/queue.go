package application

import (
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/google/uuid"
)

// RetrievalQueue buffers retrieval requests in FIFO order. Entries are never
// reordered; only the head is popped.
type RetrievalQueue struct {
	entries []domain.QueuedPart
	newID   func() domain.QueuedPartID
}

func NewRetrievalQueue() *RetrievalQueue {
	return &RetrievalQueue{
		newID: func() domain.QueuedPartID {
			return domain.QueuedPartID(uuid.NewString())
		},
	}
}

func (q *RetrievalQueue) Enqueue(part domain.Part, at time.Time) domain.QueuedPart {
	entry := domain.QueuedPart{ID: q.newID(), Part: part, EnqueuedAt: at}
	q.entries = append(q.entries, entry)
	return entry
}

func (q *RetrievalQueue) EnqueueMany(parts []domain.Part, at time.Time) []domain.QueuedPart {
	added := make([]domain.QueuedPart, 0, len(parts))
	for _, part := range parts {
		added = append(added, q.Enqueue(part, at))
	}
	return added
}

func (q *RetrievalQueue) Pop() (domain.QueuedPart, bool) {
	if len(q.entries) == 0 {
		return domain.QueuedPart{}, false
	}

	head := q.entries[0]
	q.entries = q.entries[1:]
	return head, true
}

// Withdraw removes a queued entry that has not been drained yet.
func (q *RetrievalQueue) Withdraw(id domain.QueuedPartID) (domain.QueuedPart, bool) {
	for i, entry := range q.entries {
		if entry.ID == id {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return entry, true
		}
	}
	return domain.QueuedPart{}, false
}

// RemovePart drops every entry for a part, keeping the order of the rest.
func (q *RetrievalQueue) RemovePart(id domain.PartID) int {
	kept := q.entries[:0:0]
	removed := 0
	for _, entry := range q.entries {
		if entry.Part.ID == id {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	q.entries = kept
	return removed
}

func (q *RetrievalQueue) Contains(id domain.PartID) bool {
	for _, entry := range q.entries {
		if entry.Part.ID == id {
			return true
		}
	}
	return false
}

func (q *RetrievalQueue) List() []domain.QueuedPart {
	entries := make([]domain.QueuedPart, len(q.entries))
	copy(entries, q.entries)
	return entries
}

func (q *RetrievalQueue) Len() int {
	return len(q.entries)
}
