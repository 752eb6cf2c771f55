package application

import "github.com/bnema/warehouse-showcase/internal/domain"

// StorageLedger tracks availability per part. It is owned by the coordinator
// loop and is not safe for concurrent use.
type StorageLedger struct {
	order []domain.PartID
	slots map[domain.PartID]*domain.StorageSlot
}

func NewStorageLedger(parts []domain.Part) *StorageLedger {
	ledger := &StorageLedger{slots: make(map[domain.PartID]*domain.StorageSlot, len(parts))}
	for _, part := range parts {
		ledger.Upsert(part, true)
	}
	return ledger
}

// Upsert creates a slot the first time a part id is seen and reports whether
// it did. An existing slot takes the new part record (tray, description,
// category) but keeps its availability.
func (l *StorageLedger) Upsert(part domain.Part, available bool) bool {
	if part.ID == "" {
		return false
	}
	if slot, ok := l.slots[part.ID]; ok {
		slot.Part = part
		return false
	}

	l.slots[part.ID] = &domain.StorageSlot{Part: part, Available: available}
	l.order = append(l.order, part.ID)
	return true
}

func (l *StorageLedger) Part(id domain.PartID) (domain.Part, bool) {
	slot, ok := l.slots[id]
	if !ok {
		return domain.Part{}, false
	}
	return slot.Part, true
}

func (l *StorageLedger) IsAvailable(id domain.PartID) bool {
	slot, ok := l.slots[id]
	return ok && slot.Available
}

func (l *StorageLedger) MarkUnavailable(id domain.PartID) {
	if slot, ok := l.slots[id]; ok {
		slot.Available = false
	}
}

func (l *StorageLedger) MarkAvailable(id domain.PartID) {
	if slot, ok := l.slots[id]; ok {
		slot.Available = true
	}
}

// ListAvailable returns available parts matching filter in catalog order.
func (l *StorageLedger) ListAvailable(filter string) []domain.Part {
	parts := make([]domain.Part, 0, len(l.order))
	for _, id := range l.order {
		slot := l.slots[id]
		if !slot.Available || !slot.Part.Matches(filter) {
			continue
		}
		parts = append(parts, slot.Part)
	}
	return parts
}

// PartByTray resolves the part bound to a remote tray.
func (l *StorageLedger) PartByTray(trayID string) (domain.Part, bool) {
	if trayID == "" {
		return domain.Part{}, false
	}
	for _, id := range l.order {
		if part := l.slots[id].Part; part.TrayID == trayID {
			return part, true
		}
	}
	return domain.Part{}, false
}

func (l *StorageLedger) Len() int {
	return len(l.order)
}
