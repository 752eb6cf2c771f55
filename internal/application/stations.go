package application

import (
	"fmt"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

type stationSlot struct {
	station  domain.Station
	reserved bool
}

// StationPool tracks occupancy in a stable pool order. A reserved station is
// claimed by an in-flight operation and is never handed out as free.
type StationPool struct {
	slots []*stationSlot
}

func NewStationPool(stations []domain.Station) *StationPool {
	pool := &StationPool{slots: make([]*stationSlot, 0, len(stations))}
	for _, station := range stations {
		pool.slots = append(pool.slots, &stationSlot{station: cloneStation(station)})
	}
	return pool
}

// GetFreeStation returns the first free, unreserved station by pool order.
func (p *StationPool) GetFreeStation() (domain.Station, bool) {
	for _, slot := range p.slots {
		if !slot.station.Occupied && !slot.reserved {
			return cloneStation(slot.station), true
		}
	}
	return domain.Station{}, false
}

func (p *StationPool) FreeStations() []domain.Station {
	free := make([]domain.Station, 0, len(p.slots))
	for _, slot := range p.slots {
		if !slot.station.Occupied && !slot.reserved {
			free = append(free, cloneStation(slot.station))
		}
	}
	return free
}

func (p *StationPool) Occupy(id domain.StationID, part domain.Part) error {
	slot, ok := p.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrStationNotFound, id)
	}
	if slot.station.Occupied {
		return fmt.Errorf("%w: %s holds %s", domain.ErrStationOccupied, id, slot.station.Part.ID)
	}

	held := part
	slot.station.Occupied = true
	slot.station.Part = &held
	return nil
}

// Release frees a station; it reports false when the station was already free
// or unknown.
func (p *StationPool) Release(id domain.StationID) bool {
	slot, ok := p.find(id)
	if !ok || !slot.station.Occupied {
		return false
	}

	slot.station.Occupied = false
	slot.station.Part = nil
	return true
}

func (p *StationPool) Reserve(id domain.StationID) error {
	slot, ok := p.find(id)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrStationNotFound, id)
	}
	if slot.reserved {
		return fmt.Errorf("station %s is already reserved", id)
	}
	slot.reserved = true
	return nil
}

func (p *StationPool) Unreserve(id domain.StationID) {
	if slot, ok := p.find(id); ok {
		slot.reserved = false
	}
}

func (p *StationPool) Reserved(id domain.StationID) bool {
	slot, ok := p.find(id)
	return ok && slot.reserved
}

func (p *StationPool) Station(id domain.StationID) (domain.Station, bool) {
	slot, ok := p.find(id)
	if !ok {
		return domain.Station{}, false
	}
	return cloneStation(slot.station), true
}

func (p *StationPool) ListOccupied() []domain.Station {
	occupied := make([]domain.Station, 0, len(p.slots))
	for _, slot := range p.slots {
		if slot.station.Occupied {
			occupied = append(occupied, cloneStation(slot.station))
		}
	}
	return occupied
}

func (p *StationPool) List() []domain.Station {
	stations := make([]domain.Station, 0, len(p.slots))
	for _, slot := range p.slots {
		stations = append(stations, cloneStation(slot.station))
	}
	return stations
}

// HoldsPart reports whether any station currently holds the part.
func (p *StationPool) HoldsPart(id domain.PartID) bool {
	for _, slot := range p.slots {
		if slot.station.Part != nil && slot.station.Part.ID == id {
			return true
		}
	}
	return false
}

type stationChanges struct {
	placed  []domain.Part
	removed []domain.Part
}

// Reconcile replaces the pool with the polled station list. Reserved stations
// keep their local state; every other station takes the polled occupancy.
func (p *StationPool) Reconcile(polled []domain.Station) stationChanges {
	var changes stationChanges

	previous := make(map[domain.StationID]*stationSlot, len(p.slots))
	for _, slot := range p.slots {
		previous[slot.station.ID] = slot
	}

	next := make([]*stationSlot, 0, len(polled))
	seen := make(map[domain.StationID]struct{}, len(polled))
	for _, station := range polled {
		if _, dup := seen[station.ID]; dup {
			continue
		}
		seen[station.ID] = struct{}{}

		old, existed := previous[station.ID]
		if existed && old.reserved {
			old.station.Name = station.Name
			next = append(next, old)
			continue
		}

		updated := &stationSlot{station: cloneStation(station)}
		if existed && old.station.Position != nil && updated.station.Position == nil {
			updated.station.Position = old.station.Position
		}
		changes.diff(old, updated)
		next = append(next, updated)
	}

	for _, slot := range p.slots {
		if _, kept := seen[slot.station.ID]; kept {
			continue
		}
		if slot.reserved {
			next = append(next, slot)
			continue
		}
		if slot.station.Part != nil {
			changes.removed = append(changes.removed, *slot.station.Part)
		}
	}

	p.slots = next
	return changes
}

func (c *stationChanges) diff(old, updated *stationSlot) {
	var before, after *domain.Part
	if old != nil {
		before = old.station.Part
	}
	after = updated.station.Part

	switch {
	case before == nil && after == nil:
	case before == nil:
		c.placed = append(c.placed, *after)
	case after == nil:
		c.removed = append(c.removed, *before)
	case before.ID != after.ID:
		c.removed = append(c.removed, *before)
		c.placed = append(c.placed, *after)
	}
}

func (p *StationPool) find(id domain.StationID) (*stationSlot, bool) {
	for _, slot := range p.slots {
		if slot.station.ID == id {
			return slot, true
		}
	}
	return nil, false
}

func cloneStation(station domain.Station) domain.Station {
	if station.Part != nil {
		part := *station.Part
		station.Part = &part
	}
	if station.Position != nil {
		position := *station.Position
		station.Position = &position
	}
	return station
}
