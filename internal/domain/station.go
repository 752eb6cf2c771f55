package domain

import "fmt"

type StationID string

type Position struct {
	X int
	Y int
}

type Station struct {
	ID       StationID
	Name     string
	Occupied bool
	Part     *Part
	Position *Position
}

func (s Station) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return string(s.ID)
}

// Validate checks that a station is occupied iff it holds a part.
func (s Station) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("station id is required")
	}
	if s.Occupied && s.Part == nil {
		return fmt.Errorf("station %s is occupied without a part", s.ID)
	}
	if !s.Occupied && s.Part != nil {
		return fmt.Errorf("station %s is free but holds part %s", s.ID, s.Part.ID)
	}

	return nil
}
