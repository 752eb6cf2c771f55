package toml

import "fmt"

const currentSchemaVersion = 1

type catalogFileSchema struct {
	Version  int             `toml:"version"`
	Parts    []partSchema    `toml:"parts"`
	Stations []stationSchema `toml:"stations"`
}

type historyFileSchema struct {
	Version    int               `toml:"version"`
	Operations []operationSchema `toml:"operations"`
}

func (s *catalogFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s catalogFileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported catalog schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

func (s *historyFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s historyFileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported history schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type partSchema struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Category    string `toml:"category"`
	Description string `toml:"description,omitempty"`
	ImageURL    string `toml:"image_url,omitempty"`
	TrayID      string `toml:"tray_id,omitempty"`
}

type stationSchema struct {
	ID       string          `toml:"id"`
	Name     string          `toml:"name"`
	Position *positionSchema `toml:"position,omitempty"`
}

type positionSchema struct {
	X int `toml:"x"`
	Y int `toml:"y"`
}

type operationSchema struct {
	ID          string     `toml:"id"`
	Type        string     `toml:"type"`
	Part        partSchema `toml:"part"`
	StationID   string     `toml:"station_id"`
	StationName string     `toml:"station_name"`
	Status      string     `toml:"status"`
	Error       string     `toml:"error,omitempty"`
	CreatedAt   string     `toml:"created_at"`
	UpdatedAt   string     `toml:"updated_at"`
}
