package domain

import "strings"

type PartID string

type Part struct {
	ID          PartID
	Name        string
	Category    string
	Description string
	ImageURL    string
	// TrayID is the remote carrier bound to the part, empty for simulated parts.
	TrayID string
}

// DisplayName falls back to the description, then the id, for parts sourced
// from feeds that carry no name.
func (p Part) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if description := strings.TrimSpace(p.Description); description != "" {
		return description
	}
	return string(p.ID)
}

// Matches reports whether name, category or description contains filter,
// ignoring case. An empty filter matches everything.
func (p Part) Matches(filter string) bool {
	needle := strings.ToLower(strings.TrimSpace(filter))
	if needle == "" {
		return true
	}

	for _, field := range []string{p.Name, p.Category, p.Description} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}

	return false
}

type StorageSlot struct {
	Part      Part
	Available bool
}
