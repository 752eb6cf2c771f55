package domain

// FeedPart is a validated record from the remote parts feed.
type FeedPart struct {
	ID          PartID
	Description string
	Category    string
	ImageURL    string
	TrayID      string
	// StationID is set when the feed reports the part as already placed.
	StationID StationID
}

func (p FeedPart) Part() Part {
	return Part{
		ID:          p.ID,
		Name:        p.Description,
		Category:    p.Category,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		TrayID:      p.TrayID,
	}
}

// FeedStation is a validated record from the remote stations feed. An empty
// TrayID means the station is free.
type FeedStation struct {
	ID     StationID
	Name   string
	TrayID string
}

type TrayAvailability struct {
	Available   bool
	StationName string
}

type Catalog struct {
	Parts    []Part
	Stations []Station
}
