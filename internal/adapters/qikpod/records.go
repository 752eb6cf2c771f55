package qikpod

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

type statusOnly struct {
	StatusBool *bool  `json:"statusbool"`
	Message    string `json:"message"`
}

type envelope struct {
	Records []json.RawMessage `json:"records"`
	Count   int               `json:"count"`
}

// recordID accepts ids encoded as either JSON strings or numbers.
type recordID string

func (id *recordID) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*id = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*id = recordID(strings.TrimSpace(text))
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("id must be a string or number: %s", raw)
	}
	*id = recordID(number.String())
	return nil
}

type slotRecord struct {
	ID       recordID `json:"id"`
	SlotName string   `json:"slot_name"`
	SlotID   string   `json:"slot_id"`
	TrayID   *string  `json:"tray_id"`
	Status   *string  `json:"status"`
}

func (r slotRecord) toFeedStation() (domain.FeedStation, error) {
	if r.ID == "" {
		return domain.FeedStation{}, errors.New("missing id")
	}

	name := strings.TrimSpace(r.SlotName)
	if name == "" {
		name = "Station " + string(r.ID)
	}

	station := domain.FeedStation{ID: domain.StationID(r.ID), Name: name}
	if r.TrayID != nil {
		station.TrayID = strings.TrimSpace(*r.TrayID)
	}
	return station, nil
}

type itemRecord struct {
	ItemID      recordID `json:"item_id"`
	Description string   `json:"item_description"`
	Image       *string  `json:"item_image"`
	Category    string   `json:"item_category"`
	TrayID      *string  `json:"tray_id"`
	StationID   *string  `json:"station_id,omitempty"`
}

func (r itemRecord) toFeedPart() (domain.FeedPart, error) {
	if r.ItemID == "" {
		return domain.FeedPart{}, errors.New("missing item_id")
	}

	part := domain.FeedPart{
		ID:          domain.PartID(r.ItemID),
		Description: strings.TrimSpace(r.Description),
		Category:    strings.TrimSpace(r.Category),
	}
	if part.Description == "" {
		part.Description = "Item " + string(r.ItemID)
	}
	if r.Image != nil {
		part.ImageURL = strings.TrimSpace(*r.Image)
	}
	if r.TrayID != nil {
		part.TrayID = strings.TrimSpace(*r.TrayID)
	}
	if r.StationID != nil {
		part.StationID = domain.StationID(strings.TrimSpace(*r.StationID))
	}
	return part, nil
}

type categoryRecord struct {
	Categories []string `json:"item_category_list"`
}

// decodeRecords validates each record on its own. Malformed records are
// logged and dropped so one bad row does not hide the rest of the feed.
func decodeRecords[R any, T any](logger *slog.Logger, kind string, raw []json.RawMessage, convert func(R) (T, error)) []T {
	out := make([]T, 0, len(raw))
	for i, message := range raw {
		var record R
		if err := json.Unmarshal(message, &record); err != nil {
			logger.Warn("dropping malformed record", "kind", kind, "index", i, "error", err)
			continue
		}
		value, err := convert(record)
		if err != nil {
			logger.Warn("dropping invalid record", "kind", kind, "index", i, "error", err)
			continue
		}
		out = append(out, value)
	}
	return out
}
