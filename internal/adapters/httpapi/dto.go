package httpapi

import (
	"time"

	"github.com/bnema/warehouse-showcase/internal/adapters/notify"
	"github.com/bnema/warehouse-showcase/internal/application"
	"github.com/bnema/warehouse-showcase/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}

type retrieveRequest struct {
	PartIDs []string `json:"part_ids"`
}

type partDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	TrayID      string `json:"tray_id,omitempty"`
}

type positionDTO struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type stationDTO struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Occupied bool         `json:"occupied"`
	Part     *partDTO     `json:"part,omitempty"`
	Position *positionDTO `json:"position,omitempty"`
}

type operationDTO struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Part        partDTO   `json:"part"`
	StationID   string    `json:"station_id"`
	StationName string    `json:"station_name"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type queuedPartDTO struct {
	ID         string    `json:"id"`
	Part       partDTO   `json:"part"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type stateDTO struct {
	Robot          string          `json:"robot_status"`
	Stations       []stationDTO    `json:"stations"`
	Queue          []queuedPartDTO `json:"queue"`
	Operations     []operationDTO  `json:"operations"`
	AvailableParts int             `json:"available_parts"`
	TotalParts     int             `json:"total_parts"`
	InFlight       int             `json:"in_flight"`
	LastSync       *time.Time      `json:"last_sync,omitempty"`
}

type retrievalDTO struct {
	Operations []operationDTO  `json:"operations"`
	Queued     []queuedPartDTO `json:"queued"`
	Rejected   []string        `json:"rejected,omitempty"`
}

type notificationDTO struct {
	Seq     uint64    `json:"seq"`
	Level   string    `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

func toPartDTO(part domain.Part) partDTO {
	return partDTO{
		ID:          string(part.ID),
		Name:        part.Name,
		Category:    part.Category,
		Description: part.Description,
		ImageURL:    part.ImageURL,
		TrayID:      part.TrayID,
	}
}

func toPartDTOs(parts []domain.Part) []partDTO {
	out := make([]partDTO, 0, len(parts))
	for _, part := range parts {
		out = append(out, toPartDTO(part))
	}
	return out
}

func toStationDTO(station domain.Station) stationDTO {
	dto := stationDTO{ID: string(station.ID), Name: station.DisplayName(), Occupied: station.Occupied}
	if station.Part != nil {
		part := toPartDTO(*station.Part)
		dto.Part = &part
	}
	if station.Position != nil {
		dto.Position = &positionDTO{X: station.Position.X, Y: station.Position.Y}
	}
	return dto
}

func toOperationDTO(op domain.RobotOperation) operationDTO {
	return operationDTO{
		ID:          string(op.ID),
		Type:        string(op.Type),
		Part:        toPartDTO(op.Part),
		StationID:   string(op.StationID),
		StationName: op.StationName,
		Status:      string(op.Status),
		Error:       op.Error,
		CreatedAt:   op.CreatedAt,
		UpdatedAt:   op.UpdatedAt,
	}
}

func toOperationDTOs(ops []domain.RobotOperation) []operationDTO {
	out := make([]operationDTO, 0, len(ops))
	for _, op := range ops {
		out = append(out, toOperationDTO(op))
	}
	return out
}

func toQueuedDTOs(entries []domain.QueuedPart) []queuedPartDTO {
	out := make([]queuedPartDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, queuedPartDTO{ID: string(entry.ID), Part: toPartDTO(entry.Part), EnqueuedAt: entry.EnqueuedAt})
	}
	return out
}

func toStateDTO(snapshot application.Snapshot) stateDTO {
	stations := make([]stationDTO, 0, len(snapshot.Stations))
	for _, station := range snapshot.Stations {
		stations = append(stations, toStationDTO(station))
	}

	state := stateDTO{
		Robot:          string(snapshot.Robot),
		Stations:       stations,
		Queue:          toQueuedDTOs(snapshot.Queue),
		Operations:     toOperationDTOs(snapshot.Operations),
		AvailableParts: snapshot.AvailableParts,
		TotalParts:     snapshot.TotalParts,
		InFlight:       snapshot.InFlight,
	}
	if !snapshot.LastSync.IsZero() {
		lastSync := snapshot.LastSync
		state.LastSync = &lastSync
	}
	return state
}

func toNotificationDTOs(entries []notify.Entry) []notificationDTO {
	out := make([]notificationDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, notificationDTO{
			Seq:     entry.Seq,
			Level:   string(entry.Level),
			Title:   entry.Title,
			Message: entry.Message,
			At:      entry.At,
		})
	}
	return out
}
