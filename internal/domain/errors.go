package domain

import "errors"

var (
	ErrPartNotFound       = errors.New("part not found")
	ErrPartUnavailable    = errors.New("part is not available in storage")
	ErrNoPartsAvailable   = errors.New("none of the selected parts are available")
	ErrStationNotFound    = errors.New("station not found")
	ErrStationOccupied    = errors.New("station is already occupied")
	ErrNoOccupiedStations = errors.New("all stations are already empty")
	ErrRobotBusy          = errors.New("robot is busy")
	ErrOperationFinished  = errors.New("operation already finished")
	ErrQueuedPartNotFound = errors.New("queued part not found")
	ErrNoTray             = errors.New("part has no tray assigned")
	ErrRemoteConflict     = errors.New("operation in progress elsewhere")
	ErrUnauthorized       = errors.New("remote api rejected credentials")
	ErrCoordinatorStopped = errors.New("coordinator is not running")
	ErrNoToken            = errors.New("no api token stored")
)
