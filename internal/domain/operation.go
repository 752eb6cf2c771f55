package domain

import (
	"fmt"
	"time"
)

type OperationID string

type OperationType string

const (
	OperationRetrieve OperationType = "retrieve"
	OperationRelease  OperationType = "release"
)

type OperationStatus string

const (
	OperationPending    OperationStatus = "pending"
	OperationInProgress OperationStatus = "in-progress"
	OperationCompleted  OperationStatus = "completed"
	OperationError      OperationStatus = "error"
)

func (s OperationStatus) Terminal() bool {
	return s == OperationCompleted || s == OperationError
}

type RobotOperation struct {
	ID          OperationID
	Type        OperationType
	Part        Part
	StationID   StationID
	StationName string
	Status      OperationStatus
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewOperationID(seq uint64) OperationID {
	return OperationID(fmt.Sprintf("op-%06d", seq))
}

// Transition moves the operation along pending -> in-progress -> completed|error.
func (o *RobotOperation) Transition(to OperationStatus, at time.Time) error {
	if o.Status.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrOperationFinished, o.ID, o.Status)
	}

	allowed := false
	switch o.Status {
	case OperationPending:
		allowed = to == OperationInProgress || to == OperationError
	case OperationInProgress:
		allowed = to == OperationCompleted || to == OperationError
	}
	if !allowed {
		return fmt.Errorf("invalid operation transition %s -> %s", o.Status, to)
	}

	o.Status = to
	o.UpdatedAt = at
	return nil
}

// Fail marks the operation as errored and records the cause.
func (o *RobotOperation) Fail(cause error, at time.Time) error {
	if err := o.Transition(OperationError, at); err != nil {
		return err
	}
	if cause != nil {
		o.Error = cause.Error()
	}
	return nil
}
