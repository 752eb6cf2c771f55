package ports

import (
	"context"

	"github.com/bnema/warehouse-showcase/internal/domain"
)

type TrayActions interface {
	RetrieveTray(ctx context.Context, trayID string) error
	ReleaseTray(ctx context.Context, trayID string) error
}

// AvailabilityChecker is advisory: callers treat a failed check as available.
type AvailabilityChecker interface {
	CheckTray(ctx context.Context, trayID string) (domain.TrayAvailability, error)
}

// Robot performs one phase of an operation and returns once the phase has
// completed, failed or timed out.
type Robot interface {
	Perform(ctx context.Context, op domain.RobotOperation, phase domain.RobotPhase) error
}
