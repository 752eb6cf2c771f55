package robot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

const defaultActionTimeout = 15 * time.Second

// Timings is the wall-clock duration of each robot phase.
type Timings struct {
	Move  time.Duration
	Pick  time.Duration
	Place time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		Move:  1000 * time.Millisecond,
		Pick:  1500 * time.Millisecond,
		Place: 1500 * time.Millisecond,
	}
}

func (t Timings) For(phase domain.RobotPhase) time.Duration {
	switch phase {
	case domain.RobotMoving:
		return t.Move
	case domain.RobotPicking:
		return t.Pick
	case domain.RobotPlacing:
		return t.Place
	default:
		return 0
	}
}

// Simulated waits out each phase without touching any hardware.
type Simulated struct {
	timings Timings
}

var _ ports.Robot = (*Simulated)(nil)

func NewSimulated(timings Timings) *Simulated {
	return &Simulated{timings: timings}
}

func (s *Simulated) Perform(ctx context.Context, _ domain.RobotOperation, phase domain.RobotPhase) error {
	return wait(ctx, s.timings.For(phase))
}

// Remote drives the storage API. The tray action is issued during the moving
// phase; later phases are paced locally so the status labels stay meaningful.
type Remote struct {
	actions       ports.TrayActions
	checker       ports.AvailabilityChecker
	pacing        Timings
	actionTimeout time.Duration
	logger        *slog.Logger
}

var _ ports.Robot = (*Remote)(nil)

type RemoteOption func(*Remote)

func WithAvailabilityChecker(checker ports.AvailabilityChecker) RemoteOption {
	return func(r *Remote) {
		r.checker = checker
	}
}

func WithPacing(pacing Timings) RemoteOption {
	return func(r *Remote) {
		r.pacing = pacing
	}
}

func WithActionTimeout(timeout time.Duration) RemoteOption {
	return func(r *Remote) {
		if timeout > 0 {
			r.actionTimeout = timeout
		}
	}
}

func WithLogger(logger *slog.Logger) RemoteOption {
	return func(r *Remote) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRemote(actions ports.TrayActions, opts ...RemoteOption) *Remote {
	remote := &Remote{
		actions:       actions,
		pacing:        DefaultTimings(),
		actionTimeout: defaultActionTimeout,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(remote)
	}
	return remote
}

func (r *Remote) Perform(ctx context.Context, op domain.RobotOperation, phase domain.RobotPhase) error {
	if phase == domain.RobotMoving {
		if err := r.dispatch(ctx, op); err != nil {
			return err
		}
	}
	return wait(ctx, r.pacing.For(phase))
}

func (r *Remote) dispatch(ctx context.Context, op domain.RobotOperation) error {
	trayID := op.Part.TrayID
	if trayID == "" {
		return fmt.Errorf("%w: part %s", domain.ErrNoTray, op.Part.ID)
	}

	actionCtx, cancel := context.WithTimeout(ctx, r.actionTimeout)
	defer cancel()

	switch op.Type {
	case domain.OperationRetrieve:
		if err := r.checkAvailable(actionCtx, trayID); err != nil {
			return err
		}
		return r.actions.RetrieveTray(actionCtx, trayID)
	case domain.OperationRelease:
		return r.actions.ReleaseTray(actionCtx, trayID)
	default:
		return fmt.Errorf("unsupported operation type %q", op.Type)
	}
}

// checkAvailable is advisory: a failed check lets the retrieval proceed.
func (r *Remote) checkAvailable(ctx context.Context, trayID string) error {
	if r.checker == nil {
		return nil
	}

	availability, err := r.checker.CheckTray(ctx, trayID)
	if err != nil {
		r.logger.Warn("tray availability check failed, proceeding", "tray", trayID, "error", err)
		return nil
	}
	if !availability.Available {
		return fmt.Errorf("%w: tray %s is already at %s", domain.ErrRemoteConflict, trayID, availability.StationName)
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
