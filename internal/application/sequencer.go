package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

// Sequencer runs robot operations phase by phase and derives the coarse robot
// status from the set of in-flight operations.
type Sequencer struct {
	robot ports.Robot

	mu       sync.Mutex
	inFlight map[domain.OperationID]struct{}
	status   domain.RobotStatus
	watchers []chan domain.RobotStatus
}

func NewSequencer(robot ports.Robot) *Sequencer {
	return &Sequencer{
		robot:    robot,
		inFlight: map[domain.OperationID]struct{}{},
		status:   domain.RobotIdle,
	}
}

// Execute blocks until every phase of op has completed or one has failed.
// The operation leaves the in-flight set either way.
func (s *Sequencer) Execute(ctx context.Context, op domain.RobotOperation) error {
	phases := domain.PhasesFor(op.Type)
	if len(phases) == 0 {
		return fmt.Errorf("unsupported operation type %q", op.Type)
	}

	s.enter(op.ID)
	defer s.exit(op.ID)

	for _, phase := range phases {
		s.setStatus(phase)
		if err := s.robot.Perform(ctx, op, phase); err != nil {
			return fmt.Errorf("%s phase %s: %w", op.Type, phase, err)
		}
	}

	return nil
}

func (s *Sequencer) Status() domain.RobotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Sequencer) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}

// Watch returns a channel receiving every status change. Slow readers miss
// intermediate labels rather than blocking the robot.
func (s *Sequencer) Watch() <-chan domain.RobotStatus {
	ch := make(chan domain.RobotStatus, 8)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Sequencer) enter(id domain.OperationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[id] = struct{}{}
}

func (s *Sequencer) exit(id domain.OperationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, id)
	if len(s.inFlight) == 0 {
		s.publishLocked(domain.RobotIdle)
	}
}

func (s *Sequencer) setStatus(status domain.RobotStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked(status)
}

func (s *Sequencer) publishLocked(status domain.RobotStatus) {
	if s.status == status {
		return
	}
	s.status = status
	for _, ch := range s.watchers {
		select {
		case ch <- status:
		default:
		}
	}
}
