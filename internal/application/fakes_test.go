package application

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testCatalog(partCount int) domain.Catalog {
	parts := make([]domain.Part, 0, partCount)
	for i := 1; i <= partCount; i++ {
		parts = append(parts, domain.Part{
			ID:       domain.PartID(fmt.Sprintf("%d", i)),
			Name:     fmt.Sprintf("Part %d", i),
			Category: "mechanical",
			TrayID:   fmt.Sprintf("T%03d", i),
		})
	}

	stations := make([]domain.Station, 0, 5)
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		stations = append(stations, domain.Station{ID: domain.StationID(id), Name: "Station " + id})
	}

	return domain.Catalog{Parts: parts, Stations: stations}
}

// gateRobot holds every operation in its moving phase until the test lets it
// finish, so tests control exactly when stations free up.
type gateRobot struct {
	mu      sync.Mutex
	gates   map[domain.OperationID]chan error
	started chan domain.RobotOperation
}

func newGateRobot() *gateRobot {
	return &gateRobot{
		gates:   map[domain.OperationID]chan error{},
		started: make(chan domain.RobotOperation, 64),
	}
}

func (r *gateRobot) Perform(ctx context.Context, op domain.RobotOperation, phase domain.RobotPhase) error {
	if phase != domain.RobotMoving {
		return nil
	}
	r.started <- op

	select {
	case err := <-r.gate(op.ID):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *gateRobot) gate(id domain.OperationID) chan error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.gates[id]
	if !ok {
		g = make(chan error, 1)
		r.gates[id] = g
	}
	return g
}

func (r *gateRobot) finish(id domain.OperationID, err error) {
	r.gate(id) <- err
}

func (r *gateRobot) releaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range r.gates {
		select {
		case g <- nil:
		default:
		}
	}
}

func (r *gateRobot) waitStarted(t *testing.T, n int) []domain.RobotOperation {
	t.Helper()

	ops := make([]domain.RobotOperation, 0, n)
	timeout := time.After(2 * time.Second)
	for len(ops) < n {
		select {
		case op := <-r.started:
			ops = append(ops, op)
		case <-timeout:
			require.FailNowf(t, "robot operations did not start", "want %d, got %d", n, len(ops))
		}
	}
	return ops
}

// scriptedRobot completes immediately, failing the parts listed in fail.
type scriptedRobot struct {
	fail map[domain.PartID]error
}

func (r scriptedRobot) Perform(_ context.Context, op domain.RobotOperation, phase domain.RobotPhase) error {
	if phase == domain.RobotMoving {
		if err, ok := r.fail[op.Part.ID]; ok {
			return err
		}
	}
	return nil
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (n *recordingNotifier) Notify(notification domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *recordingNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	titles := make([]string, 0, len(n.notifications))
	for _, notification := range n.notifications {
		titles = append(titles, notification.Title)
	}
	return titles
}

type inMemoryHistory struct {
	mu  sync.Mutex
	ops []domain.RobotOperation
}

func (h *inMemoryHistory) Append(_ context.Context, op domain.RobotOperation) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ops = append(h.ops, op)
	return nil
}

func (h *inMemoryHistory) List(context.Context) ([]domain.RobotOperation, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.RobotOperation(nil), h.ops...), nil
}

func startCoordinator(t *testing.T, catalog domain.Catalog, robot *gateRobot, opts Options) *Coordinator {
	t.Helper()
	return startCoordinatorWith(t, catalog, robot, opts, robot.releaseAll)
}

func startCoordinatorWith(t *testing.T, catalog domain.Catalog, robot interface {
	Perform(context.Context, domain.RobotOperation, domain.RobotPhase) error
}, opts Options, cleanup func()) *Coordinator {
	t.Helper()

	if opts.Clock == nil {
		opts.Clock = fixedClock{now: testNow}
	}
	c := NewCoordinator(catalog, robot, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		if cleanup != nil {
			cleanup()
		}
		cancel()
	})
	return c
}

func settle(t *testing.T, c *Coordinator) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Settle(ctx))
}

// assertDisjoint checks that every known part is in exactly one place:
// available, at or claimed for a station, or queued.
func assertDisjoint(t *testing.T, c *Coordinator) {
	t.Helper()

	var violations []string
	require.NoError(t, c.do(context.Background(), func() {
		for _, id := range c.ledger.order {
			places := 0
			if c.ledger.IsAvailable(id) {
				places++
			}
			_, claimed := c.claimed[id]
			if c.pool.HoldsPart(id) || claimed {
				places++
			}
			if c.queue.Contains(id) {
				places++
			}
			if places != 1 {
				violations = append(violations, fmt.Sprintf("part %s is in %d places", id, places))
			}
		}
	}))
	require.Empty(t, violations)
}
