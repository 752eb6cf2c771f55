package application

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func partIDs(ids ...int) []domain.PartID {
	out := make([]domain.PartID, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.PartID(fmt.Sprintf("%d", id)))
	}
	return out
}

func snapshotOf(t *testing.T, c *Coordinator) Snapshot {
	t.Helper()
	snapshot, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	return snapshot
}

func eventually(t *testing.T, c *Coordinator, cond func(Snapshot) bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		snapshot, err := c.Snapshot(context.Background())
		return err == nil && cond(snapshot)
	}, 2*time.Second, 5*time.Millisecond)
}

func occupiedCount(snapshot Snapshot) int {
	n := 0
	for _, station := range snapshot.Stations {
		if station.Occupied {
			n++
		}
	}
	return n
}

func stationByID(snapshot Snapshot, id domain.StationID) domain.Station {
	for _, station := range snapshot.Stations {
		if station.ID == id {
			return station
		}
	}
	return domain.Station{}
}

func fillStations(t *testing.T, c *Coordinator, robot *gateRobot) {
	t.Helper()

	result, err := c.RetrieveMany(context.Background(), partIDs(1, 2, 3, 4, 5))
	require.NoError(t, err)
	require.Len(t, result.Operations, 5)
	for _, op := range robot.waitStarted(t, 5) {
		robot.finish(op.ID, nil)
	}
	eventually(t, c, func(s Snapshot) bool { return s.InFlight == 0 && occupiedCount(s) == 5 })
}

func TestCoordinatorRetrievePlacesPartAtFirstFreeStation(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	notifier := &recordingNotifier{}
	history := &inMemoryHistory{}
	c := startCoordinator(t, testCatalog(24), robot, Options{Notifier: notifier, History: history})

	result, err := c.Retrieve(context.Background(), "3")
	require.NoError(t, err)
	require.NotNil(t, result.Operation)
	assert.Nil(t, result.Queued)
	assert.Equal(t, domain.OperationID("op-000001"), result.Operation.ID)
	assert.Equal(t, domain.StationID("A"), result.Operation.StationID)
	assert.Equal(t, domain.OperationInProgress, result.Operation.Status)

	available, err := c.IsAvailable(context.Background(), "3")
	require.NoError(t, err)
	assert.False(t, available)
	assertDisjoint(t, c)

	started := robot.waitStarted(t, 1)
	robot.finish(started[0].ID, nil)
	settle(t, c)

	snapshot := snapshotOf(t, c)
	station := stationByID(snapshot, "A")
	require.True(t, station.Occupied)
	assert.Equal(t, domain.PartID("3"), station.Part.ID)
	assert.Equal(t, domain.RobotIdle, snapshot.Robot)
	require.Len(t, snapshot.Operations, 1)
	assert.Equal(t, domain.OperationCompleted, snapshot.Operations[0].Status)
	assert.Equal(t, 23, snapshot.AvailableParts)
	assert.Contains(t, notifier.titles(), "Operation Complete")
	assertDisjoint(t, c)

	persisted, err := history.List(context.Background())
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	assert.Equal(t, domain.OperationCompleted, persisted[0].Status)
}

func TestCoordinatorRetrieveQueuesWhenPoolIsFull(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	notifier := &recordingNotifier{}
	c := startCoordinator(t, testCatalog(24), robot, Options{Notifier: notifier})

	_, err := c.RetrieveMany(context.Background(), partIDs(1, 2, 3, 4, 5))
	require.NoError(t, err)
	robot.waitStarted(t, 5)

	result, err := c.Retrieve(context.Background(), "6")
	require.NoError(t, err)
	assert.Nil(t, result.Operation)
	require.NotNil(t, result.Queued)
	assert.Equal(t, domain.PartID("6"), result.Queued.Part.ID)

	ops, err := c.Operations(context.Background())
	require.NoError(t, err)
	assert.Len(t, ops, 5)

	snapshot := snapshotOf(t, c)
	require.Len(t, snapshot.Queue, 1)
	assert.Equal(t, result.Queued.ID, snapshot.Queue[0].ID)
	assert.Contains(t, notifier.titles(), "Added to Queue")
	assertDisjoint(t, c)
}

func TestCoordinatorReleaseDrainsQueueHeadOnce(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	c := startCoordinator(t, testCatalog(24), robot, Options{})
	fillStations(t, c, robot)

	_, err := c.RetrieveMany(context.Background(), partIDs(6, 7))
	require.NoError(t, err)

	releaseOp, err := c.Release(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, releaseOp)
	assert.Equal(t, domain.OperationRelease, releaseOp.Type)
	assert.Equal(t, domain.PartID("1"), releaseOp.Part.ID)

	started := robot.waitStarted(t, 1)
	require.Equal(t, releaseOp.ID, started[0].ID)
	robot.finish(releaseOp.ID, nil)

	drained := robot.waitStarted(t, 1)[0]
	assert.Equal(t, domain.OperationRetrieve, drained.Type)
	assert.Equal(t, domain.PartID("6"), drained.Part.ID)
	assert.Equal(t, domain.StationID("A"), drained.StationID)

	select {
	case extra := <-robot.started:
		t.Fatalf("unexpected extra operation %s for part %s", extra.ID, extra.Part.ID)
	case <-time.After(50 * time.Millisecond):
	}

	snapshot := snapshotOf(t, c)
	require.Len(t, snapshot.Queue, 1)
	assert.Equal(t, domain.PartID("7"), snapshot.Queue[0].Part.ID)

	available, err := c.IsAvailable(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, available)
	assertDisjoint(t, c)

	robot.finish(drained.ID, nil)
	eventually(t, c, func(s Snapshot) bool {
		a := stationByID(s, "A")
		return s.InFlight == 0 && a.Part != nil && a.Part.ID == "6"
	})
	assert.Len(t, snapshotOf(t, c).Queue, 1)
}

func TestCoordinatorRetrieveManySplitsImmediateAndQueued(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		requested int
		free      int
	}{
		{name: "fewer parts than stations", requested: 3, free: 5},
		{name: "more parts than stations", requested: 7, free: 5},
		{name: "partially occupied pool", requested: 4, free: 2},
		{name: "full pool", requested: 2, free: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := startCoordinatorWith(t, testCatalog(24), scriptedRobot{}, Options{}, nil)

			occupied := 5 - tc.free
			if occupied > 0 {
				ids := make([]int, 0, occupied)
				for i := 0; i < occupied; i++ {
					ids = append(ids, 20+i)
				}
				_, err := c.RetrieveMany(context.Background(), partIDs(ids...))
				require.NoError(t, err)
				settle(t, c)
			}

			requested := make([]int, 0, tc.requested)
			for i := 1; i <= tc.requested; i++ {
				requested = append(requested, i)
			}
			result, err := c.RetrieveMany(context.Background(), partIDs(requested...))
			require.NoError(t, err)

			immediate := min(tc.requested, tc.free)
			require.Len(t, result.Operations, immediate)
			require.Len(t, result.Queued, tc.requested-immediate)
			for i, op := range result.Operations {
				assert.Equal(t, domain.PartID(fmt.Sprintf("%d", i+1)), op.Part.ID)
			}
			for i, entry := range result.Queued {
				assert.Equal(t, domain.PartID(fmt.Sprintf("%d", immediate+i+1)), entry.Part.ID)
			}
			assertDisjoint(t, c)
		})
	}
}

func TestCoordinatorShowcaseScenario(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(24), scriptedRobot{}, Options{}, nil)

	result, err := c.RetrieveMany(context.Background(), partIDs(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	assert.Len(t, result.Operations, 5)
	require.Len(t, result.Queued, 1)
	assert.Equal(t, domain.PartID("6"), result.Queued[0].Part.ID)

	settle(t, c)

	snapshot := snapshotOf(t, c)
	assert.Equal(t, 5, occupiedCount(snapshot))
	assert.Len(t, snapshot.Queue, 1)
	assert.Equal(t, 18, snapshot.AvailableParts)
	assert.Equal(t, 24, snapshot.TotalParts)
	assert.Equal(t, domain.RobotIdle, snapshot.Robot)
	assertDisjoint(t, c)

	a := stationByID(snapshot, "A")
	require.NotNil(t, a.Part)
	require.Equal(t, domain.PartID("1"), a.Part.ID)

	releaseOp, err := c.Release(context.Background(), "A")
	require.NoError(t, err)
	require.NotNil(t, releaseOp)
	settle(t, c)

	snapshot = snapshotOf(t, c)
	a = stationByID(snapshot, "A")
	require.NotNil(t, a.Part, "the queued part drains into the freed station")
	assert.Equal(t, domain.PartID("6"), a.Part.ID)
	assert.Empty(t, snapshot.Queue)
	assert.Equal(t, 5, occupiedCount(snapshot))
	assert.Equal(t, 19, snapshot.AvailableParts)
	assert.Equal(t, domain.RobotIdle, snapshot.Robot)

	available, err := c.IsAvailable(context.Background(), "1")
	require.NoError(t, err)
	assert.True(t, available)
	assertDisjoint(t, c)
}

func TestCoordinatorRejectsUnavailableAndUnknownParts(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	notifier := &recordingNotifier{}
	c := startCoordinator(t, testCatalog(24), robot, Options{Notifier: notifier})

	_, err := c.Retrieve(context.Background(), "1")
	require.NoError(t, err)

	_, err = c.Retrieve(context.Background(), "1")
	require.ErrorIs(t, err, domain.ErrPartUnavailable)
	assert.Contains(t, notifier.titles(), "Part Unavailable")

	_, err = c.Retrieve(context.Background(), "404")
	require.ErrorIs(t, err, domain.ErrPartNotFound)

	result, err := c.RetrieveMany(context.Background(), partIDs(1, 404))
	require.ErrorIs(t, err, domain.ErrNoPartsAvailable)
	assert.Equal(t, partIDs(1, 404), result.Rejected)

	ops, err := c.Operations(context.Background())
	require.NoError(t, err)
	assert.Len(t, ops, 1)
	assert.Empty(t, snapshotOf(t, c).Queue)
	assertDisjoint(t, c)
}

func TestCoordinatorRetrieveManyIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(24), scriptedRobot{}, Options{}, nil)

	result, err := c.RetrieveMany(context.Background(), partIDs(2, 2, 3))
	require.NoError(t, err)
	assert.Len(t, result.Operations, 2)
	assert.Empty(t, result.Rejected)
	settle(t, c)
	assertDisjoint(t, c)
}

func TestCoordinatorReleaseNoOps(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	c := startCoordinator(t, testCatalog(24), robot, Options{})

	op, err := c.Release(context.Background(), "B")
	require.NoError(t, err)
	assert.Nil(t, op)

	_, err = c.Release(context.Background(), "Z")
	require.ErrorIs(t, err, domain.ErrStationNotFound)

	_, err = c.Retrieve(context.Background(), "1")
	require.NoError(t, err)
	robot.waitStarted(t, 1)

	op, err = c.Release(context.Background(), "A")
	require.NoError(t, err)
	assert.Nil(t, op, "a station with an operation in flight cannot be released")

	ops, err := c.Operations(context.Background())
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestCoordinatorRobotFailureRestoresPart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		title string
	}{
		{name: "transport failure", err: errors.New("gripper jammed"), title: "Operation Failed"},
		{name: "remote conflict", err: fmt.Errorf("retrieve tray: %w", domain.ErrRemoteConflict), title: "In Progress Elsewhere"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			notifier := &recordingNotifier{}
			robot := scriptedRobot{fail: map[domain.PartID]error{"1": tc.err}}
			c := startCoordinatorWith(t, testCatalog(24), robot, Options{Notifier: notifier}, nil)

			_, err := c.Retrieve(context.Background(), "1")
			require.NoError(t, err)
			settle(t, c)

			ops, err := c.Operations(context.Background())
			require.NoError(t, err)
			require.Len(t, ops, 1)
			assert.Equal(t, domain.OperationError, ops[0].Status)
			assert.Contains(t, ops[0].Error, tc.err.Error())

			available, err := c.IsAvailable(context.Background(), "1")
			require.NoError(t, err)
			assert.True(t, available)
			assert.Zero(t, occupiedCount(snapshotOf(t, c)))
			assert.Contains(t, notifier.titles(), tc.title)
			assertDisjoint(t, c)
		})
	}
}

func TestCoordinatorFailedDrainDoesNotBlockQueue(t *testing.T) {
	t.Parallel()

	robot := scriptedRobot{fail: map[domain.PartID]error{"6": errors.New("tray stuck")}}
	c := startCoordinatorWith(t, testCatalog(24), robot, Options{}, nil)

	_, err := c.RetrieveMany(context.Background(), partIDs(1, 2, 3, 4, 5, 6, 7))
	require.NoError(t, err)
	settle(t, c)

	_, err = c.Release(context.Background(), "A")
	require.NoError(t, err)
	settle(t, c)

	snapshot := snapshotOf(t, c)
	assert.Empty(t, snapshot.Queue)
	a := stationByID(snapshot, "A")
	require.NotNil(t, a.Part)
	assert.Equal(t, domain.PartID("7"), a.Part.ID)

	ops, err := c.Operations(context.Background())
	require.NoError(t, err)
	statusByPart := map[domain.PartID]domain.OperationStatus{}
	for _, op := range ops {
		if op.Type == domain.OperationRetrieve {
			statusByPart[op.Part.ID] = op.Status
		}
	}
	assert.Equal(t, domain.OperationError, statusByPart["6"])
	assert.Equal(t, domain.OperationCompleted, statusByPart["7"])

	available, err := c.IsAvailable(context.Background(), "6")
	require.NoError(t, err)
	assert.True(t, available)
	assertDisjoint(t, c)
}

func TestCoordinatorRobotIdleOnlyWhenNothingInFlight(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	c := startCoordinator(t, testCatalog(24), robot, Options{})

	_, err := c.RetrieveMany(context.Background(), partIDs(1, 2))
	require.NoError(t, err)
	started := robot.waitStarted(t, 2)
	assert.Equal(t, domain.RobotMoving, c.RobotStatus())

	robot.finish(started[0].ID, nil)
	eventually(t, c, func(s Snapshot) bool { return s.InFlight == 1 })
	assert.NotEqual(t, domain.RobotIdle, c.RobotStatus())

	robot.finish(started[1].ID, nil)
	eventually(t, c, func(s Snapshot) bool { return s.InFlight == 0 })
	assert.Equal(t, domain.RobotIdle, c.RobotStatus())
}

func TestCoordinatorClearStations(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	notifier := &recordingNotifier{}
	c := startCoordinator(t, testCatalog(24), robot, Options{Notifier: notifier})

	_, err := c.ClearStations(context.Background())
	require.ErrorIs(t, err, domain.ErrNoOccupiedStations)

	_, err = c.RetrieveMany(context.Background(), partIDs(1, 2))
	require.NoError(t, err)
	started := robot.waitStarted(t, 2)
	robot.finish(started[0].ID, nil)
	eventually(t, c, func(s Snapshot) bool { return occupiedCount(s) == 1 })

	_, err = c.ClearStations(context.Background())
	require.ErrorIs(t, err, domain.ErrRobotBusy)
	assert.Contains(t, notifier.titles(), "Robot Busy")

	robot.finish(started[1].ID, nil)
	eventually(t, c, func(s Snapshot) bool { return s.InFlight == 0 && occupiedCount(s) == 2 })

	ops, err := c.ClearStations(context.Background())
	require.NoError(t, err)
	require.Len(t, ops, 2)
	for _, op := range robot.waitStarted(t, 2) {
		assert.Equal(t, domain.OperationRelease, op.Type)
		robot.finish(op.ID, nil)
	}

	settle(t, c)
	snapshot := snapshotOf(t, c)
	assert.Zero(t, occupiedCount(snapshot))
	assert.Equal(t, 24, snapshot.AvailableParts)
	assertDisjoint(t, c)
}

func TestCoordinatorWithdrawQueuedPart(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	c := startCoordinator(t, testCatalog(24), robot, Options{})
	fillStations(t, c, robot)

	result, err := c.Retrieve(context.Background(), "9")
	require.NoError(t, err)
	require.NotNil(t, result.Queued)

	entry, err := c.Withdraw(context.Background(), result.Queued.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PartID("9"), entry.Part.ID)

	available, err := c.IsAvailable(context.Background(), "9")
	require.NoError(t, err)
	assert.True(t, available)
	assert.Empty(t, snapshotOf(t, c).Queue)

	_, err = c.Withdraw(context.Background(), result.Queued.ID)
	require.ErrorIs(t, err, domain.ErrQueuedPartNotFound)
	assertDisjoint(t, c)
}

func TestCoordinatorSyncAddsPartsFromFeed(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(2), scriptedRobot{}, Options{}, nil)

	err := c.Sync(context.Background(), FeedSnapshot{
		Parts: []domain.FeedPart{
			{ID: "1", Description: "Renamed", TrayID: "T001"},
			{ID: "50", Description: "Hex Bolt", Category: "fasteners", TrayID: "T050"},
			{ID: "51", Description: "Spring", TrayID: "T051", StationID: "C"},
		},
		At: testNow,
	})
	require.NoError(t, err)

	parts, err := c.AvailableParts(context.Background(), "")
	require.NoError(t, err)
	ids := make([]domain.PartID, 0, len(parts))
	for _, part := range parts {
		ids = append(ids, part.ID)
	}
	assert.Equal(t, []domain.PartID{"1", "2", "50"}, ids)
	assert.Equal(t, "Renamed", parts[0].Name)

	filtered, err := c.AvailableParts(context.Background(), "FASTEN")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, domain.PartID("50"), filtered[0].ID)

	snapshot := snapshotOf(t, c)
	assert.Equal(t, 4, snapshot.TotalParts)
	assert.Equal(t, testNow, snapshot.LastSync)
}

func TestCoordinatorSyncReconcilesStations(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(24), scriptedRobot{}, Options{}, nil)

	_, err := c.RetrieveMany(context.Background(), partIDs(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	settle(t, c)

	err = c.Sync(context.Background(), FeedSnapshot{Stations: []domain.FeedStation{
		{ID: "A", Name: "Station A", TrayID: "T001"},
		{ID: "B", Name: "Station B", TrayID: "T002"},
		{ID: "C", Name: "Station C", TrayID: "T003"},
		{ID: "D", Name: "Station D", TrayID: "T004"},
		{ID: "E", Name: "Station E", TrayID: "T006"},
	}})
	require.NoError(t, err)
	settle(t, c)

	snapshot := snapshotOf(t, c)
	assert.Empty(t, snapshot.Queue, "a queued part placed elsewhere leaves the queue")
	e := stationByID(snapshot, "E")
	require.NotNil(t, e.Part)
	assert.Equal(t, domain.PartID("6"), e.Part.ID)

	available, err := c.IsAvailable(context.Background(), "5")
	require.NoError(t, err)
	assert.True(t, available)
	assertDisjoint(t, c)
}

func TestCoordinatorSyncKeepsReservedStations(t *testing.T) {
	t.Parallel()

	robot := newGateRobot()
	c := startCoordinator(t, testCatalog(24), robot, Options{})

	_, err := c.Retrieve(context.Background(), "1")
	require.NoError(t, err)
	started := robot.waitStarted(t, 1)

	err = c.Sync(context.Background(), FeedSnapshot{Stations: []domain.FeedStation{
		{ID: "A", Name: "Station A"},
		{ID: "B", Name: "Station B", TrayID: "ZZZ"},
		{ID: "C", Name: "Station C"},
	}})
	require.NoError(t, err)

	robot.finish(started[0].ID, nil)
	settle(t, c)

	snapshot := snapshotOf(t, c)
	require.Len(t, snapshot.Stations, 3)
	a := stationByID(snapshot, "A")
	require.NotNil(t, a.Part)
	assert.Equal(t, domain.PartID("1"), a.Part.ID)

	b := stationByID(snapshot, "B")
	require.True(t, b.Occupied)
	assert.Equal(t, domain.PartID("tray:ZZZ"), b.Part.ID)

	result, err := c.Retrieve(context.Background(), "2")
	require.NoError(t, err)
	require.NotNil(t, result.Operation)
	assert.Equal(t, domain.StationID("C"), result.Operation.StationID)
}

func TestCoordinatorAfterActionRunsOnSuccess(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	robot := scriptedRobot{fail: map[domain.PartID]error{"2": errors.New("offline")}}
	c := startCoordinatorWith(t, testCatalog(24), robot, Options{
		AfterAction: func() { calls.Add(1) },
	}, nil)

	_, err := c.RetrieveMany(context.Background(), partIDs(1, 2))
	require.NoError(t, err)
	settle(t, c)

	assert.Equal(t, int32(1), calls.Load())
}

func TestCoordinatorStopped(t *testing.T) {
	t.Parallel()

	c := NewCoordinator(testCatalog(3), scriptedRobot{}, Options{Clock: fixedClock{now: testNow}})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	_, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	require.Error(t, c.Run(context.Background()), "a second run is refused")

	cancel()
	require.NoError(t, <-done)

	_, err = c.Retrieve(context.Background(), "1")
	require.ErrorIs(t, err, domain.ErrCoordinatorStopped)
}
