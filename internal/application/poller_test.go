package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFeed struct {
	parts      []domain.FeedPart
	stations   []domain.FeedStation
	partsErr   error
	stationErr error
	polls      atomic.Int32
}

func (f *stubFeed) FetchParts(context.Context, string) ([]domain.FeedPart, error) {
	f.polls.Add(1)
	return f.parts, f.partsErr
}

func (f *stubFeed) FetchCategories(context.Context) ([]string, error) {
	return nil, nil
}

func (f *stubFeed) FetchStations(context.Context) ([]domain.FeedStation, error) {
	return f.stations, f.stationErr
}

func TestPollerPollOnceAppliesStationsWhenPartsFail(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(3), scriptedRobot{}, Options{}, nil)
	feed := &stubFeed{
		partsErr: errors.New("connection refused"),
		stations: []domain.FeedStation{
			{ID: "A", Name: "Station A", TrayID: "T002"},
			{ID: "B", Name: "Station B"},
		},
	}
	poller := NewPoller(c, feed, feed, time.Hour, nil)

	require.NoError(t, poller.PollOnce(context.Background()))

	snapshot := snapshotOf(t, c)
	require.Len(t, snapshot.Stations, 2)
	require.NotNil(t, snapshot.Stations[0].Part)
	assert.Equal(t, domain.PartID("2"), snapshot.Stations[0].Part.ID)
	assert.Equal(t, 2, snapshot.AvailableParts)
	assert.Equal(t, testNow, snapshot.LastSync)
}

func TestPollerPollOnceLeavesStateWhenFeedsFail(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(3), scriptedRobot{}, Options{}, nil)
	feed := &stubFeed{partsErr: errors.New("timeout"), stationErr: errors.New("timeout")}
	poller := NewPoller(c, feed, feed, time.Hour, nil)

	require.NoError(t, poller.PollOnce(context.Background()))

	snapshot := snapshotOf(t, c)
	assert.Len(t, snapshot.Stations, 5)
	assert.True(t, snapshot.LastSync.IsZero())
}

func TestPollerRefreshTriggersPoll(t *testing.T) {
	t.Parallel()

	c := startCoordinatorWith(t, testCatalog(3), scriptedRobot{}, Options{}, nil)
	feed := &stubFeed{parts: []domain.FeedPart{{ID: "9", Description: "Valve", TrayID: "T009"}}}
	poller := NewPoller(c, feed, nil, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = poller.Run(ctx)
	}()

	require.Eventually(t, func() bool { return feed.polls.Load() == 1 }, time.Second, 5*time.Millisecond)
	poller.Refresh()
	require.Eventually(t, func() bool { return feed.polls.Load() == 2 }, time.Second, 5*time.Millisecond)

	available, err := c.IsAvailable(context.Background(), "9")
	require.NoError(t, err)
	assert.True(t, available)
}
