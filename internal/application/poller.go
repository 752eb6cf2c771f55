package application

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/bnema/warehouse-showcase/internal/ports"
)

const DefaultPollInterval = 3 * time.Second

// Poller pulls the remote feeds on a fixed interval and on demand, and hands
// each result to the coordinator. A failed fetch is treated as no data.
type Poller struct {
	coordinator *Coordinator
	parts       ports.PartsFeed
	stations    ports.StationsFeed
	clock       ports.Clock
	logger      *slog.Logger
	interval    time.Duration
	refresh     chan struct{}
}

func NewPoller(coordinator *Coordinator, parts ports.PartsFeed, stations ports.StationsFeed, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Poller{
		coordinator: coordinator,
		parts:       parts,
		stations:    stations,
		clock:       coordinator.clock,
		logger:      logger,
		interval:    interval,
		refresh:     make(chan struct{}, 1),
	}
}

// Refresh requests an out-of-band poll. Requests made while one is pending
// are coalesced.
func (p *Poller) Refresh() {
	select {
	case p.refresh <- struct{}{}:
	default:
	}
}

func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			p.logger.Warn("apply feed snapshot", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-p.refresh:
		}
	}
}

func (p *Poller) PollOnce(ctx context.Context) error {
	snapshot := FeedSnapshot{At: p.clock.Now()}

	if p.parts != nil {
		parts, err := p.parts.FetchParts(ctx, "")
		if err != nil {
			p.logger.Warn("fetch parts feed", "error", err)
		} else {
			snapshot.Parts = parts
		}
	}

	if p.stations != nil {
		stations, err := p.stations.FetchStations(ctx)
		if err != nil {
			p.logger.Warn("fetch stations feed", "error", err)
		} else {
			snapshot.Stations = stations
		}
	}

	if snapshot.Parts == nil && snapshot.Stations == nil {
		return nil
	}
	return p.coordinator.Sync(ctx, snapshot)
}
