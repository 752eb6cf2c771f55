package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

const settlePollInterval = 5 * time.Millisecond

type Options struct {
	Clock    ports.Clock
	Notifier ports.Notifier
	History  ports.OperationHistoryRepository
	Logger   *slog.Logger
	// AfterAction runs on the coordinator loop after an operation completes
	// successfully, typically to request a feed refresh.
	AfterAction func()
}

type RetrievalResult struct {
	Operation *domain.RobotOperation
	Queued    *domain.QueuedPart
}

type BatchResult struct {
	Operations []domain.RobotOperation
	Queued     []domain.QueuedPart
	Rejected   []domain.PartID
}

type Snapshot struct {
	Robot          domain.RobotStatus
	Stations       []domain.Station
	Queue          []domain.QueuedPart
	Operations     []domain.RobotOperation
	AvailableParts int
	TotalParts     int
	InFlight       int
	LastSync       time.Time
}

// FeedSnapshot carries one poll result. A nil slice means the feed returned
// no data and leaves the matching local state untouched.
type FeedSnapshot struct {
	Parts    []domain.FeedPart
	Stations []domain.FeedStation
	At       time.Time
}

// Coordinator owns the storage ledger, station pool, retrieval queue and
// operation log. Every mutation runs on the goroutine started by Run; public
// methods post work to it and wait for the reply.
type Coordinator struct {
	ledger    *StorageLedger
	pool      *StationPool
	queue     *RetrievalQueue
	oplog     *OperationLog
	sequencer *Sequencer

	clock       ports.Clock
	notifier    ports.Notifier
	history     ports.OperationHistoryRepository
	logger      *slog.Logger
	afterAction func()

	inbox   chan func()
	drain   chan struct{}
	stopped chan struct{}
	running atomic.Bool
	opCtx   context.Context
	ops     sync.WaitGroup

	nextSeq  uint64
	active   int
	claimed  map[domain.PartID]domain.OperationID
	lastSync time.Time
}

func NewCoordinator(catalog domain.Catalog, robot ports.Robot, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Coordinator{
		ledger:      NewStorageLedger(catalog.Parts),
		pool:        NewStationPool(catalog.Stations),
		queue:       NewRetrievalQueue(),
		oplog:       NewOperationLog(),
		sequencer:   NewSequencer(robot),
		clock:       opts.Clock,
		notifier:    opts.Notifier,
		history:     opts.History,
		logger:      opts.Logger,
		afterAction: opts.AfterAction,
		inbox:       make(chan func(), 64),
		drain:       make(chan struct{}, 1),
		stopped:     make(chan struct{}),
		claimed:     map[domain.PartID]domain.OperationID{},
	}
}

// Run processes coordinator work until ctx is cancelled. Operations already
// handed to the robot finish on their own; their completions are dropped once
// the loop has stopped.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("coordinator already running")
	}
	c.opCtx = context.WithoutCancel(ctx)
	defer close(c.stopped)

	c.scheduleDrain()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-c.inbox:
			fn()
		case <-c.drain:
			c.drainOnce()
		}
	}
}

// Wait blocks until every dispatched robot operation has returned.
func (c *Coordinator) Wait() {
	c.ops.Wait()
}

func (c *Coordinator) RobotStatus() domain.RobotStatus {
	return c.sequencer.Status()
}

func (c *Coordinator) WatchRobot() <-chan domain.RobotStatus {
	return c.sequencer.Watch()
}

func (c *Coordinator) Retrieve(ctx context.Context, id domain.PartID) (RetrievalResult, error) {
	var (
		result RetrievalResult
		err    error
	)
	if doErr := c.do(ctx, func() {
		result, err = c.retrieve(id)
	}); doErr != nil {
		return RetrievalResult{}, doErr
	}
	return result, err
}

func (c *Coordinator) retrieve(id domain.PartID) (RetrievalResult, error) {
	part, ok := c.ledger.Part(id)
	if !ok {
		return RetrievalResult{}, fmt.Errorf("%w: %s", domain.ErrPartNotFound, id)
	}
	if !c.ledger.IsAvailable(id) {
		c.notify(domain.NotificationWarning, "Part Unavailable", "%s is not available in storage.", part.DisplayName())
		return RetrievalResult{}, fmt.Errorf("%w: %s", domain.ErrPartUnavailable, id)
	}

	station, ok := c.pool.GetFreeStation()
	if !ok {
		queued := c.enqueue([]domain.Part{part})
		c.notify(domain.NotificationInfo, "Added to Queue",
			"%s added to queue. Will be retrieved when a station becomes available.", part.DisplayName())
		return RetrievalResult{Queued: &queued[0]}, nil
	}

	op := c.dispatch(domain.OperationRetrieve, part, station)
	c.notify(domain.NotificationInfo, "Robot Operation Started", "Retrieving %s to %s...", part.DisplayName(), station.DisplayName())
	return RetrievalResult{Operation: &op}, nil
}

// RetrieveMany dispatches as many parts as there are free stations, in the
// submitted order, and queues the remainder.
func (c *Coordinator) RetrieveMany(ctx context.Context, ids []domain.PartID) (BatchResult, error) {
	var (
		result BatchResult
		err    error
	)
	if doErr := c.do(ctx, func() {
		result, err = c.retrieveMany(ids)
	}); doErr != nil {
		return BatchResult{}, doErr
	}
	return result, err
}

func (c *Coordinator) retrieveMany(ids []domain.PartID) (BatchResult, error) {
	var result BatchResult

	seen := make(map[domain.PartID]struct{}, len(ids))
	available := make([]domain.Part, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		part, ok := c.ledger.Part(id)
		if !ok || !c.ledger.IsAvailable(id) {
			result.Rejected = append(result.Rejected, id)
			continue
		}
		available = append(available, part)
	}

	if len(available) == 0 {
		c.notify(domain.NotificationError, "No Parts Available", "None of the selected parts are available in storage.")
		return result, domain.ErrNoPartsAvailable
	}

	free := c.pool.FreeStations()
	immediate := min(len(available), len(free))
	for i := 0; i < immediate; i++ {
		result.Operations = append(result.Operations, c.dispatch(domain.OperationRetrieve, available[i], free[i]))
	}

	if rest := available[immediate:]; len(rest) > 0 {
		result.Queued = c.enqueue(rest)
		c.notify(domain.NotificationInfo, "Parts Queued",
			"%d parts added to queue. %d parts will be retrieved immediately.", len(rest), immediate)
	}
	if immediate > 0 {
		c.notify(domain.NotificationInfo, "Multiple Operations Started", "Retrieving %d parts simultaneously...", immediate)
	}

	return result, nil
}

// Release returns the part held by a station to storage. Releasing a free
// station, or one with an operation already in flight, is a no-op.
func (c *Coordinator) Release(ctx context.Context, id domain.StationID) (*domain.RobotOperation, error) {
	var (
		op  *domain.RobotOperation
		err error
	)
	if doErr := c.do(ctx, func() {
		op, err = c.release(id)
	}); doErr != nil {
		return nil, doErr
	}
	return op, err
}

func (c *Coordinator) release(id domain.StationID) (*domain.RobotOperation, error) {
	station, ok := c.pool.Station(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStationNotFound, id)
	}
	if !station.Occupied || c.pool.Reserved(id) {
		return nil, nil
	}

	op := c.dispatch(domain.OperationRelease, *station.Part, station)
	c.notify(domain.NotificationInfo, "Robot Operation Started", "Releasing %s from %s...", station.Part.DisplayName(), station.DisplayName())
	return &op, nil
}

// ClearStations releases every occupied station. It is refused while the
// robot is busy.
func (c *Coordinator) ClearStations(ctx context.Context) ([]domain.RobotOperation, error) {
	var (
		ops []domain.RobotOperation
		err error
	)
	if doErr := c.do(ctx, func() {
		ops, err = c.clearStations()
	}); doErr != nil {
		return nil, doErr
	}
	return ops, err
}

func (c *Coordinator) clearStations() ([]domain.RobotOperation, error) {
	occupied := c.pool.ListOccupied()
	if len(occupied) == 0 {
		c.notify(domain.NotificationWarning, "No Stations to Clear", "All stations are already empty.")
		return nil, domain.ErrNoOccupiedStations
	}
	if c.active > 0 || c.sequencer.Status() != domain.RobotIdle {
		c.notify(domain.NotificationWarning, "Robot Busy", "Please wait for the current operation to complete.")
		return nil, domain.ErrRobotBusy
	}

	ops := make([]domain.RobotOperation, 0, len(occupied))
	for _, station := range occupied {
		ops = append(ops, c.dispatch(domain.OperationRelease, *station.Part, station))
	}
	c.notify(domain.NotificationInfo, "Clearing All Stations", "Clearing %d occupied stations...", len(ops))
	return ops, nil
}

// Withdraw removes a queued request before a drain claims it.
func (c *Coordinator) Withdraw(ctx context.Context, id domain.QueuedPartID) (domain.QueuedPart, error) {
	var (
		entry domain.QueuedPart
		err   error
	)
	if doErr := c.do(ctx, func() {
		var ok bool
		entry, ok = c.queue.Withdraw(id)
		if !ok {
			err = fmt.Errorf("%w: %s", domain.ErrQueuedPartNotFound, id)
			return
		}
		c.ledger.MarkAvailable(entry.Part.ID)
	}); doErr != nil {
		return domain.QueuedPart{}, doErr
	}
	return entry, err
}

func (c *Coordinator) AvailableParts(ctx context.Context, filter string) ([]domain.Part, error) {
	var parts []domain.Part
	err := c.do(ctx, func() {
		parts = c.ledger.ListAvailable(filter)
	})
	return parts, err
}

func (c *Coordinator) IsAvailable(ctx context.Context, id domain.PartID) (bool, error) {
	var available bool
	err := c.do(ctx, func() {
		available = c.ledger.IsAvailable(id)
	})
	return available, err
}

// Operations returns the complete operation history in creation order.
func (c *Coordinator) Operations(ctx context.Context) ([]domain.RobotOperation, error) {
	var ops []domain.RobotOperation
	err := c.do(ctx, func() {
		ops = c.oplog.All()
	})
	return ops, err
}

func (c *Coordinator) Snapshot(ctx context.Context) (Snapshot, error) {
	var snapshot Snapshot
	err := c.do(ctx, func() {
		snapshot = Snapshot{
			Robot:          c.sequencer.Status(),
			Stations:       c.pool.List(),
			Queue:          c.queue.List(),
			Operations:     c.oplog.Recent(RecentOperationsWindow),
			AvailableParts: len(c.ledger.ListAvailable("")),
			TotalParts:     c.ledger.Len(),
			InFlight:       c.active,
			LastSync:       c.lastSync,
		}
	})
	return snapshot, err
}

// Settle blocks until no operation is in flight and the queue cannot drain
// any further.
func (c *Coordinator) Settle(ctx context.Context) error {
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	for {
		var settled bool
		if err := c.do(ctx, func() {
			settled = c.active == 0 && len(c.drain) == 0 && !c.canDrain()
		}); err != nil {
			return err
		}
		if settled {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Coordinator) enqueue(parts []domain.Part) []domain.QueuedPart {
	for _, part := range parts {
		c.ledger.MarkUnavailable(part.ID)
	}
	queued := c.queue.EnqueueMany(parts, c.clock.Now())
	c.scheduleDrain()
	return queued
}

func (c *Coordinator) canDrain() bool {
	if c.queue.Len() == 0 {
		return false
	}
	_, ok := c.pool.GetFreeStation()
	return ok
}

func (c *Coordinator) scheduleDrain() {
	select {
	case c.drain <- struct{}{}:
	default:
	}
}

// drainOnce starts at most one dequeue-and-retrieve cycle, then asks to be
// re-evaluated so remaining free stations are picked up one at a time.
func (c *Coordinator) drainOnce() {
	if !c.canDrain() {
		return
	}

	station, _ := c.pool.GetFreeStation()
	head, _ := c.queue.Pop()
	c.dispatch(domain.OperationRetrieve, head.Part, station)
	c.notify(domain.NotificationInfo, "Processing Queue", "Retrieving %s from queue to %s...", head.Part.DisplayName(), station.DisplayName())

	c.scheduleDrain()
}

func (c *Coordinator) dispatch(kind domain.OperationType, part domain.Part, station domain.Station) domain.RobotOperation {
	c.nextSeq++
	now := c.clock.Now()
	op := domain.RobotOperation{
		ID:          domain.NewOperationID(c.nextSeq),
		Type:        kind,
		Part:        part,
		StationID:   station.ID,
		StationName: station.DisplayName(),
		Status:      domain.OperationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.pool.Reserve(station.ID); err != nil {
		c.logger.Error("station claimed twice", "station", station.ID, "operation", op.ID, "error", err)
		_ = op.Fail(err, now)
		c.oplog.Append(op)
		c.record(op)
		return op
	}

	if kind == domain.OperationRetrieve {
		c.ledger.MarkUnavailable(part.ID)
	}
	c.claimed[part.ID] = op.ID
	_ = op.Transition(domain.OperationInProgress, now)
	c.oplog.Append(op)
	c.active++

	c.logger.Info("robot operation dispatched", "operation", op.ID, "type", op.Type, "part", part.ID, "station", station.ID)

	c.ops.Add(1)
	go c.execute(op)
	return op
}

func (c *Coordinator) execute(op domain.RobotOperation) {
	defer c.ops.Done()

	err := c.sequencer.Execute(c.opCtx, op)
	if !c.post(func() { c.complete(op.ID, err) }) {
		c.logger.Warn("operation finished after coordinator stopped", "operation", op.ID, "error", err)
	}
}

func (c *Coordinator) complete(id domain.OperationID, execErr error) {
	op, ok := c.oplog.Get(id)
	if !ok {
		c.logger.Error("completion for unknown operation", "operation", id)
		return
	}

	c.active--
	delete(c.claimed, op.Part.ID)
	c.pool.Unreserve(op.StationID)

	err := execErr
	switch op.Type {
	case domain.OperationRetrieve:
		if err == nil {
			if occupyErr := c.pool.Occupy(op.StationID, op.Part); occupyErr != nil {
				c.logger.Error("station occupancy invariant violated", "operation", op.ID, "station", op.StationID, "error", occupyErr)
				err = occupyErr
			}
		}
		if err != nil {
			c.restoreAvailability(op.Part.ID)
		}
	case domain.OperationRelease:
		if err == nil {
			c.pool.Release(op.StationID)
			c.ledger.MarkAvailable(op.Part.ID)
		}
	}

	now := c.clock.Now()
	updated, updateErr := c.oplog.Update(id, func(o *domain.RobotOperation) error {
		if err != nil {
			return o.Fail(err, now)
		}
		return o.Transition(domain.OperationCompleted, now)
	})
	if updateErr != nil {
		c.logger.Error("update operation status", "operation", id, "error", updateErr)
	}
	c.record(updated)
	c.announce(updated, err)

	if err == nil && c.afterAction != nil {
		c.afterAction()
	}
	c.scheduleDrain()
}

func (c *Coordinator) restoreAvailability(id domain.PartID) {
	if c.pool.HoldsPart(id) || c.queue.Contains(id) {
		return
	}
	if _, inFlight := c.claimed[id]; inFlight {
		return
	}
	c.ledger.MarkAvailable(id)
}

func (c *Coordinator) announce(op domain.RobotOperation, err error) {
	name := op.Part.DisplayName()
	switch {
	case err == nil && op.Type == domain.OperationRetrieve:
		c.notify(domain.NotificationInfo, "Operation Complete", "%s placed in %s", name, op.StationName)
	case err == nil:
		c.notify(domain.NotificationInfo, "Operation Complete", "%s returned to storage", name)
	case errors.Is(err, domain.ErrRemoteConflict):
		c.notify(domain.NotificationWarning, "In Progress Elsewhere", "%s %s is already in progress elsewhere.", op.Type, name)
	default:
		c.notify(domain.NotificationError, "Operation Failed", "%s %s failed: %v", op.Type, name, err)
	}
}

func (c *Coordinator) record(op domain.RobotOperation) {
	if c.history == nil || !op.Status.Terminal() {
		return
	}
	if err := c.history.Append(c.opCtx, op); err != nil {
		c.logger.Warn("persist operation history", "operation", op.ID, "error", err)
	}
}

func (c *Coordinator) notify(level domain.NotificationLevel, title, format string, args ...any) {
	n := domain.Notification{
		Level:   level,
		Title:   title,
		Message: fmt.Sprintf(format, args...),
		At:      c.clock.Now(),
	}

	logLevel := slog.LevelInfo
	switch level {
	case domain.NotificationWarning:
		logLevel = slog.LevelWarn
	case domain.NotificationError:
		logLevel = slog.LevelError
	}
	c.logger.Log(context.Background(), logLevel, n.Title, "message", n.Message)

	if c.notifier != nil {
		c.notifier.Notify(n)
	}
}

// do runs fn on the coordinator loop and waits for it to return.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case c.inbox <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return domain.ErrCoordinatorStopped
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return domain.ErrCoordinatorStopped
	}
}

func (c *Coordinator) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

// Sync folds one poll of the remote feeds into local state. Known parts take
// the feed's record. A part the feed reports in storage becomes available
// again unless a station, the queue or an in-flight operation holds it.
// Station occupancy follows the poll, except for stations claimed by an
// in-flight operation.
func (c *Coordinator) Sync(ctx context.Context, snapshot FeedSnapshot) error {
	return c.do(ctx, func() {
		c.sync(snapshot)
	})
}

func (c *Coordinator) sync(snapshot FeedSnapshot) {
	for _, record := range snapshot.Parts {
		placed := record.StationID != ""
		if c.ledger.Upsert(record.Part(), !placed) {
			c.logger.Debug("part discovered from feed", "part", record.ID, "tray", record.TrayID)
			continue
		}
		switch {
		case placed && c.ledger.IsAvailable(record.ID):
			c.ledger.MarkUnavailable(record.ID)
		case !placed && !c.ledger.IsAvailable(record.ID):
			c.restoreAvailability(record.ID)
		}
	}

	if snapshot.Stations != nil {
		polled := make([]domain.Station, 0, len(snapshot.Stations))
		for _, record := range snapshot.Stations {
			station := domain.Station{ID: record.ID, Name: record.Name}
			if record.TrayID != "" {
				part := c.partForTray(record.TrayID)
				station.Occupied = true
				station.Part = &part
			}
			polled = append(polled, station)
		}

		changes := c.pool.Reconcile(polled)
		for _, part := range changes.placed {
			c.ledger.MarkUnavailable(part.ID)
			if n := c.queue.RemovePart(part.ID); n > 0 {
				c.logger.Info("queued part placed by another client", "part", part.ID, "dropped", n)
			}
		}
		for _, part := range changes.removed {
			c.restoreAvailability(part.ID)
		}
		if len(changes.placed) > 0 || len(changes.removed) > 0 {
			c.logger.Debug("stations reconciled", "placed", len(changes.placed), "removed", len(changes.removed))
		}
	}

	if !snapshot.At.IsZero() {
		c.lastSync = snapshot.At
	}
	c.scheduleDrain()
}

func (c *Coordinator) partForTray(trayID string) domain.Part {
	if part, ok := c.ledger.PartByTray(trayID); ok {
		return part
	}
	return domain.Part{
		ID:     domain.PartID("tray:" + trayID),
		Name:   "Tray " + trayID,
		TrayID: trayID,
	}
}
