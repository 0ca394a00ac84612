// Package tracker owns the airport board state and keeps it fresh by
// polling the flight backend on a fixed schedule and on demand.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/subham/airportboard/internal/flights"
)

// DefaultPollInterval is the automatic refresh period.
const DefaultPollInterval = time.Hour

// ErrAlreadyStarted is returned by Start on a running tracker.
var ErrAlreadyStarted = errors.New("tracker: already started")

// Fetcher retrieves one board snapshot.
type Fetcher interface {
	FetchFlights(ctx context.Context, airport string, limit int) (flights.Board, error)
}

// State holds a snapshot of the board for the UI to read.
type State struct {
	Departures  []flights.Flight
	Arrivals    []flights.Flight
	LastUpdated *time.Time
	Error       string
	Refreshing  bool
	Limit       int
}

// Options configures a Tracker.
type Options struct {
	Airport      string
	Limit        int
	PollInterval time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

// Tracker manages the fetch cycle for one airport.
type Tracker struct {
	client   Fetcher
	airport  string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	state     State
	inFlight  int
	issued    uint64
	applied   uint64
	listeners []func(State)

	runMu sync.Mutex
	cron  *cron.Cron
}

// New creates a Tracker. It does nothing until Start.
func New(client Fetcher, opts Options) *Tracker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		client:   client,
		airport:  opts.Airport,
		interval: opts.PollInterval,
		logger:   opts.Logger.With("component", "tracker"),
		now:      opts.Now,
		state: State{
			Departures: []flights.Flight{},
			Arrivals:   []flights.Flight{},
			Limit:      flights.NormalizeLimit(opts.Limit),
		},
	}
}

// Airport returns the monitored airport code.
func (t *Tracker) Airport() string { return t.airport }

// GetState returns a copy of the current state (thread-safe).
func (t *Tracker) GetState() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Subscribe registers fn to be called after every state change.
func (t *Tracker) Subscribe(fn func(State)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Limit returns the live result limit.
func (t *Tracker) Limit() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state.Limit
}

// SetLimit stores v as the live limit, coerced into the valid range.
// The automatic poll keeps the limit captured at Start.
func (t *Tracker) SetLimit(v int) int {
	return t.storeLimit(flights.NormalizeLimit(v))
}

// SetLimitText is SetLimit for raw user input.
func (t *Tracker) SetLimitText(s string) int {
	return t.storeLimit(flights.ParseLimit(s))
}

func (t *Tracker) storeLimit(v int) int {
	t.mu.Lock()
	t.state.Limit = v
	snap := t.state
	t.mu.Unlock()
	t.notify(snap)
	return v
}

// Start performs the initial fetch and schedules the recurring one. The
// schedule always uses the limit in effect at this call.
func (t *Tracker) Start(ctx context.Context) error {
	t.runMu.Lock()
	if t.cron != nil {
		t.runMu.Unlock()
		return ErrAlreadyStarted
	}

	limit := t.Limit()
	cl := cronLogger{log: t.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl)))
	c.Schedule(cron.Every(t.interval), cron.FuncJob(func() {
		t.fetch(ctx, limit, "timer")
	}))
	c.Start()
	t.cron = c
	t.runMu.Unlock()

	t.logger.Info("polling started", "airport", t.airport, "interval", t.interval, "limit", limit)
	t.fetch(ctx, limit, "initial")
	return nil
}

// Stop cancels the recurring fetch. Requests already in flight still
// complete and are applied.
func (t *Tracker) Stop() {
	t.runMu.Lock()
	defer t.runMu.Unlock()
	if t.cron == nil {
		return
	}
	t.cron.Stop()
	t.cron = nil
	t.logger.Info("polling stopped", "airport", t.airport)
}

// Refresh fetches now with the live limit.
func (t *Tracker) Refresh(ctx context.Context) error {
	return t.fetch(ctx, t.Limit(), "manual")
}

// RefreshWithLimit fetches now with an explicit limit, coerced into range.
func (t *Tracker) RefreshWithLimit(ctx context.Context, limit int) error {
	return t.fetch(ctx, flights.NormalizeLimit(limit), "manual")
}

// fetch runs one request and applies its result unless a request issued
// later has already been applied.
func (t *Tracker) fetch(ctx context.Context, limit int, trigger string) error {
	t.mu.Lock()
	t.issued++
	seq := t.issued
	t.inFlight++
	t.state.Refreshing = true
	snap := t.state
	t.mu.Unlock()
	t.notify(snap)

	completed := false
	defer func() {
		if completed {
			return
		}
		// The fetcher panicked; keep the in-flight count honest.
		t.mu.Lock()
		t.inFlight--
		t.state.Refreshing = t.inFlight > 0
		snap := t.state
		t.mu.Unlock()
		t.notify(snap)
	}()
	board, err := t.client.FetchFlights(ctx, t.airport, limit)
	completed = true

	t.mu.Lock()
	t.inFlight--
	t.state.Refreshing = t.inFlight > 0
	stale := seq < t.applied
	if !stale {
		t.applied = seq
		if err != nil {
			t.state.Error = errorMessage(err)
		} else {
			now := t.now()
			t.state.Departures = board.Departures
			t.state.Arrivals = board.Arrivals
			t.state.LastUpdated = &now
			t.state.Error = ""
		}
	}
	snap = t.state
	t.mu.Unlock()
	t.notify(snap)

	switch {
	case stale:
		t.logger.Debug("discarding stale response", "trigger", trigger, "seq", seq)
	case err != nil:
		var fe *flights.FetchError
		if errors.As(err, &fe) {
			t.logger.Warn("fetch failed", "trigger", trigger, "limit", limit, "cause", fe.Detail())
		} else {
			t.logger.Warn("fetch failed", "trigger", trigger, "limit", limit, "error", err)
		}
	default:
		t.logger.Info("board updated", "trigger", trigger, "limit", limit,
			"departures", len(board.Departures), "arrivals", len(board.Arrivals))
	}

	if err != nil {
		return fmt.Errorf("fetching %s board: %w", t.airport, err)
	}
	return nil
}

func (t *Tracker) notify(s State) {
	t.mu.RLock()
	ls := make([]func(State), len(t.listeners))
	copy(ls, t.listeners)
	t.mu.RUnlock()
	for _, fn := range ls {
		fn(s)
	}
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Failed to load data."
}

// cronLogger routes cron's own messages, including recovered job panics,
// to slog.
type cronLogger struct{ log *slog.Logger }

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	args := append([]any{"error", err}, keysAndValues...)
	l.log.Error("cron: "+msg, args...)
}
