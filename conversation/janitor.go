package conversation

import (
	"log/slog"
	"time"
)

const (
	// DefaultSweepInterval is how often the janitor runs.
	DefaultSweepInterval = 10 * time.Minute

	// DefaultIdleExpiry is how long a session may sit untouched before a
	// sweep removes it.
	DefaultIdleExpiry = 24 * time.Hour

	// DefaultMaxSessions bounds how many sessions survive a sweep.
	DefaultMaxSessions = 1000
)

// Janitor sweeps idle and excess sessions out of a Store on a fixed
// interval, off the request path.
type Janitor struct {
	store       *Store
	interval    time.Duration
	idleFor     time.Duration
	maxSessions int
	logger      *slog.Logger

	stop chan struct{}
	done chan struct{}
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor) error

// WithInterval sets how often the janitor sweeps.
func WithInterval(interval time.Duration) JanitorOption {
	return func(j *Janitor) error {
		if interval <= 0 {
			return ErrInvalidInterval
		}
		j.interval = interval
		return nil
	}
}

// WithIdleExpiry sets how long a session may idle before sweeps remove it.
// A non-positive value disables expiry.
func WithIdleExpiry(idleFor time.Duration) JanitorOption {
	return func(j *Janitor) error {
		j.idleFor = idleFor
		return nil
	}
}

// WithMaxSessions caps how many sessions survive a sweep. A value below one
// disables the cap.
func WithMaxSessions(max int) JanitorOption {
	return func(j *Janitor) error {
		j.maxSessions = max
		return nil
	}
}

// NewJanitor creates a stopped janitor for the store. Call Start to begin
// sweeping.
func NewJanitor(store *Store, opts ...JanitorOption) (*Janitor, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}

	j := &Janitor{
		store:       store,
		interval:    DefaultSweepInterval,
		idleFor:     DefaultIdleExpiry,
		maxSessions: DefaultMaxSessions,
		logger:      slog.Default().With("component", "janitor"),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(j); err != nil {
			return nil, err
		}
	}

	return j, nil
}

// Start launches the sweep loop. Starting a running janitor is a no-op.
func (j *Janitor) Start() {
	if j.stop != nil {
		return
	}
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	go j.run()

	j.logger.Info("janitor started",
		"interval", j.interval,
		"idleExpiry", j.idleFor,
		"maxSessions", j.maxSessions)
}

func (j *Janitor) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			j.RunOnce()
		case <-j.stop:
			return
		}
	}
}

// RunOnce sweeps expired sessions, then evicts down to the session cap.
func (j *Janitor) RunOnce() (expired, excess int) {
	expired = j.store.SweepExpired(j.idleFor)
	excess = j.store.SweepExcess(j.maxSessions)
	if expired > 0 || excess > 0 {
		j.logger.Info("sweep finished", "expired", expired, "excess", excess)
	}
	return expired, excess
}

// Stop ends the sweep loop and waits for it to finish. Stopping a stopped
// janitor is a no-op.
func (j *Janitor) Stop() {
	if j.stop == nil {
		return
	}
	close(j.stop)
	<-j.done
	j.stop = nil
}
