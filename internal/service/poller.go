package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"qbank/internal/domain"
)

// Poller states
type PollerState int

const (
	PollerIdle PollerState = iota
	PollerPolling
	PollerCompleted
	PollerFailed
)

func (s PollerState) String() string {
	switch s {
	case PollerIdle:
		return "idle"
	case PollerPolling:
		return "polling"
	case PollerCompleted:
		return "completed"
	case PollerFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PollerConfig controls polling cadence and terminal cleanup timing.
// The defaults mirror the reference behavior: 2s interval, cleanup 10s
// after completion and 5s after failure.
type PollerConfig struct {
	Interval              time.Duration
	CompletedCleanupDelay time.Duration
	FailedCleanupDelay    time.Duration
	CleanupAttempts       uint
}

// DefaultPollerConfig returns the reference timing.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:              2 * time.Second,
		CompletedCleanupDelay: 10 * time.Second,
		FailedCleanupDelay:    5 * time.Second,
		CleanupAttempts:       3,
	}
}

// PollerCallbacks observe a job's lifetime. OnProgress fires for every
// non-terminal snapshot; exactly one of OnCompleted/OnFailed fires when
// the job reaches a terminal state. Callbacks run on the poller's
// goroutine and must not block.
type PollerCallbacks struct {
	OnProgress  func(status domain.ProcessingStatus)
	OnCompleted func(status domain.ProcessingStatus)
	OnFailed    func(status domain.ProcessingStatus)
}

// StatusPoller drives a fixed-interval polling loop against the
// processing-status endpoint until the tracked job terminates.
//
// State machine: Idle -> Polling -> {Completed, Failed}. Transport and
// parse errors while polling are logged and swallowed, so a transient
// network hiccup does not kill the loop. This also means a permanently
// unreachable server polls until Stop is called.
//
// One poller tracks at most one job: Start implicitly stops any previous
// loop owned by this instance. Stop cancels without the server-side
// cleanup call, matching the reference behavior where a user cancel
// leaves the job record behind; StopAndCleanup is the tidy cancel path.
type StatusPoller struct {
	source domain.StatusSource
	cfg    PollerConfig
	logger *slog.Logger

	mu       sync.Mutex
	statusID string
	state    PollerState
	cancel   context.CancelFunc
}

// NewStatusPoller creates a poller over a status source.
func NewStatusPoller(source domain.StatusSource, cfg PollerConfig, logger *slog.Logger) *StatusPoller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollerConfig().Interval
	}
	if cfg.CleanupAttempts == 0 {
		cfg.CleanupAttempts = DefaultPollerConfig().CleanupAttempts
	}
	return &StatusPoller{
		source: source,
		cfg:    cfg,
		logger: logger,
		state:  PollerIdle,
	}
}

// State returns the current poller state.
func (p *StatusPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsActive reports whether a polling loop is running.
func (p *StatusPoller) IsActive() bool {
	return p.State() == PollerPolling
}

// StatusID returns the job id being tracked, if any.
func (p *StatusPoller) StatusID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusID
}

// Start begins polling the given job. Any previous loop owned by this
// poller is stopped first.
func (p *StatusPoller) Start(statusID string, cb PollerCallbacks) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	p.mu.Lock()
	p.statusID = statusID
	p.state = PollerPolling
	p.cancel = cancel
	p.mu.Unlock()

	p.logger.Info("polling started", "status_id", statusID, "interval", p.cfg.Interval)

	go p.loop(ctx, statusID, cb)
}

// Stop cancels the polling loop and returns the poller to Idle. No
// cleanup request is issued; the job record stays on the server.
func (p *StatusPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.state == PollerPolling {
		p.state = PollerIdle
	}
	p.statusID = ""
}

// StopAndCleanup cancels the polling loop and immediately discards the
// job record server-side. This is the cancel path the UI uses so a
// user-aborted upload does not leak status records.
func (p *StatusPoller) StopAndCleanup() {
	p.mu.Lock()
	statusID := p.statusID
	p.mu.Unlock()

	p.Stop()

	if statusID != "" {
		go p.cleanup(statusID, 0)
	}
}

func (p *StatusPoller) loop(ctx context.Context, statusID string, cb PollerCallbacks) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, err := p.fetch(ctx, statusID)
			if err != nil {
				// Tolerate transient failures; keep polling.
				p.logger.Warn("status poll failed", "status_id", statusID, "error", err)
				continue
			}

			switch status.Status {
			case domain.StatusCompleted:
				p.finish(PollerCompleted, statusID)
				p.logger.Info("processing completed", "status_id", statusID, "book", status.BookName)
				if cb.OnCompleted != nil {
					cb.OnCompleted(*status)
				}
				go p.cleanup(statusID, p.cfg.CompletedCleanupDelay)
				return

			case domain.StatusError:
				p.finish(PollerFailed, statusID)
				p.logger.Error("processing failed", "status_id", statusID, "message", status.Message)
				if cb.OnFailed != nil {
					cb.OnFailed(*status)
				}
				go p.cleanup(statusID, p.cfg.FailedCleanupDelay)
				return

			default:
				if cb.OnProgress != nil {
					cb.OnProgress(*status)
				}
			}
		}
	}
}

func (p *StatusPoller) fetch(ctx context.Context, statusID string) (*domain.ProcessingStatus, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.cfg.Interval*2)
	defer cancel()
	return p.source.ProcessingStatus(reqCtx, statusID)
}

// finish records the terminal state if this loop is still the owner.
func (p *StatusPoller) finish(state PollerState, statusID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.statusID != statusID {
		return
	}
	p.state = state
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// cleanup discards the job record after delay. The DELETE is idempotent,
// so it is retried a few times before giving up.
func (p *StatusPoller) cleanup(statusID string, delay time.Duration) {
	if delay > 0 {
		time.Sleep(delay)
	}

	err := retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
			defer cancel()
			return p.source.CleanupStatus(ctx, statusID)
		},
		retry.Attempts(p.cfg.CleanupAttempts),
		retry.Delay(1*time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		p.logger.Warn("status cleanup failed", "status_id", statusID, "error", err)
		return
	}
	p.logger.Debug("status record discarded", "status_id", statusID)
}
