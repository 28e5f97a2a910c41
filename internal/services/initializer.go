package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aquadic/souq4u/internal/logutil"
)

// InitializerConfig controls the background reconciliation retries
type InitializerConfig struct {
	RetryInterval time.Duration
	// MaxRetries bounds the background retries; zero retries until Stop.
	MaxRetries int
}

// Initializer reconciles the stored credential with the session at
// startup and on every route change. While the session stays optimistic it
// keeps retrying in the background.
type Initializer struct {
	session *SessionStore
	config  InitializerConfig
	sleep   Sleeper
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewInitializer creates an initializer for session
func NewInitializer(session *SessionStore, config InitializerConfig, sleep Sleeper, logger *slog.Logger) *Initializer {
	if config.RetryInterval <= 0 {
		config.RetryInterval = 30 * time.Second
	}
	if sleep == nil {
		sleep = ContextSleep
	}
	if logger == nil {
		logger = logutil.Discard()
	}
	return &Initializer{session: session, config: config, sleep: sleep, logger: logger}
}

// Start runs one reconciliation pass and, if the session is left
// optimistic, launches the retry loop. Calling it again is a no-op. A Stop
// issued during the first pass cancels it and no loop is launched.
func (i *Initializer) Start(ctx context.Context) {
	i.mu.Lock()
	if i.started {
		i.mu.Unlock()
		return
	}
	i.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	i.cancel = cancel
	i.done = done
	i.mu.Unlock()

	i.session.InitializeAuth(loopCtx)
	if loopCtx.Err() != nil || !i.session.Snapshot().Optimistic() {
		cancel()
		close(done)
		return
	}

	go i.retry(loopCtx, done)
}

func (i *Initializer) retry(ctx context.Context, done chan struct{}) {
	defer close(done)

	for n := 1; i.config.MaxRetries == 0 || n <= i.config.MaxRetries; n++ {
		if err := i.sleep(ctx, i.config.RetryInterval); err != nil {
			return
		}
		if !i.session.Snapshot().Optimistic() {
			return
		}
		i.logger.Debug("retrying session reconciliation", "retry", n)
		i.session.InitializeAuth(ctx)
		if !i.session.Snapshot().Optimistic() {
			return
		}
	}
	i.logger.Warn("session still unconfirmed, giving up retries", "retries", i.config.MaxRetries)
}

// OnRouteChange reconciles again; it does nothing when the session is
// already confirmed.
func (i *Initializer) OnRouteChange(ctx context.Context) {
	i.session.InitializeAuth(ctx)
}

// Stop ends the retry loop. It is idempotent.
func (i *Initializer) Stop() {
	i.mu.Lock()
	cancel, done := i.cancel, i.done
	i.cancel = nil
	i.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
