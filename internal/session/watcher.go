package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ikusi/acta-ui/internal/logging"
)

const (
	DefaultSweepSpec   = "@every 30s"
	DefaultIdleTimeout = 30 * time.Minute

	ReasonExpired = "expired"
	ReasonIdle    = "idle"
)

// Watcher signs the user out when the token expires or after a period with
// no recorded activity.
type Watcher struct {
	store Store
	idle  time.Duration
	now   func() time.Time

	mu           sync.Mutex
	lastActivity time.Time
	onSignOut    func(reason string)

	cron *cron.Cron
}

func NewWatcher(store Store, idle time.Duration) *Watcher {
	return &Watcher{
		store:        store,
		idle:         idle,
		now:          time.Now,
		lastActivity: time.Now(),
	}
}

// OnSignOut registers a callback run after the watcher clears the session.
func (w *Watcher) OnSignOut(fn func(reason string)) {
	w.mu.Lock()
	w.onSignOut = fn
	w.mu.Unlock()
}

// Touch records user activity.
func (w *Watcher) Touch() {
	w.mu.Lock()
	w.lastActivity = w.now()
	w.mu.Unlock()
}

// Sweep runs one check and reports whether the session was cleared.
func (w *Watcher) Sweep(ctx context.Context) (bool, string, error) {
	_, err := w.store.Get(ctx)
	switch {
	case errors.Is(err, ErrNoSession):
		return false, "", nil
	case errors.Is(err, ErrExpired):
		w.signedOut(ReasonExpired)
		return true, ReasonExpired, nil
	case err != nil:
		return false, "", err
	}

	w.mu.Lock()
	idleFor := w.now().Sub(w.lastActivity)
	w.mu.Unlock()

	if w.idle > 0 && idleFor >= w.idle {
		if err := w.store.Clear(ctx); err != nil {
			return false, "", err
		}
		w.signedOut(ReasonIdle)
		return true, ReasonIdle, nil
	}
	return false, "", nil
}

// Start schedules Sweep on the given cron spec.
func (w *Watcher) Start(spec string) error {
	if spec == "" {
		spec = DefaultSweepSpec
	}
	c := cron.New(cron.WithSeconds())

	_, err := c.AddFunc(spec, func() {
		ctx, _ := logging.EnsureRequestID(context.Background())
		if _, _, err := w.Sweep(ctx); err != nil {
			logging.NewLogger(ctx).LogError("session_sweep", err)
		}
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.cron = c
	w.mu.Unlock()
	c.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep.
func (w *Watcher) Stop() {
	w.mu.Lock()
	c := w.cron
	w.cron = nil
	w.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (w *Watcher) signedOut(reason string) {
	logging.NewLogger(context.Background()).LogInfof("session_sweep", "session cleared: %s", reason)

	w.mu.Lock()
	fn := w.onSignOut
	w.mu.Unlock()
	if fn != nil {
		fn(reason)
	}
}
