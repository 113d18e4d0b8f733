package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// AutoPlayer steps a Controller on a fixed interval until the run finishes or Stop is
// called. Intervals below one second are rounded up to one second by the cron scheduler.
type AutoPlayer struct {
	ctrl *Controller

	mu       sync.Mutex
	cron     *cron.Cron
	interval time.Duration
}

func NewAutoPlayer(ctrl *Controller) *AutoPlayer {
	return &AutoPlayer{ctrl: ctrl}
}

// Start begins stepping every interval, replacing any schedule already running.
func (a *AutoPlayer) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("auto-play interval must be positive, got %s", interval)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { a.tick(c) }); err != nil {
		return fmt.Errorf("scheduling auto-play: %w", err)
	}
	c.Start()
	a.cron = c
	a.interval = interval
	logrus.Infof("auto-play started (every %s)", interval)
	return nil
}

// Stop halts auto-play. It is safe to call when not running.
func (a *AutoPlayer) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *AutoPlayer) stopLocked() {
	if a.cron == nil {
		return
	}
	a.cron.Stop()
	a.cron = nil
	a.interval = 0
	logrus.Info("auto-play stopped")
}

// Running reports whether auto-play is active, and at which interval.
func (a *AutoPlayer) Running() (bool, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cron != nil, a.interval
}

// tick steps once; owner is the schedule that fired, so a finished run only stops the
// schedule that observed it.
func (a *AutoPlayer) tick(owner *cron.Cron) {
	res := a.ctrl.Step()
	logrus.Debugf("[tick %07d] auto-play step, %d notification(s)", res.Time, len(res.Notifications))
	if !res.Finished {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cron == owner {
		a.stopLocked()
	}
}
