package scheduler

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/primsync/internal/logger"
)

type Phase int

const (
	Idle Phase = iota
	Scheduled
	Running
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Updater periodically invokes a callback on a fixed interval. The next cycle
// is armed only after the previous callback returns, measured from that
// moment: overlapping runs are impossible by construction and a slow cycle
// never causes catch-up bursts. Callback errors are logged and swallowed; a
// bad cycle must never kill the schedule.
type Updater struct {
	interval time.Duration
	callback func() error

	mu      sync.Mutex
	phase   Phase
	timer   *time.Timer
	nextRun time.Time
}

func New(callback func() error, interval time.Duration) *Updater {
	return &Updater{
		interval: interval,
		callback: callback,
	}
}

// Start arms the first trigger. No-op unless the updater is Idle.
func (u *Updater) Start() {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.phase != Idle {
		return
	}
	u.phase = Scheduled
	u.arm()
}

// Stop cancels any pending trigger and makes the phase terminal. An in-flight
// callback finishes but will not reschedule. Idempotent, safe to call from
// any goroutine, never blocks on a running callback.
func (u *Updater) Stop() {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.phase = Stopped
	if u.timer != nil {
		u.timer.Stop()
		u.timer = nil
	}
	u.nextRun = time.Time{}
}

// State returns the current phase and, when Scheduled, the next trigger time.
func (u *Updater) State() (Phase, time.Time) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase, u.nextRun
}

// arm must be called with the mutex held.
func (u *Updater) arm() {
	u.nextRun = time.Now().Add(u.interval)
	u.timer = time.AfterFunc(u.interval, u.fire)
}

func (u *Updater) fire() {
	u.mu.Lock()
	if u.phase == Stopped {
		// Trigger fired concurrently with Stop; drop the event.
		u.mu.Unlock()
		return
	}
	u.phase = Running
	// No trigger is armed while the callback runs.
	u.nextRun = time.Time{}
	u.timer = nil
	u.mu.Unlock()

	u.invoke()

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.phase == Stopped {
		return
	}
	u.phase = Scheduled
	u.arm()
}

func (u *Updater) invoke() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogError("background update panicked: %v", r)
		}
	}()
	if err := u.callback(); err != nil {
		logger.LogError("background update failed: %v", err)
	}
}
