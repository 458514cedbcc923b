package reminder

import (
	"context"
	"sync"
	"time"

	"kuliahbot/app/model"

	"github.com/google/uuid"
)

// Handle identifies one scheduled reminder independently of its position.
type Handle struct {
	User model.UserID
	ID   uuid.UUID
}

type Reminder struct {
	Handle  Handle
	Label   string
	Message string
	FiresAt time.Time
}

type Notifier interface {
	Notify(ctx context.Context, user model.UserID, message string) error
}

type Timer interface {
	Stop() bool
}

// Timers arms one-shot callbacks. The callback runs on its own goroutine.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type RealTimers struct{}

func (RealTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// timerRef is shared by the store slot and the scheduler. Once stopped, any
// timer attached later is stopped immediately.
type timerRef struct {
	mu      sync.Mutex
	timer   Timer
	stopped bool
}

func (r *timerRef) attach(t Timer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		t.Stop()
		return
	}

	r.timer = t
}

func (r *timerRef) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}

type slot struct {
	reminder Reminder
	ref      *timerRef
}

type Stats struct {
	Users     int `json:"users"`
	Reminders int `json:"reminders"`
}
