package reminder

import (
	"context"
	"log/slog"
	"time"

	"kuliahbot/app/config"
	"kuliahbot/app/model"
	"kuliahbot/app/service/clock"

	"github.com/samber/do"
	"github.com/samber/oops"
)

var _ do.Shutdownable = (*Scheduler)(nil)

type Scheduler struct {
	ctx      context.Context
	clock    clock.Clock
	store    *Store
	timers   Timers
	notifier Notifier
	maxDelay time.Duration
}

func New(di *do.Injector) (*Scheduler, error) {
	return NewScheduler(
		do.MustInvoke[context.Context](di),
		do.MustInvoke[clock.Clock](di),
		do.MustInvoke[*Store](di),
		RealTimers{},
		do.MustInvoke[Notifier](di),
		do.MustInvoke[*config.Config](di).Reminder.MaxDelay,
	), nil
}

func NewScheduler(
	ctx context.Context,
	clk clock.Clock,
	store *Store,
	timers Timers,
	notifier Notifier,
	maxDelay time.Duration,
) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		clock:    clk,
		store:    store,
		timers:   timers,
		notifier: notifier,
		maxDelay: maxDelay,
	}
}

func (s *Scheduler) Store() *Store {
	return s.store
}

// Schedule stores the reminder and arms a one-shot timer for it.
func (s *Scheduler) Schedule(user model.UserID, delay time.Duration, label, message string) (Reminder, error) {
	if delay <= 0 || delay > s.maxDelay {
		return Reminder{}, oops.
			In("reminder").
			Code("invalid_delay").
			With("user", user).
			With("delay", delay).
			With("max_delay", s.maxDelay).
			Wrap(model.ErrInvalidDelay)
	}

	firesAt := s.clock.Now().Add(delay)
	handle, ref := s.store.add(user, label, message, firesAt)
	ref.attach(s.timers.AfterFunc(delay, func() {
		s.fire(handle, message)
	}))

	slog.Info("Reminder scheduled",
		"user", user,
		"handle", handle.ID,
		"delay", delay,
		"label", label,
	)

	return Reminder{
		Handle:  handle,
		Label:   label,
		Message: message,
		FiresAt: firesAt,
	}, nil
}

// Cancel guarantees the notifier is not called for handle afterward. The
// timer itself may still run into a no-op.
func (s *Scheduler) Cancel(handle Handle) bool {
	return s.store.Remove(handle)
}

func (s *Scheduler) fire(handle Handle, message string) {
	if !s.store.RemoveFired(handle) {
		slog.Debug("Reminder was removed before firing", "user", handle.User, "handle", handle.ID)
		return
	}

	if err := s.notifier.Notify(s.ctx, handle.User, message); err != nil {
		slog.Error("Failed to deliver reminder",
			"user", handle.User,
			"handle", handle.ID,
			"error", err,
		)
		return
	}

	slog.Info("Reminder delivered", "user", handle.User, "handle", handle.ID)
}

func (s *Scheduler) Shutdown() error {
	if n := s.store.Drain(); n > 0 {
		slog.Info("Dropped pending reminders", "count", n)
	}

	return nil
}
