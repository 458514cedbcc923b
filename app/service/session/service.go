package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"kuliahbot/app/model"
	"kuliahbot/app/service/clock"
	"kuliahbot/app/service/compute"
	"kuliahbot/app/service/reminder"

	"github.com/looplab/fsm"
	"github.com/samber/do"
	"github.com/samber/oops"
)

type Scheduler interface {
	Schedule(user model.UserID, delay time.Duration, label, message string) (reminder.Reminder, error)
}

type Store interface {
	List(user model.UserID) []reminder.Reminder
	RemoveAt(user model.UserID, position int) (reminder.Reminder, error)
}

// Service holds one state machine per user. A user's session lock covers the
// whole read-parse-reset cycle, so inputs of one user never interleave.
type Service struct {
	clock     clock.Clock
	scheduler Scheduler
	store     Store

	mu       sync.Mutex
	sessions map[model.UserID]*session
}

type session struct {
	mu      sync.Mutex
	machine *fsm.FSM
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[clock.Clock](di),
		do.MustInvoke[*reminder.Scheduler](di),
		do.MustInvoke[*reminder.Store](di),
	), nil
}

func NewService(clk clock.Clock, scheduler Scheduler, store Store) *Service {
	return &Service{
		clock:     clk,
		scheduler: scheduler,
		store:     store,
		sessions:  make(map[model.UserID]*session),
	}
}

func (s *Service) session(user model.UserID) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[user]
	if !ok {
		sess = &session{machine: newMachine(user)}
		s.sessions[user] = sess
	}

	return sess
}

// Mode returns the mode the user's next text is interpreted in.
func (s *Service) Mode(user model.UserID) model.Mode {
	sess := s.session(user)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	return stateMode(sess.machine.Current())
}

func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// SelectMode switches the user to mode, dropping any pending one. Listing has
// no follow-up input and answers right away.
func (s *Service) SelectMode(ctx context.Context, user model.UserID, mode model.Mode) Outcome {
	sess := s.session(user)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if mode == model.ModeListReminders {
		if err := fire(ctx, sess.machine, eventReset); err != nil {
			return failed(mode, oops.In("session").With("user", user).Wrap(err))
		}

		return Outcome{
			Kind:      OutcomeReminderList,
			Mode:      mode,
			Reminders: s.store.List(user),
		}
	}

	if _, ok := awaitingState(mode); !ok {
		return failed(mode, oops.
			In("session").
			Code("unknown_mode").
			With("user", user).
			Errorf("unknown mode %v", mode))
	}

	if err := fire(ctx, sess.machine, selectEvent(mode)); err != nil {
		return failed(mode, oops.In("session").With("user", user).Wrap(err))
	}

	outcome := Outcome{Kind: OutcomePrompt, Mode: mode}
	if mode == model.ModeDeleteReminder {
		outcome.Reminders = s.store.List(user)
	}

	return outcome
}

// HandleInput interprets text in the pending mode. The session returns to
// no mode afterwards whether the input was accepted or not.
func (s *Service) HandleInput(ctx context.Context, user model.UserID, text string) Outcome {
	sess := s.session(user)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	mode := stateMode(sess.machine.Current())
	if mode == model.ModeNone {
		return failed(mode, oops.In("session").Code("no_pending_mode").With("user", user).Wrap(model.ErrNoPendingMode))
	}

	outcome := s.handle(user, mode, strings.TrimSpace(text))
	outcome.Mode = mode

	if err := fire(ctx, sess.machine, eventReset); err != nil {
		slog.Error("Failed to reset session", "user", user, "error", err)
	}

	if outcome.Err != nil {
		slog.Info("Input rejected", "user", user, "mode", mode, "error", outcome.Err)
	}

	return outcome
}

func (s *Service) handle(user model.UserID, mode model.Mode, text string) Outcome {
	switch mode {
	case model.ModeAverage:
		values, err := compute.ParseNumbers(text)
		if err != nil {
			return failed(mode, err)
		}

		return Outcome{Kind: OutcomeAverage, Average: compute.Average(values)}

	case model.ModeLetter:
		score, err := compute.ParseGrade(text)
		if err != nil {
			return failed(mode, err)
		}

		return Outcome{Kind: OutcomeLetter, Score: score, Letter: compute.Letter(score)}

	case model.ModeMinMax:
		values, err := compute.ParseNumbers(text)
		if err != nil {
			return failed(mode, err)
		}

		minValue, maxValue := compute.MinMax(values)

		return Outcome{Kind: OutcomeMinMax, Min: minValue, Max: maxValue}

	case model.ModeAddReminder:
		return s.addReminder(user, text)

	case model.ModeDeleteReminder:
		position, err := parsePosition(text)
		if err != nil {
			return failed(mode, oops.
				In("session").
				Code("malformed_position").
				With("text", text).
				Wrap(model.ErrMalformedPosition))
		}

		removed, err := s.store.RemoveAt(user, position)
		if err != nil {
			return failed(mode, err)
		}

		return Outcome{Kind: OutcomeReminderDeleted, Reminder: removed}
	}

	return failed(mode, oops.In("session").Errorf("mode %v takes no input", mode))
}

func (s *Service) addReminder(user model.UserID, text string) Outcome {
	tod, message, err := parseReminder(text)
	if err != nil {
		return failed(model.ModeAddReminder, err)
	}

	delay, err := clock.DelayUntil(s.clock, tod)
	if err != nil {
		return failed(model.ModeAddReminder, err)
	}

	label := tod.String() + " - " + message

	added, err := s.scheduler.Schedule(user, delay, label, message)
	if err != nil {
		return failed(model.ModeAddReminder, err)
	}

	return Outcome{Kind: OutcomeReminderAdded, Delay: delay, Reminder: added}
}

// parsePosition accepts only plain digits, so signs and spaces are
// malformed rather than out of range.
func parsePosition(text string) (int, error) {
	if text == "" || strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, strconv.ErrSyntax
	}

	return strconv.Atoi(text)
}

// parseReminder splits "HH:MM message" on the first whitespace run.
func parseReminder(text string) (clock.TimeOfDay, string, error) {
	index := strings.IndexFunc(text, unicode.IsSpace)
	if index < 0 {
		return clock.TimeOfDay{}, "", oops.
			In("session").
			Code("malformed_reminder").
			With("text", text).
			Wrap(model.ErrMalformedReminder)
	}

	timeText := text[:index]
	message := strings.TrimSpace(text[index:])

	tod, err := clock.ParseTimeOfDay(timeText)
	if err != nil {
		return clock.TimeOfDay{}, "", oops.
			In("session").
			Code("malformed_reminder").
			With("time", timeText).
			Wrap(fmt.Errorf("%w: %w", model.ErrMalformedReminder, err))
	}

	return tod, message, nil
}
