package session

import (
	"context"
	"errors"
	"log/slog"

	"kuliahbot/app/model"

	"github.com/looplab/fsm"
)

const (
	stateNoMode                 = "no_mode"
	stateAwaitingAverage        = "awaiting_average"
	stateAwaitingLetter         = "awaiting_letter"
	stateAwaitingMinMax         = "awaiting_min_max"
	stateAwaitingReminder       = "awaiting_reminder"
	stateAwaitingDeletePosition = "awaiting_delete_position"

	eventReset = "reset"
)

var awaiting = []struct {
	mode  model.Mode
	state string
}{
	{model.ModeAverage, stateAwaitingAverage},
	{model.ModeLetter, stateAwaitingLetter},
	{model.ModeMinMax, stateAwaitingMinMax},
	{model.ModeAddReminder, stateAwaitingReminder},
	{model.ModeDeleteReminder, stateAwaitingDeletePosition},
}

func selectEvent(mode model.Mode) string {
	return "select_" + mode.String()
}

func awaitingState(mode model.Mode) (string, bool) {
	for _, a := range awaiting {
		if a.mode == mode {
			return a.state, true
		}
	}

	return "", false
}

func stateMode(state string) model.Mode {
	for _, a := range awaiting {
		if a.state == state {
			return a.mode
		}
	}

	return model.ModeNone
}

// newMachine builds a user's machine. Every select event is allowed from
// every state, so a new selection overwrites whatever was pending.
func newMachine(user model.UserID) *fsm.FSM {
	states := []string{stateNoMode}
	for _, a := range awaiting {
		states = append(states, a.state)
	}

	events := fsm.Events{
		{Name: eventReset, Src: states, Dst: stateNoMode},
	}
	for _, a := range awaiting {
		events = append(events, fsm.EventDesc{Name: selectEvent(a.mode), Src: states, Dst: a.state})
	}

	return fsm.NewFSM(stateNoMode, events, fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			slog.Debug("Session state changed",
				"user", user,
				"event", e.Event,
				"from", e.Src,
				"to", e.Dst,
			)
		},
	})
}

// fire runs event, treating a self transition as success.
func fire(ctx context.Context, machine *fsm.FSM, event string) error {
	err := machine.Event(ctx, event)

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}

	return err
}
