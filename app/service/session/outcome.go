package session

import (
	"time"

	"kuliahbot/app/model"
	"kuliahbot/app/service/reminder"
)

type OutcomeKind int

const (
	// OutcomePrompt means a mode was selected and input is awaited.
	OutcomePrompt OutcomeKind = iota
	OutcomeAverage
	OutcomeLetter
	OutcomeMinMax
	OutcomeReminderAdded
	OutcomeReminderList
	OutcomeReminderDeleted
	OutcomeError
)

// Outcome is what the session reports back for one user action. Only the
// fields matching Kind are set.
type Outcome struct {
	Kind OutcomeKind
	Mode model.Mode

	Average  float64
	Score    int
	Letter   string
	Min      int
	Max      int
	Delay    time.Duration
	Reminder reminder.Reminder
	// Reminders holds the list for OutcomeReminderList and the current
	// list when the delete prompt is shown.
	Reminders []reminder.Reminder

	Err error
}

func failed(mode model.Mode, err error) Outcome {
	return Outcome{
		Kind: OutcomeError,
		Mode: mode,
		Err:  err,
	}
}
