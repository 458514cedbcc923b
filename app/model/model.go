package model

import (
	"strconv"
)

// UserID identifies a chat user. All per-user state is keyed by it.
type UserID int64

func (u UserID) String() string {
	return strconv.FormatInt(int64(u), 10)
}

type Mode int

const (
	ModeNone Mode = iota
	ModeAverage
	ModeLetter
	ModeMinMax
	ModeAddReminder
	ModeListReminders
	ModeDeleteReminder
)

// Menu callback payloads.
const (
	MenuAverage        = "hitung"
	MenuLetter         = "huruf"
	MenuMinMax         = "maxmin"
	MenuAddReminder    = "reminder"
	MenuListReminders  = "list"
	MenuDeleteReminder = "hapus"
	MenuHelp           = "help"
)

var menuModes = map[string]Mode{
	MenuAverage:        ModeAverage,
	MenuLetter:         ModeLetter,
	MenuMinMax:         ModeMinMax,
	MenuAddReminder:    ModeAddReminder,
	MenuListReminders:  ModeListReminders,
	MenuDeleteReminder: ModeDeleteReminder,
}

// ParseMenu maps a menu payload to a mode. Help is not a mode and yields ok=false.
func ParseMenu(data string) (Mode, bool) {
	mode, ok := menuModes[data]
	return mode, ok
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeAverage:
		return "average"
	case ModeLetter:
		return "letter"
	case ModeMinMax:
		return "min_max"
	case ModeAddReminder:
		return "add_reminder"
	case ModeListReminders:
		return "list_reminders"
	case ModeDeleteReminder:
		return "delete_reminder"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}
