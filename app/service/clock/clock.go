package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"kuliahbot/app/model"

	"github.com/samber/do"
	"github.com/samber/oops"
)

type Clock interface {
	Now() time.Time
}

// System reads the process wall clock.
type System struct{}

func New(_ *do.Injector) (Clock, error) {
	return System{}, nil
}

func (System) Now() time.Time {
	return time.Now()
}

// Func adapts a plain function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return f()
}

type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) Validate() error {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return oops.
			In("clock").
			Code("invalid_time_format").
			With("hour", t.Hour).
			With("minute", t.Minute).
			Wrap(model.ErrInvalidTimeFormat)
	}

	return nil
}

// ParseTimeOfDay accepts 24-hour HH:MM with one or two digits per part.
func ParseTimeOfDay(text string) (TimeOfDay, error) {
	hourText, minuteText, found := strings.Cut(text, ":")
	if !found || !isShortNumber(hourText) || !isShortNumber(minuteText) {
		return TimeOfDay{}, oops.
			In("clock").
			Code("invalid_time_format").
			With("text", text).
			Wrap(model.ErrInvalidTimeFormat)
	}

	hour, _ := strconv.Atoi(hourText)
	minute, _ := strconv.Atoi(minuteText)

	tod := TimeOfDay{Hour: hour, Minute: minute}
	if err := tod.Validate(); err != nil {
		return TimeOfDay{}, err
	}

	return tod, nil
}

func isShortNumber(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}

// Next returns the next instant at tod in now's location. Today counts only
// when it is strictly after now.
func Next(now time.Time, tod TimeOfDay) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), tod.Hour, tod.Minute, 0, 0, now.Location())
	if !target.After(now) {
		target = time.Date(now.Year(), now.Month(), now.Day()+1, tod.Hour, tod.Minute, 0, 0, now.Location())
	}

	return target
}

func DelayUntil(c Clock, tod TimeOfDay) (time.Duration, error) {
	if err := tod.Validate(); err != nil {
		return 0, err
	}

	now := c.Now()

	return Next(now, tod).Sub(now), nil
}
