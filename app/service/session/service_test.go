package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"kuliahbot/app/model"
	"kuliahbot/app/service/clock"
	"kuliahbot/app/service/reminder"

	"github.com/samber/do"
)

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

type stubTimers struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (t *stubTimers) AfterFunc(d time.Duration, _ func()) reminder.Timer {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.delays = append(t.delays, d)

	return stubTimer{}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, model.UserID, string) error { return nil }

type fixture struct {
	svc    *Service
	store  *reminder.Store
	timers *stubTimers
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	store, err := reminder.NewStore(do.New())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	clk := clock.Func(func() time.Time {
		return time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
	})
	timers := &stubTimers{}
	scheduler := reminder.NewScheduler(context.Background(), clk, store, timers, nopNotifier{}, 25*time.Hour)

	return fixture{
		svc:    NewService(clk, scheduler, store),
		store:  store,
		timers: timers,
	}
}

func TestInitialStateIsNoMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if mode := f.svc.Mode(1); mode != model.ModeNone {
		t.Errorf("Mode = %v; want none", mode)
	}

	outcome := f.svc.HandleInput(ctx, 1, "80 90")
	if outcome.Kind != OutcomeError || !errors.Is(outcome.Err, model.ErrNoPendingMode) {
		t.Errorf("outcome = %+v; want ErrNoPendingMode", outcome)
	}
}

func TestAverageScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if outcome := f.svc.SelectMode(ctx, 1, model.ModeAverage); outcome.Kind != OutcomePrompt {
		t.Fatalf("SelectMode outcome = %+v", outcome)
	}
	if mode := f.svc.Mode(1); mode != model.ModeAverage {
		t.Fatalf("Mode = %v; want average", mode)
	}

	outcome := f.svc.HandleInput(ctx, 1, "80 90 75")
	if outcome.Kind != OutcomeAverage {
		t.Fatalf("outcome = %+v", outcome)
	}
	if got := fmt.Sprintf("%.2f", outcome.Average); got != "81.67" {
		t.Errorf("average = %s; want 81.67", got)
	}
	if mode := f.svc.Mode(1); mode != model.ModeNone {
		t.Errorf("Mode after input = %v; want none", mode)
	}
}

func TestAverageOfLargeValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAverage)

	outcome := f.svc.HandleInput(ctx, 1, "9223372036854775807 9223372036854775807")
	if outcome.Kind != OutcomeAverage || outcome.Average != float64(math.MaxInt64) {
		t.Errorf("outcome = %+v; want average %v", outcome, float64(math.MaxInt64))
	}
}

func TestLetterScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeLetter)

	outcome := f.svc.HandleInput(ctx, 1, "85")
	if outcome.Kind != OutcomeLetter || outcome.Letter != "A" || outcome.Score != 85 {
		t.Errorf("outcome = %+v; want letter A", outcome)
	}
}

func TestMinMax(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeMinMax)

	outcome := f.svc.HandleInput(ctx, 1, "70 80 90")
	if outcome.Kind != OutcomeMinMax || outcome.Min != 70 || outcome.Max != 90 {
		t.Errorf("outcome = %+v; want min 70 max 90", outcome)
	}
}

func TestAddReminderScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAddReminder)

	outcome := f.svc.HandleInput(ctx, 1, "18:30 Kumpul tugas AI")
	if outcome.Kind != OutcomeReminderAdded {
		t.Fatalf("outcome = %+v", outcome)
	}
	if want := 8*time.Hour + 30*time.Minute; outcome.Delay != want {
		t.Errorf("delay = %v; want %v", outcome.Delay, want)
	}
	if outcome.Reminder.Label != "18:30 - Kumpul tugas AI" {
		t.Errorf("label = %q", outcome.Reminder.Label)
	}
	if outcome.Reminder.Message != "Kumpul tugas AI" {
		t.Errorf("message = %q", outcome.Reminder.Message)
	}

	list := f.store.List(1)
	if len(list) != 1 || list[0].Label != "18:30 - Kumpul tugas AI" {
		t.Errorf("stored = %+v", list)
	}
	if want := time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC); !outcome.Reminder.FiresAt.Equal(want) {
		t.Errorf("fires at = %v; want %v", outcome.Reminder.FiresAt, want)
	}
	if len(list) == 1 && list[0] != outcome.Reminder {
		t.Errorf("outcome reminder = %+v; stored %+v", outcome.Reminder, list[0])
	}
	if len(f.timers.delays) != 1 || f.timers.delays[0] != 8*time.Hour+30*time.Minute {
		t.Errorf("armed delays = %v", f.timers.delays)
	}
}

func TestAddReminderMessageKeepsWhitespace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAddReminder)

	outcome := f.svc.HandleInput(ctx, 1, "  7:05   baca  bab 3  ")
	if outcome.Kind != OutcomeReminderAdded {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Reminder.Label != "07:05 - baca  bab 3" {
		t.Errorf("label = %q", outcome.Reminder.Label)
	}
}

func TestAddReminderRejectsMalformed(t *testing.T) {
	tests := []struct {
		text string
		want error
	}{
		{"18:30", model.ErrMalformedReminder},
		{"", model.ErrMalformedReminder},
		{"25:00 tidur", model.ErrInvalidTimeFormat},
		{"besok belajar", model.ErrMalformedReminder},
		{"18.30 makan", model.ErrMalformedReminder},
	}

	for _, tt := range tests {
		f := newFixture(t)
		ctx := context.Background()

		f.svc.SelectMode(ctx, 1, model.ModeAddReminder)

		outcome := f.svc.HandleInput(ctx, 1, tt.text)
		if outcome.Kind != OutcomeError || !errors.Is(outcome.Err, tt.want) {
			t.Errorf("HandleInput(%q) = %+v; want %v", tt.text, outcome, tt.want)
		}
		if !errors.Is(outcome.Err, model.ErrValidation) {
			t.Errorf("HandleInput(%q) error %v is not a validation error", tt.text, outcome.Err)
		}
		if f.store.Count(1) != 0 {
			t.Errorf("HandleInput(%q) stored a reminder", tt.text)
		}
		if mode := f.svc.Mode(1); mode != model.ModeNone {
			t.Errorf("Mode after failure = %v; want none", mode)
		}
	}
}

func TestParseFailureResetsMode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAverage)

	outcome := f.svc.HandleInput(ctx, 1, "delapan puluh")
	if !errors.Is(outcome.Err, model.ErrMalformedNumbers) {
		t.Errorf("error = %v; want ErrMalformedNumbers", outcome.Err)
	}
	if outcome.Mode != model.ModeAverage {
		t.Errorf("outcome mode = %v; want average", outcome.Mode)
	}

	outcome = f.svc.HandleInput(ctx, 1, "80")
	if !errors.Is(outcome.Err, model.ErrNoPendingMode) {
		t.Errorf("second input error = %v; want ErrNoPendingMode", outcome.Err)
	}
}

func TestSelectModeOverwritesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAverage)
	f.svc.SelectMode(ctx, 1, model.ModeLetter)
	f.svc.SelectMode(ctx, 1, model.ModeLetter)

	outcome := f.svc.HandleInput(ctx, 1, "60")
	if outcome.Kind != OutcomeLetter || outcome.Letter != "D" {
		t.Errorf("outcome = %+v; want letter D", outcome)
	}
}

func TestListReminders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	outcome := f.svc.SelectMode(ctx, 1, model.ModeListReminders)
	if outcome.Kind != OutcomeReminderList || len(outcome.Reminders) != 0 {
		t.Errorf("empty list outcome = %+v", outcome)
	}

	f.svc.SelectMode(ctx, 1, model.ModeAddReminder)
	f.svc.HandleInput(ctx, 1, "18:30 a")

	f.svc.SelectMode(ctx, 1, model.ModeAverage)
	outcome = f.svc.SelectMode(ctx, 1, model.ModeListReminders)
	if len(outcome.Reminders) != 1 || outcome.Reminders[0].Label != "18:30 - a" {
		t.Errorf("list outcome = %+v", outcome)
	}
	if mode := f.svc.Mode(1); mode != model.ModeNone {
		t.Errorf("listing left mode %v pending", mode)
	}
}

func TestDeleteOnEmptyListScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prompt := f.svc.SelectMode(ctx, 1, model.ModeDeleteReminder)
	if prompt.Kind != OutcomePrompt || len(prompt.Reminders) != 0 {
		t.Fatalf("prompt = %+v", prompt)
	}

	outcome := f.svc.HandleInput(ctx, 1, "1")
	if outcome.Kind != OutcomeError || !errors.Is(outcome.Err, model.ErrIndexOutOfRange) {
		t.Errorf("outcome = %+v; want ErrIndexOutOfRange", outcome)
	}
}

func TestDeleteByPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, text := range []string{"08:00 a", "09:00 b", "10:30 c"} {
		f.svc.SelectMode(ctx, 1, model.ModeAddReminder)
		if outcome := f.svc.HandleInput(ctx, 1, text); outcome.Err != nil {
			t.Fatalf("add %q: %v", text, outcome.Err)
		}
	}

	prompt := f.svc.SelectMode(ctx, 1, model.ModeDeleteReminder)
	if len(prompt.Reminders) != 3 {
		t.Fatalf("prompt reminders = %d; want 3", len(prompt.Reminders))
	}

	outcome := f.svc.HandleInput(ctx, 1, "2")
	if outcome.Kind != OutcomeReminderDeleted || outcome.Reminder.Label != "09:00 - b" {
		t.Fatalf("outcome = %+v", outcome)
	}

	list := f.store.List(1)
	if len(list) != 2 || list[0].Label != "08:00 - a" || list[1].Label != "10:30 - c" {
		t.Errorf("remaining = %+v", list)
	}
}

func TestDeleteRejectsMalformedPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeDeleteReminder)

	outcome := f.svc.HandleInput(ctx, 1, "satu")
	if !errors.Is(outcome.Err, model.ErrMalformedPosition) {
		t.Errorf("error = %v; want ErrMalformedPosition", outcome.Err)
	}
}

func TestDeleteRejectsSignedPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAddReminder)
	f.svc.HandleInput(ctx, 1, "18:30 Kumpul tugas AI")

	for _, text := range []string{"+1", "-1", "1.0", "1 2", ""} {
		f.svc.SelectMode(ctx, 1, model.ModeDeleteReminder)

		outcome := f.svc.HandleInput(ctx, 1, text)
		if outcome.Kind != OutcomeError || !errors.Is(outcome.Err, model.ErrMalformedPosition) {
			t.Errorf("HandleInput(%q) = %+v; want ErrMalformedPosition", text, outcome)
		}
	}

	if n := len(f.store.List(1)); n != 1 {
		t.Errorf("remaining reminders = %d; want 1", n)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.svc.SelectMode(ctx, 1, model.ModeAverage)
	f.svc.SelectMode(ctx, 2, model.ModeLetter)

	if outcome := f.svc.HandleInput(ctx, 2, "90"); outcome.Kind != OutcomeLetter {
		t.Errorf("user 2 outcome = %+v", outcome)
	}
	if mode := f.svc.Mode(1); mode != model.ModeAverage {
		t.Errorf("user 1 mode = %v; want average", mode)
	}
	if f.svc.Count() != 2 {
		t.Errorf("Count = %d; want 2", f.svc.Count())
	}
}

func TestConcurrentUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for user := model.UserID(1); user <= 50; user++ {
		user := user
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := 0; i < 20; i++ {
				f.svc.SelectMode(ctx, user, model.ModeMinMax)
				outcome := f.svc.HandleInput(ctx, user, fmt.Sprintf("%d %d", user, i))
				if outcome.Kind != OutcomeMinMax {
					t.Errorf("user %d outcome = %+v", user, outcome)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestUnknownMode(t *testing.T) {
	f := newFixture(t)

	outcome := f.svc.SelectMode(context.Background(), 1, model.ModeNone)
	if outcome.Kind != OutcomeError {
		t.Errorf("outcome = %+v; want error", outcome)
	}
}
