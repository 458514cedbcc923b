package reminder

import (
	"sync"
	"time"

	"kuliahbot/app/model"

	"github.com/elliotchance/pie/v2"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

// Store keeps each user's reminders in insertion order. The map lock is only
// held to look up a user's list; list mutation takes that user's lock.
type Store struct {
	mu    sync.Mutex
	users map[model.UserID]*userReminders
}

type userReminders struct {
	mu    sync.Mutex
	slots []*slot
}

func NewStore(_ *do.Injector) (*Store, error) {
	return newStore(), nil
}

func newStore() *Store {
	return &Store{
		users: make(map[model.UserID]*userReminders),
	}
}

func (s *Store) get(user model.UserID, create bool) *userReminders {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.users[user]
	if !ok && create {
		list = &userReminders{}
		s.users[user] = list
	}

	return list
}

func (s *Store) Add(user model.UserID, label, message string, firesAt time.Time) Handle {
	handle, _ := s.add(user, label, message, firesAt)
	return handle
}

func (s *Store) add(user model.UserID, label, message string, firesAt time.Time) (Handle, *timerRef) {
	list := s.get(user, true)

	handle := Handle{User: user, ID: uuid.New()}
	ref := &timerRef{}

	list.mu.Lock()
	list.slots = append(list.slots, &slot{
		reminder: Reminder{
			Handle:  handle,
			Label:   label,
			Message: message,
			FiresAt: firesAt,
		},
		ref: ref,
	})
	list.mu.Unlock()

	return handle, ref
}

// List returns a snapshot in insertion order.
func (s *Store) List(user model.UserID) []Reminder {
	list := s.get(user, false)
	if list == nil {
		return []Reminder{}
	}

	list.mu.Lock()
	defer list.mu.Unlock()

	return pie.Map(list.slots, func(sl *slot) Reminder {
		return sl.reminder
	})
}

func (s *Store) Count(user model.UserID) int {
	list := s.get(user, false)
	if list == nil {
		return 0
	}

	list.mu.Lock()
	defer list.mu.Unlock()

	return len(list.slots)
}

// RemoveAt removes the reminder at a 1-based position of the current order
// and cancels its timer.
func (s *Store) RemoveAt(user model.UserID, position int) (Reminder, error) {
	list := s.get(user, false)

	var removed *slot
	count := 0

	if list != nil {
		list.mu.Lock()
		count = len(list.slots)
		if position >= 1 && position <= count {
			removed = list.slots[position-1]
			list.slots = pie.Delete(list.slots, position-1)
		}
		list.mu.Unlock()
	}

	if removed == nil {
		return Reminder{}, oops.
			In("reminder").
			Code("index_out_of_range").
			With("user", user).
			With("position", position).
			With("count", count).
			Wrap(model.ErrIndexOutOfRange)
	}

	removed.ref.stop()

	return removed.reminder, nil
}

// Remove drops the reminder by handle and cancels its timer. It reports
// false when the reminder is already gone.
func (s *Store) Remove(handle Handle) bool {
	removed := s.take(handle)
	if removed == nil {
		return false
	}

	removed.ref.stop()

	return true
}

// RemoveFired is the firing side of the check-and-remove. Only a caller that
// gets true may deliver the reminder.
func (s *Store) RemoveFired(handle Handle) bool {
	return s.take(handle) != nil
}

func (s *Store) take(handle Handle) *slot {
	list := s.get(handle.User, false)
	if list == nil {
		return nil
	}

	list.mu.Lock()
	defer list.mu.Unlock()

	index := pie.FindFirstUsing(list.slots, func(sl *slot) bool {
		return sl.reminder.Handle.ID == handle.ID
	})
	if index < 0 {
		return nil
	}

	removed := list.slots[index]
	list.slots = pie.Delete(list.slots, index)

	return removed
}

func (s *Store) Stats() Stats {
	s.mu.Lock()
	lists := make([]*userReminders, 0, len(s.users))
	for _, list := range s.users {
		lists = append(lists, list)
	}
	s.mu.Unlock()

	var stats Stats
	for _, list := range lists {
		list.mu.Lock()
		if n := len(list.slots); n > 0 {
			stats.Users++
			stats.Reminders += n
		}
		list.mu.Unlock()
	}

	return stats
}

// Drain removes every reminder and cancels all timers.
func (s *Store) Drain() int {
	s.mu.Lock()
	lists := make([]*userReminders, 0, len(s.users))
	for _, list := range s.users {
		lists = append(lists, list)
	}
	s.mu.Unlock()

	drained := 0
	for _, list := range lists {
		list.mu.Lock()
		slots := list.slots
		list.slots = nil
		list.mu.Unlock()

		for _, sl := range slots {
			sl.ref.stop()
			drained++
		}
	}

	return drained
}
