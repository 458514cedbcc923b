package queue

import (
	"log/slog"
	"sync"

	"kuliahbot/app/config"
	"kuliahbot/app/model"

	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

type Kind int

const (
	KindStart Kind = iota
	KindLogin
	KindMenu
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindLogin:
		return "login"
	case KindMenu:
		return "menu"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Event is one inbound user action. Payload is the menu data for KindMenu
// and the raw text otherwise.
type Event struct {
	User    model.UserID
	Kind    Kind
	Payload string
}

// Service spreads events over lanes by user, so one user's events stay in
// order while different users are handled in parallel.
type Service struct {
	lanes []chan Event

	closeOnce sync.Once
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Queue.Lanes, cfg.Queue.Buffer), nil
}

func NewService(lanes, buffer int) *Service {
	s := &Service{
		lanes: make([]chan Event, lanes),
	}
	for i := range s.lanes {
		s.lanes[i] = make(chan Event, buffer)
	}

	return s
}

func (s *Service) lane(user model.UserID) int {
	index := int64(user) % int64(len(s.lanes))
	if index < 0 {
		index = -index
	}

	return int(index)
}

func (s *Service) Add(event Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("message queue is closed", "user", event.User)
		}
	}()

	select {
	case s.lanes[s.lane(event.User)] <- event:
	default:
		slog.Warn("message queue is full", "user", event.User, "kind", event.Kind)
	}
}

func (s *Service) Lanes() []<-chan Event {
	result := make([]<-chan Event, len(s.lanes))
	for i, lane := range s.lanes {
		result[i] = lane
	}

	return result
}

func (s *Service) Shutdown() error {
	s.closeOnce.Do(func() {
		for _, lane := range s.lanes {
			close(lane)
		}
	})

	return nil
}
