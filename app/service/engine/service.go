package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kuliahbot/app/model"
	"kuliahbot/app/service/identity"
	"kuliahbot/app/service/queue"
	"kuliahbot/app/service/render"
	"kuliahbot/app/service/session"

	"github.com/samber/do"
	"github.com/samber/oops"
	"golang.org/x/sync/errgroup"
)

type Sender interface {
	Send(ctx context.Context, user model.UserID, msg render.Message) error
}

type Service struct {
	identitySvc *identity.Service
	sessionSvc  *session.Service
	queueSvc    *queue.Service
	sender      Sender

	mu      sync.Mutex
	workers map[model.UserID]*worker
	wg      sync.WaitGroup
}

// worker holds one user's events that arrived while an earlier event of
// the same user was still being processed.
type worker struct {
	pending []queue.Event
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*identity.Service](di),
		do.MustInvoke[*session.Service](di),
		do.MustInvoke[*queue.Service](di),
		do.MustInvoke[Sender](di),
	), nil
}

func NewService(identitySvc *identity.Service, sessionSvc *session.Service, queueSvc *queue.Service, sender Sender) *Service {
	return &Service{
		identitySvc: identitySvc,
		sessionSvc:  sessionSvc,
		queueSvc:    queueSvc,
		sender:      sender,
		workers:     make(map[model.UserID]*worker),
	}
}

// Run consumes every queue lane until ctx is done or the queue is closed,
// then waits for in-flight events to finish.
func (s *Service) Run(ctx context.Context) error {
	var g errgroup.Group

	for _, lane := range s.queueSvc.Lanes() {
		lane := lane
		g.Go(func() error {
			s.runLane(ctx, lane)
			return nil
		})
	}

	err := g.Wait()
	s.wg.Wait()

	return err
}

func (s *Service) runLane(ctx context.Context, lane <-chan queue.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-lane:
			if !ok {
				return
			}

			s.dispatch(ctx, event)
		}
	}
}

// dispatch hands the event to the user's worker, starting one if the user
// has none. Events of one user run in order; a slow reply to one user does
// not hold up the others sharing the lane.
func (s *Service) dispatch(ctx context.Context, event queue.Event) {
	s.mu.Lock()
	if w, ok := s.workers[event.User]; ok {
		w.pending = append(w.pending, event)
		s.mu.Unlock()
		return
	}

	w := &worker{pending: []queue.Event{event}}
	s.workers[event.User] = w
	s.wg.Add(1)
	s.mu.Unlock()

	go s.runWorker(ctx, event.User, w)
}

func (s *Service) runWorker(ctx context.Context, user model.UserID, w *worker) {
	defer s.wg.Done()

	for {
		s.mu.Lock()
		if len(w.pending) == 0 {
			delete(s.workers, user)
			s.mu.Unlock()
			return
		}
		event := w.pending[0]
		w.pending = w.pending[1:]
		s.mu.Unlock()

		start := time.Now()
		s.Process(ctx, event)

		slog.Debug("Processed event",
			"user", event.User,
			"kind", event.Kind,
			"duration", time.Since(start))
	}
}

// Process handles one event and sends the reply. No session lock is held
// while sending.
func (s *Service) Process(ctx context.Context, event queue.Event) {
	msg := s.reply(ctx, event)

	if err := s.sender.Send(ctx, event.User, msg); err != nil {
		slog.Warn("Failed to send reply", "user", event.User, "kind", event.Kind, "error", err)
	}
}

func (s *Service) reply(ctx context.Context, event queue.Event) render.Message {
	switch event.Kind {
	case queue.KindStart:
		return render.Start()
	case queue.KindLogin:
		nim, err := s.identitySvc.Login(event.User, event.Payload)
		if err != nil {
			return render.LoginFailed()
		}

		slog.Info("User logged in", "user", event.User)

		return render.LoginSucceeded(nim)
	}

	if !s.identitySvc.LoggedIn(event.User) {
		return render.NeedLogin()
	}

	switch event.Kind {
	case queue.KindMenu:
		if event.Payload == model.MenuHelp {
			return render.Help()
		}

		mode, ok := model.ParseMenu(event.Payload)
		if !ok {
			err := oops.In("engine").With("user", event.User).Errorf("unknown menu item %q", event.Payload)
			slog.Warn("Unknown menu item", "error", err)

			return render.Error(err)
		}

		return render.Outcome(s.sessionSvc.SelectMode(ctx, event.User, mode))
	case queue.KindText:
		return render.Outcome(s.sessionSvc.HandleInput(ctx, event.User, event.Payload))
	}

	return render.Error(oops.In("engine").Errorf("unknown event kind %v", event.Kind))
}
