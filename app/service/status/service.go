package status

import (
	"context"
	"log/slog"
	"time"

	"kuliahbot/app/config"
	"kuliahbot/app/service/identity"
	"kuliahbot/app/service/reminder"
	"kuliahbot/app/service/session"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

var _ do.Shutdownable = (*Service)(nil)

type Counters interface {
	Count() int
}

type ReminderStats interface {
	Stats() reminder.Stats
}

type Stats struct {
	LoggedIn  int            `json:"logged_in"`
	Sessions  int            `json:"sessions"`
	Reminders reminder.Stats `json:"reminders"`
}

// Service exposes health and counters over HTTP. It is off when no listen
// address is configured.
type Service struct {
	listen string
	app    *fiber.App

	users     Counters
	sessions  Counters
	reminders ReminderStats
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*config.Config](di).Status.Listen,
		do.MustInvoke[*identity.Service](di),
		do.MustInvoke[*session.Service](di),
		do.MustInvoke[*reminder.Store](di),
	), nil
}

func NewService(listen string, users, sessions Counters, reminders ReminderStats) *Service {
	s := &Service{
		listen:    listen,
		users:     users,
		sessions:  sessions,
		reminders: reminders,
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.app.Get("/healthz", s.handleHealth)
	s.app.Get("/stats", s.handleStats)

	return s
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (s *Service) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.Stats())
}

func (s *Service) Stats() Stats {
	return Stats{
		LoggedIn:  s.users.Count(),
		Sessions:  s.sessions.Count(),
		Reminders: s.reminders.Stats(),
	}
}

func (s *Service) Run(ctx context.Context) error {
	if s.listen == "" {
		return nil
	}

	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()

	slog.Info("Status server listening", "address", s.listen)

	return s.app.Listen(s.listen)
}

func (s *Service) Shutdown() error {
	if s.listen == "" {
		return nil
	}

	return s.app.ShutdownWithTimeout(shutdownTimeout)
}
