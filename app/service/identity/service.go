package identity

import (
	"strings"
	"sync"

	"kuliahbot/app/model"

	"github.com/samber/do"
	"github.com/samber/oops"
)

const loginCommand = "login"

// Service remembers which student number each chat user logged in with.
type Service struct {
	mu   sync.RWMutex
	nims map[model.UserID]string
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		nims: make(map[model.UserID]string),
	}, nil
}

// IsLogin reports whether text is addressed to Login.
func IsLogin(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), loginCommand)
}

// Login accepts "login NIM" where NIM is all digits. A repeated login replaces the NIM.
func (s *Service) Login(user model.UserID, text string) (string, error) {
	parts := strings.Fields(text)
	if len(parts) != 2 || parts[0] != loginCommand || !isDigits(parts[1]) {
		return "", oops.
			In("identity").
			Code("invalid_login").
			With("user", user).
			Wrap(model.ErrInvalidLogin)
	}

	nim := parts[1]

	s.mu.Lock()
	s.nims[user] = nim
	s.mu.Unlock()

	return nim, nil
}

func (s *Service) NIM(user model.UserID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nim, ok := s.nims[user]
	return nim, ok
}

func (s *Service) LoggedIn(user model.UserID) bool {
	_, ok := s.NIM(user)
	return ok
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nims)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
