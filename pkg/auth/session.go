// Package auth holds the logged-in user of one client.
//
// A Session has an explicit lifecycle: Rehydrate once at start, Login after a
// successful OTP verification or signup, Logout on request. Flows never read
// it globally; they receive the current user when they are opened.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/ports"
)

// DefaultClientID is used when no client id is configured.
const DefaultClientID = "default"

// UserFetcher resolves a stored user id into the full account.
type UserFetcher interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Session is the process-wide login state of one client.
type Session struct {
	store    ports.TokenStore
	fetcher  UserFetcher
	clientID string
	logger   *slog.Logger
	now      func() time.Time

	mu   sync.RWMutex
	user *domain.User
}

// Option configures the Session.
type Option func(*Session)

// WithClientID scopes the stored token to a client.
func WithClientID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.clientID = id
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a logged-out session backed by store.
func NewSession(store ports.TokenStore, fetcher UserFetcher, opts ...Option) *Session {
	s := &Session{
		store:    store,
		fetcher:  fetcher,
		clientID: DefaultClientID,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClientID returns the client the session stores its token under.
func (s *Session) ClientID() string {
	return s.clientID
}

// Rehydrate restores the user from the stored id. Nothing stored is not an
// error. When the backend cannot resolve the id the token is cleared and the
// session stays logged out.
func (s *Session) Rehydrate(ctx context.Context) (*domain.User, error) {
	tok, err := s.store.Load(ctx, s.clientID)
	if errors.Is(err, domain.ErrTokenNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	user, err := s.fetcher.GetUser(ctx, tok.UserID)
	if err != nil {
		s.logger.Warn("Stored user could not be restored, clearing it", "user", tok.UserID, "err", err)
		if derr := s.store.Delete(ctx, s.clientID); derr != nil {
			s.logger.Error("Failed to clear stored user", "err", derr)
		}
		return nil, fmt.Errorf("rehydrate user %s: %w", tok.UserID, err)
	}

	s.set(user)
	s.logger.Debug("Session rehydrated", "user", user.ID)
	return user, nil
}

// Login stores the user id and makes the user current.
func (s *Session) Login(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return fmt.Errorf("login: user id is required")
	}
	if err := s.store.Save(ctx, s.clientID, ports.Token{UserID: user.ID, SavedAt: s.now().UTC()}); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	s.set(user)
	s.logger.Info("Logged in", "user", user.ID)
	return nil
}

// Logout clears the stored id and the current user.
func (s *Session) Logout(ctx context.Context) error {
	s.set(nil)
	if err := s.store.Delete(ctx, s.clientID); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	s.logger.Info("Logged out")
	return nil
}

// Current returns a copy of the logged-in user, or nil.
func (s *Session) Current() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) set(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	cp := *u
	s.user = &cp
}
