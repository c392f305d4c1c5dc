package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"qbank/internal/bankapi"
	"qbank/internal/domain"
)

// DefaultVerifyInterval matches the reference behavior of re-checking the
// token every 30 minutes.
const DefaultVerifyInterval = 30 * time.Minute

// SessionService guards the token lifecycle: it verifies the persisted
// credential before the rest of the application initializes, re-verifies
// it periodically, and clears persisted state the moment the server stops
// accepting it. Every failure path fails closed to ErrAuthRequired.
type SessionService struct {
	client     *bankapi.Client
	clearCreds func() error
	logger     *slog.Logger

	mu   sync.Mutex
	user *domain.User
	stop chan struct{}
}

// NewSessionService creates a session service. clearCreds removes the
// persisted token (config file in production, a recorder in tests); nil
// means nothing is persisted.
func NewSessionService(client *bankapi.Client, clearCreds func() error, logger *slog.Logger) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	if clearCreds == nil {
		clearCreds = func() error { return nil }
	}
	return &SessionService{
		client:     client,
		clearCreds: clearCreds,
		logger:     logger,
	}
}

// Init establishes the session from a persisted token. An empty token
// returns ErrAuthRequired without touching the network. A token the
// server rejects (or cannot be verified at all) clears persisted
// credentials and returns ErrAuthRequired. On success the resolved
// identity is retained and returned; the application initializes once
// after this.
func (s *SessionService) Init(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrAuthRequired
	}

	s.client.SetToken(token)

	user, err := s.client.VerifyToken(ctx)
	if err != nil {
		// Fail closed: a verification transport failure is treated the
		// same as an invalid token.
		s.logger.Warn("token verification failed", "error", err)
		if clearErr := s.clearCreds(); clearErr != nil {
			s.logger.Error("failed to clear credentials", "error", clearErr)
		}
		return nil, domain.ErrAuthRequired
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	s.logger.Info("session established", "username", user.Username, "role", user.Role)
	return user, nil
}

// User returns the identity resolved at Init, or nil before it.
func (s *SessionService) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// StartAutoVerify re-verifies the token every interval. On the first
// failed verification it clears credentials, invokes onInvalid once and
// stops checking. Call StopAutoVerify on shutdown.
func (s *SessionService) StartAutoVerify(interval time.Duration, onInvalid func()) {
	if interval <= 0 {
		interval = DefaultVerifyInterval
	}

	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return // already running
	}
	stop := make(chan struct{})
	s.stop = stop
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
				_, err := s.client.VerifyToken(ctx)
				cancel()

				if err == nil {
					continue
				}

				s.logger.Warn("periodic token verification failed", "error", err)
				if clearErr := s.clearCreds(); clearErr != nil {
					s.logger.Error("failed to clear credentials", "error", clearErr)
				}
				if onInvalid != nil {
					onInvalid()
				}
				return
			}
		}
	}()
}

// StopAutoVerify stops the background verification loop.
func (s *SessionService) StopAutoVerify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Logout invalidates the token server-side (best effort) and clears
// persisted credentials regardless of the server's answer.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		s.logger.Warn("server logout failed", "error", err)
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	return s.clearCreds()
}
