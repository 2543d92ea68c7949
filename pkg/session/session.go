// Package session holds the bearer token issued at login.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Session persists the access token through a storage.Store. The token is
// written at login, read on every outgoing request and cleared on logout,
// on expiry, or when the backend answers 401.
type Session struct {
	mu    sync.Mutex
	store storage.Store
	log   *zap.Logger
	now   func() time.Time
}

func New(store storage.Store, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{store: store, log: log, now: time.Now}
}

// Token returns the stored token, or false when there is none. An expired
// token is cleared and reported as absent.
func (s *Session) Token() (*oauth2.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	access, ok := s.store.Get(storage.KeyToken)
	if !ok || access == "" {
		return nil, false
	}

	tok := &oauth2.Token{AccessToken: access, TokenType: "Bearer"}
	if raw, ok := s.store.Get(storage.KeyTokenExpiry); ok && raw != "" {
		expiry, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			s.log.Warn("ignoring unreadable token expiry", zap.String("expiry", raw), zap.Error(err))
		} else {
			tok.Expiry = expiry
		}
	}

	if !tok.Expiry.IsZero() && !tok.Expiry.After(s.now()) {
		s.log.Info("stored token expired", zap.Time("expiry", tok.Expiry))
		if err := s.clearLocked(); err != nil {
			s.log.Error("failed to clear expired token", zap.Error(err))
		}
		return nil, false
	}

	return tok, true
}

// Save stores tok, replacing any previous token.
func (s *Session) Save(tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(storage.KeyToken, tok.AccessToken); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	if tok.Expiry.IsZero() {
		if err := s.store.Delete(storage.KeyTokenExpiry); err != nil {
			return fmt.Errorf("failed to save token expiry: %w", err)
		}
	} else if err := s.store.Set(storage.KeyTokenExpiry, tok.Expiry.UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("failed to save token expiry: %w", err)
	}

	s.log.Info("token saved", zap.Bool("expires", !tok.Expiry.IsZero()))
	return nil
}

// Clear removes the token.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clearLocked()
}

func (s *Session) clearLocked() error {
	if err := s.store.Delete(storage.KeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	if err := s.store.Delete(storage.KeyTokenExpiry); err != nil {
		return fmt.Errorf("failed to clear token expiry: %w", err)
	}
	return nil
}
