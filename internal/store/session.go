// internal/store/session.go
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/apperrors"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/validate"
)

// Session is the projection of authentication state that survives restarts.
type Session struct {
	User          *models.User `json:"user"`
	Authenticated bool         `json:"authenticated"`
	Token         string       `json:"token"`
}

// SessionStore owns the bearer token and the authenticated user. The gateway
// reads the token through Token; a 401 from the service lands back here via
// Invalidate.
type SessionStore struct {
	gw  AuthGateway
	log *logrus.Logger

	mu       sync.Mutex
	session  Session
	loading  bool
	errMsg   string
	onChange func(Session)
}

func NewSessionStore(gw AuthGateway, log *logrus.Logger) *SessionStore {
	return &SessionStore{gw: gw, log: log}
}

// OnChange registers the persistence subscriber. It must be set during wiring,
// before the store is used concurrently.
func (s *SessionStore) OnChange(fn func(Session)) {
	s.onChange = fn
}

// Seed restores a persisted session. A session whose token has already
// expired is discarded rather than restored.
func (s *SessionStore) Seed(session Session) {
	if session.Token != "" {
		if expiry, ok := tokenExpiry(session.Token); ok && expiry.Before(time.Now()) {
			s.log.Debug("persisted session token expired, discarding")
			return
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Login exchanges credentials for a token, then loads the account behind it.
func (s *SessionStore) Login(ctx context.Context, creds models.Credentials) error {
	if err := validate.Struct(creds); err != nil {
		verr := &apperrors.ValidationError{Reason: "username and password are required"}
		s.setError(verr.Reason)
		return verr
	}

	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	token, err := s.gw.Login(ctx, creds)
	if err != nil {
		s.failLogin(err)
		return err
	}

	s.mu.Lock()
	s.session.Token = token.Token
	s.mu.Unlock()

	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		s.failLogin(err)
		return err
	}

	s.mu.Lock()
	s.session = Session{User: user, Authenticated: true, Token: token.Token}
	s.loading = false
	snap := s.session
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("login succeeded")
	s.notify(snap)
	return nil
}

// Logout drops the token and user state.
func (s *SessionStore) Logout() {
	s.mu.Lock()
	s.session = Session{}
	s.errMsg = ""
	snap := s.session
	s.mu.Unlock()

	s.log.Info("logged out")
	s.notify(snap)
}

// Invalidate is the 401 hook: the service no longer accepts our token, so the
// session is gone whatever we thought locally.
func (s *SessionStore) Invalidate() {
	s.mu.Lock()
	cleared := s.session.Authenticated || s.session.Token != ""
	s.session = Session{}
	snap := s.session
	s.mu.Unlock()

	if cleared {
		s.log.Warn("session invalidated by server")
		s.notify(snap)
	}
}

// RefreshUser re-reads the account behind the current token. A failure drops
// the session: the token is no longer good for anything.
func (s *SessionStore) RefreshUser(ctx context.Context) error {
	s.mu.Lock()
	authenticated := s.session.Authenticated
	s.mu.Unlock()
	if !authenticated {
		return nil
	}

	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		s.mu.Lock()
		s.session = Session{}
		s.errMsg = "failed to get user data"
		snap := s.session
		s.mu.Unlock()
		s.notify(snap)
		return err
	}

	s.mu.Lock()
	s.session.User = user
	snap := s.session
	s.mu.Unlock()
	s.notify(snap)
	return nil
}

// Token implements the gateway's token source.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

func (s *SessionStore) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.User == nil {
		return nil
	}
	u := *s.session.User
	return &u
}

func (s *SessionStore) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Authenticated
}

func (s *SessionStore) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *SessionStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// ClearError discards the stored error message.
func (s *SessionStore) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// TokenExpiresAt reports when the current bearer token expires, when one is
// held and carries an expiry claim.
func (s *SessionStore) TokenExpiresAt() (time.Time, bool) {
	s.mu.Lock()
	token := s.session.Token
	s.mu.Unlock()
	if token == "" {
		return time.Time{}, false
	}
	return tokenExpiry(token)
}

func (s *SessionStore) failLogin(err error) {
	message := loginErrorMessage(err)
	s.mu.Lock()
	s.session = Session{}
	s.loading = false
	s.errMsg = message
	snap := s.session
	s.mu.Unlock()

	s.log.WithError(err).Error("login failed")
	s.notify(snap)
}

func (s *SessionStore) setError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = message
}

func (s *SessionStore) notify(snap Session) {
	if s.onChange != nil {
		s.onChange(snap)
	}
}

func loginErrorMessage(err error) string {
	var netErr *apperrors.NetworkError
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "invalid credentials"
	case errors.Is(err, apperrors.ErrForbidden):
		return "account is disabled"
	case errors.As(err, &netErr):
		return "cannot connect to server"
	}
	return errorMessage(err, "login failed")
}

// tokenExpiry reads the expiry claim without verifying the signature; the
// client has no signing secret and only needs the timestamp.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
