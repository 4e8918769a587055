// internal/store/session_test.go
package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront/internal/apperrors"
	"github.com/javajoker/storefront/internal/models"
)

type fakeAuth struct {
	loginFn   func(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error)
	currentFn func(ctx context.Context) (*models.User, error)
}

func (f *fakeAuth) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, creds)
	}
	return &models.TokenResponse{Token: "token-abc", Username: creds.Username}, nil
}

func (f *fakeAuth) CurrentUser(ctx context.Context) (*models.User, error) {
	if f.currentFn != nil {
		return f.currentFn(ctx)
	}
	return &models.User{ID: 1, FirstName: "Ada", Role: models.RoleCustomer, Active: true}, nil
}

func signedToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestSessionLoginSuccess(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, testLogger())

	err := s.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"})

	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "token-abc", s.Token())
	require.NotNil(t, s.User())
	assert.Equal(t, "Ada", s.User().FirstName)
	assert.Empty(t, s.Err())
}

func TestSessionLoginInvalidCredentials(t *testing.T) {
	gw := &fakeAuth{
		loginFn: func(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
			return nil, &apperrors.APIError{StatusCode: 401}
		},
	}
	s := NewSessionStore(gw, testLogger())

	err := s.Login(context.Background(), models.Credentials{Username: "ada", Password: "bad"})

	require.Error(t, err)
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Equal(t, "invalid credentials", s.Err())
}

func TestSessionClearError(t *testing.T) {
	gw := &fakeAuth{
		loginFn: func(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
			return nil, &apperrors.APIError{StatusCode: 401}
		},
	}
	s := NewSessionStore(gw, testLogger())

	require.Error(t, s.Login(context.Background(), models.Credentials{Username: "ada", Password: "bad"}))
	require.NotEmpty(t, s.Err())

	s.ClearError()

	assert.Empty(t, s.Err())
}

func TestSessionLoginDisabledAccount(t *testing.T) {
	gw := &fakeAuth{
		loginFn: func(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
			return nil, &apperrors.APIError{StatusCode: 403}
		},
	}
	s := NewSessionStore(gw, testLogger())

	err := s.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"})

	require.Error(t, err)
	assert.Equal(t, "account is disabled", s.Err())
}

func TestSessionLoginNetworkFailure(t *testing.T) {
	gw := &fakeAuth{
		loginFn: func(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
			return nil, &apperrors.NetworkError{Err: errors.New("connection refused")}
		},
	}
	s := NewSessionStore(gw, testLogger())

	err := s.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"})

	require.Error(t, err)
	assert.Equal(t, "cannot connect to server", s.Err())
}

func TestSessionLoginRequiresCredentials(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, testLogger())

	err := s.Login(context.Background(), models.Credentials{})

	var valErr *apperrors.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.False(t, s.Authenticated())
}

func TestSessionLogoutClearsState(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, testLogger())
	require.NoError(t, s.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"}))

	s.Logout()

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}

func TestSessionInvalidateNotifiesOnce(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, testLogger())
	var mu sync.Mutex
	notifications := 0
	s.OnChange(func(Session) {
		mu.Lock()
		notifications++
		mu.Unlock()
	})
	require.NoError(t, s.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"}))

	s.Invalidate()
	s.Invalidate() // already empty, no second notification

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, notifications) // login + first invalidate
	assert.False(t, s.Authenticated())
}

func TestSessionSeedDiscardsExpiredToken(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, testLogger())
	user := &models.User{ID: 1, FirstName: "Ada"}

	s.Seed(Session{
		User:          user,
		Authenticated: true,
		Token:         signedToken(t, time.Now().Add(-time.Hour)),
	})

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
}

func TestSessionSeedRestoresValidToken(t *testing.T) {
	s := NewSessionStore(&fakeAuth{}, testLogger())
	token := signedToken(t, time.Now().Add(time.Hour))

	s.Seed(Session{
		User:          &models.User{ID: 1, FirstName: "Ada"},
		Authenticated: true,
		Token:         token,
	})

	assert.True(t, s.Authenticated())
	assert.Equal(t, token, s.Token())

	expiry, ok := s.TokenExpiresAt()
	require.True(t, ok)
	assert.True(t, expiry.After(time.Now()))
}

func TestSessionRefreshUserFailureDropsSession(t *testing.T) {
	calls := 0
	gw := &fakeAuth{
		currentFn: func(ctx context.Context) (*models.User, error) {
			calls++
			if calls > 1 {
				return nil, &apperrors.APIError{StatusCode: 401}
			}
			return &models.User{ID: 1, FirstName: "Ada"}, nil
		},
	}
	s := NewSessionStore(gw, testLogger())
	require.NoError(t, s.Login(context.Background(), models.Credentials{Username: "ada", Password: "pw"}))

	err := s.RefreshUser(context.Background())

	require.Error(t, err)
	assert.False(t, s.Authenticated())
	assert.Equal(t, "failed to get user data", s.Err())
}

func TestSessionRefreshUserNoopWhenLoggedOut(t *testing.T) {
	gw := &fakeAuth{
		currentFn: func(ctx context.Context) (*models.User, error) {
			t.Fatal("must not call the gateway without a session")
			return nil, nil
		},
	}
	s := NewSessionStore(gw, testLogger())

	assert.NoError(t, s.RefreshUser(context.Background()))
}
