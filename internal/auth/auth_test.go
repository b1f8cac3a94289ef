package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sebuszqo/FinanceTracker/internal/auth/session"
	"github.com/sebuszqo/FinanceTracker/internal/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type mockUserService struct {
	users    map[string]*user.User
	failWith error
}

func newMockUserService(t *testing.T, password string) *mockUserService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockUserService{users: map[string]*user.User{
		"user-1": {ID: "user-1", Email: "jane@example.com", Name: "Jane", PasswordHash: string(hash)},
	}}
}

func (m *mockUserService) Register(context.Context, string, string, string) (*user.User, error) {
	return nil, errors.New("not implemented")
}

func (m *mockUserService) GetUserByID(_ context.Context, userID string) (*user.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserService) GetUserByEmail(_ context.Context, email string) (*user.User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m *mockUserService) ListUsers(context.Context) ([]user.User, error) {
	return nil, nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string, errors ...[]string) {
	respondJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
		"code":    status,
	})
}

func newTestJWTManager(t *testing.T) *JWTManager {
	t.Helper()
	manager, err := NewJWTManager("test-secret", time.Minute)
	require.NoError(t, err)
	return manager
}

func TestNewJWTManager_RequiresSecret(t *testing.T) {
	_, err := NewJWTManager("", time.Minute)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestJWTManager_RoundTrip(t *testing.T) {
	manager := newTestJWTManager(t)

	token, err := manager.GenerateAccessJWT("user-1")
	require.NoError(t, err)

	userID, err := manager.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestJWTManager_Expired(t *testing.T) {
	manager := newTestJWTManager(t)
	manager.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := manager.GenerateAccessJWT("user-1")
	require.NoError(t, err)

	_, err = manager.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrExpiredJWTToken)
}

func TestJWTManager_WrongSecret(t *testing.T) {
	other, err := NewJWTManager("another-secret", time.Minute)
	require.NoError(t, err)
	token, err := other.GenerateAccessJWT("user-1")
	require.NoError(t, err)

	_, err = newTestJWTManager(t).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidJWTToken)
}

func TestLogin(t *testing.T) {
	users := newMockUserService(t, "supersecret")
	svc := NewAuthService(users, newTestJWTManager(t))
	ctx := context.Background()

	u, token, err := svc.Login(ctx, "jane@example.com", "supersecret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.NotEmpty(t, token)

	_, _, err = svc.Login(ctx, "jane@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	users.failWith = errors.New("database down")
	_, _, err = svc.Login(ctx, "jane@example.com", "supersecret")
	assert.ErrorIs(t, err, ErrInternalError)
}

func TestHandleLogin(t *testing.T) {
	svc := NewAuthService(newMockUserService(t, "supersecret"), newTestJWTManager(t))
	handler := NewHandler(svc, respondJSON, respondError)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"success", `{"email":"jane@example.com","password":"supersecret"}`, http.StatusOK},
		{"bad credentials", `{"email":"jane@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"missing fields", `{"email":"jane@example.com"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.HandleLogin(w, httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tc.body)))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestJWTAccessTokenMiddleware(t *testing.T) {
	users := newMockUserService(t, "supersecret")
	manager := newTestJWTManager(t)
	svc := NewAuthService(users, manager)

	var seenUserID string
	protected := svc.JWTAccessTokenMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = session.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	validToken, err := manager.GenerateAccessJWT("user-1")
	require.NoError(t, err)
	ghostToken, err := manager.GenerateAccessJWT("ghost")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + validToken, http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", validToken, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghostToken, http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seenUserID = ""
			req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusNoContent {
				assert.Equal(t, "user-1", seenUserID)
			} else {
				assert.Empty(t, seenUserID)
			}
		})
	}
}
