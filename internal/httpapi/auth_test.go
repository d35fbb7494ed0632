package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestTokenService(t *testing.T, apiKey string) *TokenService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), bcrypt.MinCost)
	require.NoError(t, err)
	return NewTokenService("test-secret", string(hash), time.Minute)
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	tokens := newTestTokenService(t, "super-key")

	token, err := tokens.Issue("super-key", "ops")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	caller, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", caller)
}

func TestTokenServiceRejectsWrongKey(t *testing.T) {
	tokens := newTestTokenService(t, "super-key")

	_, err := tokens.Issue("wrong-key", "ops")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestTokenServiceRejectsForeignToken(t *testing.T) {
	tokens := newTestTokenService(t, "super-key")
	other := newTestTokenService(t, "super-key")
	other.secret = []byte("different-secret")

	token, err := other.Issue("super-key", "ops")
	require.NoError(t, err)

	_, err = tokens.Validate(token)
	assert.Error(t, err)
}

func TestTokenHandler(t *testing.T) {
	tokens := newTestTokenService(t, "super-key")
	handler := NewTokenHandler(tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"apiKey":"super-key","caller":"ops"}`))
	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"token"`)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{"apiKey":"nope"}`))
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", strings.NewReader(`{`))
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := newTestTokenService(t, "super-key")

	var gotCaller string
	protected := AuthMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// No header.
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Valid token carries the caller through.
	token, err := tokens.Issue("super-key", "ops")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops", gotCaller)
}
