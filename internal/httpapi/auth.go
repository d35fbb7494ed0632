package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const callerKey contextKey = "caller"

// TokenService issues and validates the HS256 bearer tokens used by the REST
// API. Clients exchange the shared API key for a short-lived token.
type TokenService struct {
	secret     []byte
	apiKeyHash []byte
	expiresIn  time.Duration
}

// NewTokenService returns configured token service.
func NewTokenService(secret, apiKeyHash string, expiresIn time.Duration) *TokenService {
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	return &TokenService{
		secret:     []byte(secret),
		apiKeyHash: []byte(apiKeyHash),
		expiresIn:  expiresIn,
	}
}

// ErrInvalidAPIKey is returned when the presented key does not match.
var ErrInvalidAPIKey = errors.New("auth: invalid api key")

// Issue exchanges an API key for a signed token.
func (t *TokenService) Issue(apiKey, caller string) (string, error) {
	if err := bcrypt.CompareHashAndPassword(t.apiKeyHash, []byte(apiKey)); err != nil {
		return "", ErrInvalidAPIKey
	}

	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   caller,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.expiresIn)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Validate verifies a token and returns the caller it was issued to.
func (t *TokenService) Validate(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("auth: unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid claims")
	}
	return claims.Subject, nil
}

// NewTokenHandler handles POST /api/v1/auth/token.
func NewTokenHandler(tokens *TokenService) http.HandlerFunc {
	type request struct {
		APIKey string `json:"apiKey"`
		Caller string `json:"caller"`
	}
	type response struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		req.APIKey = strings.TrimSpace(req.APIKey)
		if req.APIKey == "" {
			writeError(w, http.StatusBadRequest, "apiKey is required")
			return
		}
		if req.Caller == "" {
			req.Caller = "api"
		}

		token, err := tokens.Issue(req.APIKey, req.Caller)
		if err != nil {
			if errors.Is(err, ErrInvalidAPIKey) {
				writeError(w, http.StatusUnauthorized, "invalid credentials")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to issue token")
			return
		}

		writeJSON(w, http.StatusOK, response{Token: token, TokenType: "Bearer"})
	}
}

// AuthMiddleware validates bearer tokens and stores the caller in the context.
func AuthMiddleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			caller, err := tokens.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFromContext retrieves the caller set by AuthMiddleware.
func CallerFromContext(ctx context.Context) string {
	if caller, ok := ctx.Value(callerKey).(string); ok && caller != "" {
		return caller
	}
	return "api"
}
