package auth

import (
	"chat-dm/errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestHashAndCompare(t *testing.T) {
	req := require.New(t)
	password := "MyPassw0rdIsStrong!"

	hash, err := HashPassword(password)
	req.NoError(err)
	req.True(strings.HasPrefix(hash, "$argon2id$"))

	match, err := ComparePassword(password, hash)
	req.NoError(err)
	req.True(match)

	match, err = ComparePassword("WrongPassword", hash)
	req.NoError(err)
	req.False(match)
}

func TestComparePassword_Invalid_Hash(t *testing.T) {
	_, err := ComparePassword("secret", "$2a$10$bcrypt-style-hash")
	require.Error(t, err)
}

func TestSignupValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     SignupRequest
		wantErr bool
	}{
		{"Valid request", SignupRequest{"Alice", "alice@example.com", "secret1"}, false},
		{"Missing name", SignupRequest{"  ", "alice@example.com", "secret1"}, true},
		{"Invalid email", SignupRequest{"Alice", "notanemail", "secret1"}, true},
		{"Password too short", SignupRequest{"Alice", "alice@example.com", "12345"}, true},
		{"Password too long", SignupRequest{"Alice", "alice@example.com", strings.Repeat("a", 73)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSignup(tt.req)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestToken_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.GenerateToken("user-1", []string{"user"})
	req.NoError(err)

	claims, err := issuer.ValidateToken(token)
	req.NoError(err)
	req.Equal("user-1", claims.UserID)
	req.Equal([]string{"user"}, claims.Roles)
}

func TestToken_Rejects_Foreign_Or_Expired(t *testing.T) {
	req := require.New(t)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)
	expired := NewTokenIssuer("test-secret", -time.Minute)

	foreign, err := other.GenerateToken("user-1", nil)
	req.NoError(err)
	_, err = issuer.ValidateToken(foreign)
	req.Error(err)

	old, err := expired.GenerateToken("user-1", nil)
	req.NoError(err)
	_, err = issuer.ValidateToken(old)
	req.Error(err)
}

func TestProtectRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	issuer := NewTokenIssuer("test-secret", time.Hour)
	known := func(id string) (bool, error) { return id == "user-1", nil }

	router := gin.New()
	router.GET("/me", ProtectRoute(issuer, known), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	valid, err := issuer.GenerateToken("user-1", nil)
	require.NoError(t, err)
	ghost, err := issuer.GenerateToken("ghost", nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(r *http.Request) {}, http.StatusUnauthorized, ""},
		{"garbage token", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "nope"}) }, http.StatusUnauthorized, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: valid}) }, http.StatusOK, "user-1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, "user-1"},
		{"deleted user", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: ghost}) }, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(r)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, r)

			require.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				require.Equal(t, tt.body, w.Body.String())
			}
		})
	}
}
