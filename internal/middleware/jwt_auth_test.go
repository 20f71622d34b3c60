package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, err := issuer.Issue(&models.User{ID: 7, Username: "alice"})
	require.NoError(t, err)

	claims, err := issuer.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestTokenIssuerRejectsWrongPurpose(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	state, err := issuer.IssueSpotifyState(7)
	require.NoError(t, err)

	_, err = issuer.ParseSession(state)
	assert.Error(t, err, "a state token must not authenticate a session")

	userID, err := issuer.ParseSpotifyState(state)
	require.NoError(t, err)
	assert.Equal(t, uint(7), userID)
}

func TestTokenIssuerRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := issuer.Issue(&models.User{ID: 1, Username: "bob"})
	require.NoError(t, err)

	fresh := NewTokenIssuer("test-secret", time.Hour)
	_, err = fresh.ParseSession(expired)
	assert.Error(t, err)

	other := NewTokenIssuer("other-secret", time.Hour)
	foreign, err := other.Issue(&models.User{ID: 1, Username: "bob"})
	require.NoError(t, err)
	_, err = fresh.ParseSession(foreign)
	assert.Error(t, err)
}

func TestJWTAuthMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Issue(&models.User{ID: 42, Username: "carol"})
	require.NoError(t, err)

	e := echo.New()
	handler := JWTAuthMiddleware(issuer)(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantUserID uint
	}{
		{"missing header", "", http.StatusUnauthorized, 0},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, 0},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, 0},
		{"valid token", "Bearer " + token, http.StatusOK, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := handler(c)
			if tt.wantStatus == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUserID, UserIDFromContext(c))
				return
			}
			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.wantStatus, he.Code)
			assert.Equal(t, uint(0), UserIDFromContext(c))
		})
	}
}
