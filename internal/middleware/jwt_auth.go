package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// UserContextKey is where the authenticated claims are stored on the echo context.
	UserContextKey = "user"

	sessionSubject      = "session"
	spotifyStateSubject = "spotify-link"
	spotifyStateTTL     = 10 * time.Minute
)

// TokenIssuer signs and verifies HS256 tokens for sessions and OAuth state.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a session token for user.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	return t.sign(user.ID, user.Username, sessionSubject, t.ttl)
}

// IssueSpotifyState returns a short-lived token binding an OAuth round trip to userID.
func (t *TokenIssuer) IssueSpotifyState(userID uint) (string, error) {
	return t.sign(userID, "", spotifyStateSubject, spotifyStateTTL)
}

// ParseSession validates a session token.
func (t *TokenIssuer) ParseSession(token string) (*models.JwtCustomClaims, error) {
	return t.parse(token, sessionSubject)
}

// ParseSpotifyState validates a state token and returns the user id it carries.
func (t *TokenIssuer) ParseSpotifyState(state string) (uint, error) {
	claims, err := t.parse(state, spotifyStateSubject)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

func (t *TokenIssuer) sign(userID uint, username, subject string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := &models.JwtCustomClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) parse(tokenString, subject string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject != subject || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// JWTAuthMiddleware checks for a valid session token and stores its claims
// under UserContextKey.
func JWTAuthMiddleware(issuer *TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing Authorization header")
			}

			// Expecting "Bearer <token>"
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization header format")
			}

			claims, err := issuer.ParseSession(parts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrSignatureInvalid) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token signature")
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(UserContextKey, claims)
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user id, or 0 if none.
func UserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(UserContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}
