package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

type UserStub struct {
	user models.User
}

func NewUserStub() UserStub {
	username := strings.ToLower(gofakeit.Username()) + gofakeit.DigitN(4)
	return UserStub{user: models.User{
		Username:    username,
		Email:       username + "@" + gofakeit.DomainName(),
		ProfileIcon: "🎵",
		BannerColor: "#FF6B6B",
		Bio:         gofakeit.Sentence(8),
		CreatedAt:   time.Now().UTC(),
	}}
}

func (s UserStub) WithUsername(username string) UserStub {
	s.user.Username = username
	return s
}

func (s UserStub) WithEmail(email string) UserStub {
	s.user.Email = email
	return s
}

func (s UserStub) WithPassword(hash string) UserStub {
	s.user.Password = hash
	return s
}

func (s UserStub) WithSpotify(spotifyUserID, accessToken string) UserStub {
	id := spotifyUserID
	now := time.Now().UTC()
	s.user.SpotifyUserID = &id
	s.user.SpotifyAccessToken = accessToken
	s.user.SpotifyConnectedAt = &now
	return s
}

func (s UserStub) Get() models.User {
	return s.user
}

// Insert stores the stub and returns the persisted user.
func (s UserStub) Insert(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := s.user
	if err := db.WithContext(context.Background()).Create(&user).Error; err != nil {
		t.Fatalf("Failed to insert user stub: %v", err)
	}
	return user
}

// InsertUsers stores n random users.
func InsertUsers(t *testing.T, db *gorm.DB, n int) []models.User {
	t.Helper()
	users := make([]models.User, n)
	for i := range users {
		users[i] = NewUserStub().Insert(t, db)
	}
	return users
}
