package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxBioLength = 500

var (
	ProfileIcons = []string{
		"😀", "😎", "🤩", "😊", "🥳", "😇", "🤓", "🧠", "🎵", "🎸",
		"🎤", "🎧", "🎹", "🥁", "🎺", "🎪", "🌟", "⭐", "🔥", "💎",
		"🌈", "🦄", "🐱", "🐶", "🦋", "🌸", "🌺", "🍀", "⚡", "🌙",
	}
	BannerColors = []string{
		"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
		"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
		"#F8C471", "#82E0AA", "#F1948A", "#D7BDE2",
	}

	usernameCleaner = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// ExternalIdentity is a verified identity from an external login provider.
type ExternalIdentity struct {
	UID   string
	Email string
	Name  string
}

// SpotifyAccount is what linking stores on the user.
type SpotifyAccount struct {
	UserID       string
	DisplayName  string
	AccessToken  string
	RefreshToken string
	TopArtists   []string
}

type UserService struct {
	users repositories.UserRepository
	log   *logrus.Logger
	now   func() time.Time
}

func NewUserService(users repositories.UserRepository, log *logrus.Logger) *UserService {
	return &UserService{users: users, log: log, now: time.Now}
}

// Register creates a local account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}
	existing, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:    username,
		Email:       email,
		Password:    string(hashed),
		ProfileIcon: ProfileIcons[0],
		BannerColor: BannerColors[0],
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateAccountError(ctx, username, email)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) duplicateAccountError(ctx context.Context, username, email string) error {
	if existing, err := s.users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		if !strings.EqualFold(existing.Username, username) {
			return ErrEmailTaken
		}
	}
	return ErrUsernameTaken
}

// Authenticate checks a username or email against the stored password hash.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.TrimSpace(login)

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.users.GetUserByEmail(ctx, login)
	} else {
		user, err = s.users.GetUserByUsername(ctx, login)
	}
	if err != nil {
		return nil, err
	}
	if user == nil || user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoginExternal resolves an externally verified identity to a local user:
// by provider UID first, then by email (linking the UID), else a new account.
func (s *UserService) LoginExternal(ctx context.Context, identity ExternalIdentity) (*models.User, error) {
	user, err := s.users.GetUserByFirebaseUID(ctx, identity.UID)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	if identity.Email != "" {
		user, err = s.users.GetUserByEmail(ctx, identity.Email)
		if err != nil {
			return nil, err
		}
		if user != nil {
			uid := identity.UID
			user.FirebaseUID = &uid
			if err := s.users.UpdateUser(ctx, user); err != nil {
				return nil, err
			}
			return user, nil
		}
	}

	username, err := s.uniqueUsername(ctx, identity)
	if err != nil {
		return nil, err
	}
	uid := identity.UID
	user = &models.User{
		Username:    username,
		Email:       identity.Email,
		FirebaseUID: &uid,
		ProfileIcon: ProfileIcons[0],
		BannerColor: BannerColors[0],
	}
	if user.Email == "" {
		user.Email = identity.UID + "@users.noreply.local"
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", user.ID).Info("created user from external login")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) Search(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.users.SearchUsers(ctx, query)
}

// UpdateProfile applies a profile edit. Icons and colors outside the allowed
// sets and bios over 500 characters are ignored. Favorite song fields are
// only replaced when a song id is given.
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if slices.Contains(ProfileIcons, req.ProfileIcon) {
		user.ProfileIcon = req.ProfileIcon
	}
	if slices.Contains(BannerColors, req.BannerColor) {
		user.BannerColor = req.BannerColor
	}
	if len([]rune(req.Bio)) <= maxBioLength {
		user.Bio = strings.TrimSpace(req.Bio)
	}
	if songID := strings.TrimSpace(req.FavoriteSongID); songID != "" {
		user.FavoriteSongID = songID
		user.FavoriteSongName = strings.TrimSpace(req.FavoriteSongName)
		user.FavoriteSongArtist = strings.TrimSpace(req.FavoriteSongArtist)
		user.FavoriteSongImage = strings.TrimSpace(req.FavoriteSongImage)
		user.FavoriteSongURL = strings.TrimSpace(req.FavoriteSongURL)
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// LinkSpotify stores a Spotify account on userID. A Spotify account can be
// linked to only one user.
func (s *UserService) LinkSpotify(ctx context.Context, userID uint, account SpotifyAccount) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	owner, err := s.users.GetUserBySpotifyID(ctx, account.UserID)
	if err != nil {
		return nil, err
	}
	if owner != nil && owner.ID != user.ID {
		return nil, ErrSpotifyInUse
	}

	spotifyID := account.UserID
	connectedAt := s.now()
	user.SpotifyUserID = &spotifyID
	user.SpotifyDisplayName = account.DisplayName
	user.SpotifyAccessToken = account.AccessToken
	user.SpotifyRefreshToken = account.RefreshToken
	user.SpotifyConnectedAt = &connectedAt
	user.TopArtists = strings.Join(account.TopArtists, ", ")

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UnlinkSpotify(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.SpotifyUserID = nil
	user.SpotifyDisplayName = ""
	user.SpotifyAccessToken = ""
	user.SpotifyRefreshToken = ""
	user.SpotifyConnectedAt = nil
	user.TopArtists = ""

	if err := s.users.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SpotifyAccessToken returns the stored token of a linked user.
func (s *UserService) SpotifyAccessToken(ctx context.Context, userID uint) (string, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !user.SpotifyLinked() {
		return "", ErrSpotifyNotLinked
	}
	return user.SpotifyAccessToken, nil
}

// MusicMatches lists other users with a linked Spotify account.
func (s *UserService) MusicMatches(ctx context.Context, userID uint) ([]models.User, error) {
	return s.users.GetSpotifyLinkedUsers(ctx, userID)
}

func (s *UserService) uniqueUsername(ctx context.Context, identity ExternalIdentity) (string, error) {
	base := identity.Name
	if at := strings.Index(identity.Email, "@"); at > 0 {
		base = identity.Email[:at]
	}
	base = usernameCleaner.ReplaceAllString(base, "")
	if len(base) < 3 {
		base = "user" + base
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 1; i <= 100; i++ {
		existing, err := s.users.GetUserByUsername(ctx, candidate)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return "", fmt.Errorf("could not derive a free username from %q", base)
}
