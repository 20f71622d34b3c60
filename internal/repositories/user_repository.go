package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/soundscape/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
// Lookups return (nil, nil) when no user matches.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUserBySpotifyID(ctx context.Context, spotifyUserID string) (*models.User, error)
	UsersExist(ctx context.Context, ids ...uint) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	GetSpotifyLinkedUsers(ctx context.Context, excludeID uint) ([]models.User, error)
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	return firstUser(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("username = ?", username))
}

// GetUserByEmail matches case-insensitively.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email))
}

func (r *PostgresUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("firebase_uid = ?", firebaseUID))
}

func (r *PostgresUserRepository) GetUserBySpotifyID(ctx context.Context, spotifyUserID string) (*models.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("spotify_user_id = ?", spotifyUserID))
}

// UsersExist reports whether every id resolves to a stored user.
func (r *PostgresUserRepository) UsersExist(ctx context.Context, ids ...uint) (bool, error) {
	distinct := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return false, nil
		}
		distinct[id] = struct{}{}
	}
	if len(distinct) == 0 {
		return false, nil
	}

	keys := make([]uint, 0, len(distinct))
	for id := range distinct {
		keys = append(keys, id)
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id IN ?", keys).Count(&count).Error; err != nil {
		return false, err
	}
	return count == int64(len(keys)), nil
}

// UpdateUser saves all columns, so nil pointer fields are written as NULL.
func (r *PostgresUserRepository) UpdateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// SearchUsers searches for users by username or email
func (r *PostgresUserRepository) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	if err := r.db.WithContext(ctx).
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", pattern, pattern).
		Order("username ASC").
		Limit(50).
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *PostgresUserRepository) GetSpotifyLinkedUsers(ctx context.Context, excludeID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id <> ? AND spotify_user_id IS NOT NULL AND spotify_access_token <> ''", excludeID).
		Order("spotify_connected_at DESC").
		Find(&users).Error
	return users, err
}

func firstUser(q *gorm.DB) (*models.User, error) {
	var user models.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
