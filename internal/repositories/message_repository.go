package repositories

import (
	"context"

	"github.com/anonto42/soundscape/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository defines the interface for direct message storage
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	// FindConversation returns messages matching (sender1 -> recipient1) or
	// (sender2 -> recipient2), oldest first. Callers pass (a, b, b, a).
	FindConversation(ctx context.Context, sender1, recipient1, sender2, recipient2 uint) ([]models.Message, error)
}

type postgresMessageRepository struct {
	db *gorm.DB
}

func NewPostgresMessageRepository(db *gorm.DB) MessageRepository {
	return &postgresMessageRepository{db: db}
}

func (r *postgresMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(message).Error
}

func (r *postgresMessageRepository) FindConversation(ctx context.Context, sender1, recipient1, sender2, recipient2 uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			sender1, recipient1, sender2, recipient2).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}
