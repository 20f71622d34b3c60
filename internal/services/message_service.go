package services

import (
	"context"
	"strings"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const maxMessageLength = 1000

// MessageService stores direct messages. Every read and write is gated on the
// two users being mutual followers.
type MessageService struct {
	messages      repositories.MessageRepository
	users         repositories.UserRepository
	follows       *FollowService
	notifications repositories.NotificationRepository
	log           *logrus.Logger
	now           func() time.Time
}

func NewMessageService(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	follows *FollowService,
	notifications repositories.NotificationRepository,
	log *logrus.Logger,
) *MessageService {
	return &MessageService{
		messages:      messages,
		users:         users,
		follows:       follows,
		notifications: notifications,
		log:           log,
		now:           time.Now,
	}
}

// Contacts returns the users userID is allowed to message.
func (s *MessageService) Contacts(ctx context.Context, userID uint) ([]models.User, error) {
	return s.follows.MutualFollowers(ctx, userID)
}

// CheckCanMessage returns ErrNotMutualFollowers when a and b are not mutual followers.
func (s *MessageService) CheckCanMessage(ctx context.Context, a, b uint) error {
	mutual, err := s.follows.AreMutualFollowers(ctx, a, b)
	if err != nil {
		return err
	}
	if !mutual {
		metrics.MessageDenials.Inc()
		return ErrNotMutualFollowers
	}
	return nil
}

// Conversation returns every message exchanged between viewerID and otherID, oldest first.
func (s *MessageService) Conversation(ctx context.Context, viewerID, otherID uint) ([]models.Message, error) {
	if err := s.CheckCanMessage(ctx, viewerID, otherID); err != nil {
		return nil, err
	}
	messages, err := s.messages.FindConversation(ctx, viewerID, otherID, otherID, viewerID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []models.Message{}
	}
	return messages, nil
}

// Send stores a message from senderID to recipientID. Content is trimmed and
// must be non-empty and at most 1000 characters.
func (s *MessageService) Send(ctx context.Context, senderID, recipientID uint, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if len([]rune(content)) > maxMessageLength {
		return nil, ErrMessageTooLong
	}

	if err := s.CheckCanMessage(ctx, senderID, recipientID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:    senderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   s.now(),
	}
	if err := s.messages.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	s.notifyMessage(ctx, senderID, recipientID)
	return msg, nil
}

func (s *MessageService) notifyMessage(ctx context.Context, senderID, recipientID uint) {
	if s.notifications == nil {
		return
	}
	sender, err := s.users.GetUserByID(ctx, senderID)
	if err != nil || sender == nil {
		return
	}
	notif := &models.Notification{
		Type:        models.NotificationTypeMessage,
		ActorID:     senderID,
		RecipientID: recipientID,
		TargetID:    sender.Username,
		TargetType:  "user",
		Message:     sender.Username + " sent you a message",
	}
	if err := s.notifications.CreateNotification(ctx, notif); err != nil {
		s.log.WithError(err).WithField("recipient_id", recipientID).Warn("failed to create message notification")
	}
}
