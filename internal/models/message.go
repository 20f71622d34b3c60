package models

import "time"

// Message is a direct message between two mutual followers. Messages are immutable.
type Message struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	SenderID    uint      `json:"sender_id" gorm:"not null;index:idx_message_pair"`
	RecipientID uint      `json:"recipient_id" gorm:"not null;index:idx_message_pair"`
	Content     string    `json:"content" gorm:"size:1000;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`

	Sender    User `json:"-" gorm:"foreignKey:SenderID"`
	Recipient User `json:"-" gorm:"foreignKey:RecipientID"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}
