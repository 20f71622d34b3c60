package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a post stored in MongoDB
type Post struct {
	ID             primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID       uint               `json:"author_id" bson:"author_id"`
	AuthorUsername string             `json:"author_username" bson:"author_username"`
	Content        string             `json:"content" bson:"content"`
	LikesCount     int                `json:"likes_count" bson:"likes_count"`
	LikedBy        []string           `json:"-" bson:"liked_by"`
	Edited         bool               `json:"edited" bson:"edited"`
	EditedAt       *time.Time         `json:"edited_at,omitempty" bson:"edited_at,omitempty"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// IsLikedBy reports whether username is in the post's liked set.
func (p *Post) IsLikedBy(username string) bool {
	for _, u := range p.LikedBy {
		if u == username {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content string `json:"content" validate:"required,min=1,max=280"`
}

// UpdatePostRequest defines the request body for editing a post
type UpdatePostRequest struct {
	Content string `json:"content" validate:"required,min=1,max=280"`
}
