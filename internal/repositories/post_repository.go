package repositories

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrInvalidPostID is returned for ids that are not valid object ids.
var ErrInvalidPostID = errors.New("invalid post ID format")

// PostRepository defines the interface for post data operations.
// GetPostByID returns (nil, nil) when the post does not exist.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, int64, error)
	GetPostsByAuthorIDs(ctx context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, int64, error)
	SearchByContent(ctx context.Context, query string, limit int64) ([]models.Post, error)
	SearchByAuthor(ctx context.Context, username string, limit int64) ([]models.Post, error)
	UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error
	DeletePost(ctx context.Context, id string) (bool, error)
	// AddLike and RemoveLike report whether the liked set changed.
	AddLike(ctx context.Context, id, username string) (bool, error)
	RemoveLike(ctx context.Context, id, username string) (bool, error)
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the listing and author queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.LikedBy == nil {
		post.LikedBy = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidPostID
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetAllPosts retrieves all posts newest first, with the total count
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, int64, error) {
	return r.findPage(ctx, bson.M{}, skip, limit)
}

func (r *MongoPostRepository) GetPostsByAuthorIDs(ctx context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, int64, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, 0, nil
	}
	return r.findPage(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}}, skip, limit)
}

func (r *MongoPostRepository) SearchByContent(ctx context.Context, query string, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"content": containsIgnoreCase(query)}, limit)
}

func (r *MongoPostRepository) SearchByAuthor(ctx context.Context, username string, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.M{"author_username": containsIgnoreCase(username)}, limit)
}

func (r *MongoPostRepository) UpdateContent(ctx context.Context, id, content string, editedAt time.Time) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidPostID
	}

	update := bson.M{
		"$set": bson.M{
			"content":   content,
			"edited":    true,
			"edited_at": editedAt,
		},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	return err
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrInvalidPostID
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// AddLike adds username to the liked set and bumps the counter in one update.
func (r *MongoPostRepository) AddLike(ctx context.Context, id, username string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrInvalidPostID
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "liked_by": bson.M{"$ne": username}},
		bson.M{"$addToSet": bson.M{"liked_by": username}, "$inc": bson.M{"likes_count": 1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoPostRepository) RemoveLike(ctx context.Context, id, username string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, ErrInvalidPostID
	}
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "liked_by": username},
		bson.M{"$pull": bson.M{"liked_by": username}, "$inc": bson.M{"likes_count": -1}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func (r *MongoPostRepository) findPage(ctx context.Context, filter bson.M, skip, limit int64) ([]models.Post, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	posts, err := r.findSorted(ctx, filter, options.Find().SetSkip(skip).SetLimit(limit))
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter bson.M, limit int64) ([]models.Post, error) {
	return r.findSorted(ctx, filter, options.Find().SetLimit(limit))
}

func (r *MongoPostRepository) findSorted(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]models.Post, error) {
	findOptions.SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func containsIgnoreCase(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
