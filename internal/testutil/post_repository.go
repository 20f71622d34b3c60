package testutil

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryPostRepository is an in-memory repositories.PostRepository.
type MemoryPostRepository struct {
	mu    sync.Mutex
	posts map[primitive.ObjectID]models.Post
}

var _ repositories.PostRepository = (*MemoryPostRepository)(nil)

func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{posts: map[primitive.ObjectID]models.Post{}}
}

func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post.ID = primitive.NewObjectID()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	if post.LikedBy == nil {
		post.LikedBy = []string{}
	}
	r.posts[post.ID] = clonePost(*post)
	return nil
}

func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repositories.ErrInvalidPostID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[objID]
	if !ok {
		return nil, nil
	}
	p = clonePost(p)
	return &p, nil
}

func (r *MemoryPostRepository) GetAllPosts(_ context.Context, skip, limit int64) ([]models.Post, int64, error) {
	return r.page(func(models.Post) bool { return true }, skip, limit)
}

func (r *MemoryPostRepository) GetPostsByAuthorIDs(_ context.Context, authorIDs []uint, skip, limit int64) ([]models.Post, int64, error) {
	return r.page(func(p models.Post) bool { return slices.Contains(authorIDs, p.AuthorID) }, skip, limit)
}

func (r *MemoryPostRepository) SearchByContent(_ context.Context, query string, limit int64) ([]models.Post, error) {
	q := strings.ToLower(query)
	posts, _, err := r.page(func(p models.Post) bool { return strings.Contains(strings.ToLower(p.Content), q) }, 0, limit)
	return posts, err
}

func (r *MemoryPostRepository) SearchByAuthor(_ context.Context, username string, limit int64) ([]models.Post, error) {
	q := strings.ToLower(username)
	posts, _, err := r.page(func(p models.Post) bool { return strings.Contains(strings.ToLower(p.AuthorUsername), q) }, 0, limit)
	return posts, err
}

func (r *MemoryPostRepository) UpdateContent(_ context.Context, id, content string, editedAt time.Time) error {
	return r.mutate(id, func(p *models.Post) bool {
		p.Content = content
		p.Edited = true
		p.EditedAt = &editedAt
		return true
	})
}

func (r *MemoryPostRepository) DeletePost(_ context.Context, id string) (bool, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, repositories.ErrInvalidPostID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[objID]; !ok {
		return false, nil
	}
	delete(r.posts, objID)
	return true, nil
}

func (r *MemoryPostRepository) AddLike(_ context.Context, id, username string) (bool, error) {
	changed := false
	err := r.mutate(id, func(p *models.Post) bool {
		if slices.Contains(p.LikedBy, username) {
			return false
		}
		p.LikedBy = append(p.LikedBy, username)
		p.LikesCount++
		changed = true
		return true
	})
	return changed, err
}

func (r *MemoryPostRepository) RemoveLike(_ context.Context, id, username string) (bool, error) {
	changed := false
	err := r.mutate(id, func(p *models.Post) bool {
		i := slices.Index(p.LikedBy, username)
		if i < 0 {
			return false
		}
		p.LikedBy = slices.Delete(p.LikedBy, i, i+1)
		p.LikesCount--
		changed = true
		return true
	})
	return changed, err
}

func (r *MemoryPostRepository) mutate(id string, fn func(p *models.Post) bool) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repositories.ErrInvalidPostID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[objID]
	if !ok {
		return nil
	}
	if fn(&p) {
		r.posts[objID] = p
	}
	return nil
}

func (r *MemoryPostRepository) page(match func(models.Post) bool, skip, limit int64) ([]models.Post, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := []models.Post{}
	for _, p := range r.posts {
		if match(p) {
			all = append(all, clonePost(p))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if skip >= total {
		return []models.Post{}, total, nil
	}
	end := total
	if limit > 0 && skip+limit < total {
		end = skip + limit
	}
	return all[skip:end], total, nil
}

func clonePost(p models.Post) models.Post {
	p.LikedBy = slices.Clone(p.LikedBy)
	return p
}
