package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/pkg/timeago"
	"github.com/sirupsen/logrus"
)

const (
	authorSearchPrefix = "from:"
	searchLimit        = 50
	maxPostLength      = 280
)

// PostView is a post decorated for one viewer.
type PostView struct {
	models.Post
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
	IsOwn   bool               `json:"is_own"`
	TimeAgo string             `json:"time_ago"`
}

// PostPage is one page of posts with the total match count.
type PostPage struct {
	Posts []PostView
	Total int64
}

type PostService struct {
	posts         repositories.PostRepository
	users         repositories.UserRepository
	follows       *FollowService
	notifications repositories.NotificationRepository
	log           *logrus.Logger
	now           func() time.Time
}

func NewPostService(
	posts repositories.PostRepository,
	users repositories.UserRepository,
	follows *FollowService,
	notifications repositories.NotificationRepository,
	log *logrus.Logger,
) *PostService {
	return &PostService{
		posts:         posts,
		users:         users,
		follows:       follows,
		notifications: notifications,
		log:           log,
		now:           time.Now,
	}
}

// Create stores a post. Content is trimmed and must be 1 to 280 characters.
func (s *PostService) Create(ctx context.Context, authorID uint, content string) (*PostView, error) {
	content, err := postContent(content)
	if err != nil {
		return nil, err
	}

	author, err := s.users.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, ErrUserNotFound
	}

	post := &models.Post{
		AuthorID:       author.ID,
		AuthorUsername: author.Username,
		Content:        content,
		LikedBy:        []string{},
		CreatedAt:      s.now(),
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	view := s.decorate(*post, author)
	return &view, nil
}

func (s *PostService) Get(ctx context.Context, postID string, viewerID uint) (*PostView, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	view := s.decorate(*post, viewer)
	return &view, nil
}

// List returns every post, newest first.
func (s *PostService) List(ctx context.Context, viewerID uint, skip, limit int64) (*PostPage, error) {
	posts, total, err := s.posts.GetAllPosts(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, posts, total, viewerID)
}

// Feed returns posts by the users viewerID follows plus their own, newest first.
func (s *PostService) Feed(ctx context.Context, viewerID uint, skip, limit int64) (*PostPage, error) {
	ids, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, viewerID)

	posts, total, err := s.posts.GetPostsByAuthorIDs(ctx, ids, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, posts, total, viewerID)
}

// Search matches post content, or the author's username when the query
// starts with "from:".
func (s *PostService) Search(ctx context.Context, query string, viewerID uint) ([]PostView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []PostView{}, nil
	}

	var (
		posts []models.Post
		err   error
	)
	if strings.HasPrefix(strings.ToLower(query), authorSearchPrefix) {
		author := strings.TrimSpace(query[len(authorSearchPrefix):])
		if author == "" {
			return []PostView{}, nil
		}
		posts, err = s.posts.SearchByAuthor(ctx, author, searchLimit)
	} else {
		posts, err = s.posts.SearchByContent(ctx, query, searchLimit)
	}
	if err != nil {
		return nil, err
	}

	page, err := s.page(ctx, posts, int64(len(posts)), viewerID)
	if err != nil {
		return nil, err
	}
	return page.Posts, nil
}

// ToggleLike likes the post for userID, or removes the like if already present.
func (s *PostService) ToggleLike(ctx context.Context, postID string, userID uint) (*PostView, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if post.IsLikedBy(user.Username) {
		if _, err := s.posts.RemoveLike(ctx, postID, user.Username); err != nil {
			return nil, err
		}
	} else {
		added, err := s.posts.AddLike(ctx, postID, user.Username)
		if err != nil {
			return nil, err
		}
		if added && post.AuthorID != user.ID {
			s.notifyLike(ctx, user, post)
		}
	}

	updated, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	view := s.decorate(*updated, user)
	return &view, nil
}

// Edit replaces the content of a post owned by userID and marks it edited.
func (s *PostService) Edit(ctx context.Context, postID string, userID uint, content string) (*PostView, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotPostAuthor
	}

	content, err = postContent(content)
	if err != nil {
		return nil, err
	}

	editedAt := s.now()
	if err := s.posts.UpdateContent(ctx, postID, content, editedAt); err != nil {
		return nil, err
	}
	post.Content = content
	post.Edited = true
	post.EditedAt = &editedAt

	viewer, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.decorate(*post, viewer)
	return &view, nil
}

// Delete removes a post owned by userID.
func (s *PostService) Delete(ctx context.Context, postID string, userID uint) error {
	post, err := s.load(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotPostAuthor
	}
	deleted, err := s.posts.DeletePost(ctx, postID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPostNotFound
	}
	return nil
}

func postContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyPost
	}
	if len([]rune(content)) > maxPostLength {
		return "", ErrPostTooLong
	}
	return content, nil
}

func (s *PostService) load(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.posts.GetPostByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repositories.ErrInvalidPostID) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) page(ctx context.Context, posts []models.Post, total int64, viewerID uint) (*PostPage, error) {
	viewer, err := s.users.GetUserByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	views := make([]PostView, len(posts))
	for i, p := range posts {
		views[i] = s.decorate(p, viewer)
	}
	return &PostPage{Posts: views, Total: total}, nil
}

// decorate builds the viewer-specific view. viewer may be nil.
func (s *PostService) decorate(p models.Post, viewer *models.User) PostView {
	view := PostView{
		Post: p,
		Author: models.UserCompact{
			ID:       p.AuthorID,
			Username: p.AuthorUsername,
		},
		TimeAgo: timeago.Format(p.CreatedAt, s.now()),
	}
	if viewer != nil {
		view.IsLiked = p.IsLikedBy(viewer.Username)
		view.IsOwn = p.AuthorID == viewer.ID
	}
	return view
}

func (s *PostService) notifyLike(ctx context.Context, liker *models.User, post *models.Post) {
	if s.notifications == nil {
		return
	}
	notif := &models.Notification{
		Type:        models.NotificationTypeLike,
		ActorID:     liker.ID,
		RecipientID: post.AuthorID,
		TargetID:    post.ID.Hex(),
		TargetType:  "post",
		Message:     liker.Username + " liked your post",
	}
	if err := s.notifications.CreateNotification(ctx, notif); err != nil {
		s.log.WithError(err).WithField("post_id", post.ID.Hex()).Warn("failed to create like notification")
	}
}
