package services

import (
	"context"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// FollowService manages the directed follow graph between users.
//
// Invalid operands (self-follow, unknown or zero ids) degrade to false, zero
// or an empty list. Store failures are returned unchanged.
type FollowService struct {
	follows       repositories.FollowRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	stats         repositories.FollowStatsCache
	log           *logrus.Logger
	now           func() time.Time
}

// NewFollowService wires the follow graph. notifications and stats may be nil.
func NewFollowService(
	follows repositories.FollowRepository,
	users repositories.UserRepository,
	notifications repositories.NotificationRepository,
	stats repositories.FollowStatsCache,
	log *logrus.Logger,
) *FollowService {
	return &FollowService{
		follows:       follows,
		users:         users,
		notifications: notifications,
		stats:         stats,
		log:           log,
		now:           time.Now,
	}
}

// Follow creates the edge followerID -> followeeID. It returns false without
// error for a self-follow, an unknown user, or an edge that already exists.
func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == 0 || followeeID == 0 || followerID == followeeID {
		return false, nil
	}

	exist, err := s.users.UsersExist(ctx, followerID, followeeID)
	if err != nil {
		return false, err
	}
	if !exist {
		return false, nil
	}

	already, err := s.follows.IsFollowing(ctx, followerID, followeeID)
	if err != nil || already {
		return false, err
	}

	// a concurrent Follow can still win between the check and the insert;
	// the store's unique index turns that into created == false
	created, err := s.follows.CreateFollow(ctx, &models.Follow{
		FollowerID:  followerID,
		FollowingID: followeeID,
		CreatedAt:   s.now(),
	})
	if err != nil || !created {
		return false, err
	}

	metrics.FollowEvents.WithLabelValues("follow").Inc()
	s.invalidateStats(ctx, followerID, followeeID)
	s.notifyFollow(ctx, followerID, followeeID)
	return true, nil
}

// Unfollow removes the edge if present. A missing edge is not an error.
func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == 0 || followeeID == 0 || followerID == followeeID {
		return false, nil
	}

	removed, err := s.follows.DeleteFollow(ctx, followerID, followeeID)
	if err != nil || !removed {
		return false, err
	}

	metrics.FollowEvents.WithLabelValues("unfollow").Inc()
	s.invalidateStats(ctx, followerID, followeeID)
	return true, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if followerID == 0 || followeeID == 0 || followerID == followeeID {
		return false, nil
	}
	return s.follows.IsFollowing(ctx, followerID, followeeID)
}

// AreMutualFollowers reports whether a and b follow each other. It is symmetric
// and false for a == b.
func (s *FollowService) AreMutualFollowers(ctx context.Context, a, b uint) (bool, error) {
	if a == 0 || b == 0 || a == b {
		return false, nil
	}
	return s.follows.AreMutual(ctx, a, b)
}

func (s *FollowService) FollowerCount(ctx context.Context, userID uint) (int64, error) {
	stats, err := s.counts(ctx, userID)
	return stats.FollowersCount, err
}

func (s *FollowService) FollowingCount(ctx context.Context, userID uint) (int64, error) {
	stats, err := s.counts(ctx, userID)
	return stats.FollowingCount, err
}

// Followers lists the users following userID, in no particular order.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if userID == 0 {
		return []models.User{}, nil
	}
	users, err := s.follows.GetFollowers(ctx, userID)
	return nonNil(users), err
}

// Following lists the users userID follows, in no particular order.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if userID == 0 {
		return []models.User{}, nil
	}
	users, err := s.follows.GetFollowing(ctx, userID)
	return nonNil(users), err
}

// MutualFollowers lists every user that userID and that user follow both ways.
func (s *FollowService) MutualFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	if userID == 0 {
		return []models.User{}, nil
	}
	users, err := s.follows.GetMutualFollowers(ctx, userID)
	return nonNil(users), err
}

// FollowingIDs returns the ids userID follows.
func (s *FollowService) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	if userID == 0 {
		return []uint{}, nil
	}
	return s.follows.GetFollowingIDs(ctx, userID)
}

// PopulateFollowStats fills the follow counters of user and whether viewerID
// follows them. IsFollowing stays false when there is no viewer (0) or the
// viewer is the user.
func (s *FollowService) PopulateFollowStats(ctx context.Context, user *models.User, viewerID uint) error {
	if user == nil {
		return nil
	}

	stats, err := s.counts(ctx, user.ID)
	if err != nil {
		return err
	}
	user.FollowerCount = stats.FollowersCount
	user.FollowingCount = stats.FollowingCount

	user.IsFollowing = false
	if viewerID != 0 && viewerID != user.ID {
		following, err := s.follows.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return err
		}
		user.IsFollowing = following
	}
	return nil
}

// PopulateFollowStatsAll applies PopulateFollowStats to every user in place.
func (s *FollowService) PopulateFollowStatsAll(ctx context.Context, users []models.User, viewerID uint) error {
	for i := range users {
		if err := s.PopulateFollowStats(ctx, &users[i], viewerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *FollowService) counts(ctx context.Context, userID uint) (repositories.FollowStats, error) {
	if userID == 0 {
		return repositories.FollowStats{}, nil
	}

	var generation int64
	cacheable := false
	if s.stats != nil {
		cached, ok, err := s.stats.Get(ctx, userID)
		switch {
		case err != nil:
			s.log.WithError(err).WithField("user_id", userID).Warn("follow stats cache read failed")
			metrics.FollowStatsCacheLookups.WithLabelValues("error").Inc()
		case ok:
			metrics.FollowStatsCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.FollowStatsCacheLookups.WithLabelValues("miss").Inc()
			// read before counting so a follow that lands mid-count blocks the refill
			generation, err = s.stats.Generation(ctx, userID)
			cacheable = err == nil
		}
	}

	followers, err := s.follows.GetFollowersCount(ctx, userID)
	if err != nil {
		return repositories.FollowStats{}, err
	}
	following, err := s.follows.GetFollowingCount(ctx, userID)
	if err != nil {
		return repositories.FollowStats{}, err
	}
	stats := repositories.FollowStats{FollowersCount: followers, FollowingCount: following}

	if cacheable {
		if _, err := s.stats.Set(ctx, userID, generation, stats); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Warn("follow stats cache write failed")
		}
	}
	return stats, nil
}

func (s *FollowService) invalidateStats(ctx context.Context, userIDs ...uint) {
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, userIDs...); err != nil {
		s.log.WithError(err).Warn("follow stats cache invalidation failed")
	}
}

func (s *FollowService) notifyFollow(ctx context.Context, followerID, followeeID uint) {
	if s.notifications == nil {
		return
	}

	actor, err := s.users.GetUserByID(ctx, followerID)
	if err != nil || actor == nil {
		return
	}
	notif := &models.Notification{
		Type:        models.NotificationTypeFollow,
		ActorID:     followerID,
		RecipientID: followeeID,
		TargetID:    actor.Username,
		TargetType:  "user",
		Message:     actor.Username + " started following you",
	}
	if err := s.notifications.CreateNotification(ctx, notif); err != nil {
		s.log.WithError(err).WithField("recipient_id", followeeID).Warn("failed to create follow notification")
	}
}

func nonNil(users []models.User) []models.User {
	if users == nil {
		return []models.User{}
	}
	return users
}
