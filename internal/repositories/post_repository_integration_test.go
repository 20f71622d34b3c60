//go:build integration

package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newMongoPostRepository(t *testing.T) *repositories.MongoPostRepository {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	endpoint, err := container.PortEndpoint(ctx, "27017/tcp", "")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(fmt.Sprintf("mongodb://%s", endpoint)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	repo := repositories.NewMongoPostRepository(client.Database("soundscape_test"))
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestMongoLikeToggleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := newMongoPostRepository(t)

	post := &models.Post{AuthorID: 1, AuthorUsername: "alice", Content: "crate digging"}
	require.NoError(t, repo.CreatePost(ctx, post))
	id := post.ID.Hex()

	added, err := repo.AddLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = repo.AddLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.False(t, added, "second like is a no-op")

	stored, err := repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesCount)
	assert.Equal(t, []string{"bob"}, stored.LikedBy)

	removed, err := repo.RemoveLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.RemoveLike(ctx, id, "bob")
	require.NoError(t, err)
	assert.False(t, removed, "unliking twice does not go negative")

	stored, err = repo.GetPostByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.LikesCount)
	assert.Empty(t, stored.LikedBy)

	_, err = repo.AddLike(ctx, "nope", "bob")
	assert.ErrorIs(t, err, repositories.ErrInvalidPostID)
}

func TestMongoSearchAndPaging(t *testing.T) {
	ctx := context.Background()
	repo := newMongoPostRepository(t)

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	for i, p := range []models.Post{
		{AuthorID: 1, AuthorUsername: "alice", Content: "Late night JAZZ"},
		{AuthorID: 2, AuthorUsername: "bob", Content: "jazz (live) at noon"},
		{AuthorID: 3, AuthorUsername: "Alicia", Content: "synthwave"},
	} {
		p := p
		p.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, repo.CreatePost(ctx, &p))
	}

	byContent, err := repo.SearchByContent(ctx, "jazz", 10)
	require.NoError(t, err)
	require.Len(t, byContent, 2)
	assert.Equal(t, "bob", byContent[0].AuthorUsername, "newest first")

	literal, err := repo.SearchByContent(ctx, "(live)", 10)
	require.NoError(t, err)
	assert.Len(t, literal, 1, "regex metacharacters are quoted")

	byAuthor, err := repo.SearchByAuthor(ctx, "ALIC", 10)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	page, total, err := repo.GetPostsByAuthorIDs(ctx, []uint{1, 2}, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, "alice", page[0].AuthorUsername)

	edited := base.Add(24 * time.Hour)
	require.NoError(t, repo.UpdateContent(ctx, page[0].ID.Hex(), "Early morning jazz", edited))
	stored, err := repo.GetPostByID(ctx, page[0].ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.Edited)
	assert.Equal(t, "Early morning jazz", stored.Content)

	deleted, err := repo.DeletePost(ctx, stored.ID.Hex())
	require.NoError(t, err)
	assert.True(t, deleted)
	missing, err := repo.GetPostByID(ctx, stored.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
