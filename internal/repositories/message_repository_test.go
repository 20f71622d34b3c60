package repositories_test

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/soundscape/backend/internal/models"
	"github.com/anonto42/soundscape/backend/internal/repositories"
	"github.com/anonto42/soundscape/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConversationIsSymmetricAndOrdered(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repo := repositories.NewPostgresMessageRepository(db)
	users := testutil.InsertUsers(t, db, 3)
	a, b, c := users[0].ID, users[1].ID, users[2].ID

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, m := range []models.Message{
		{SenderID: a, RecipientID: b, Content: "hi"},
		{SenderID: b, RecipientID: a, Content: "hello"},
		{SenderID: a, RecipientID: c, Content: "other thread"},
		{SenderID: a, RecipientID: b, Content: "how are you"},
	} {
		m.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.CreateMessage(ctx, &m))
	}

	fromA, err := repo.FindConversation(ctx, a, b, b, a)
	require.NoError(t, err)
	fromB, err := repo.FindConversation(ctx, b, a, a, b)
	require.NoError(t, err)

	contents := func(ms []models.Message) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Content
		}
		return out
	}
	assert.Equal(t, []string{"hi", "hello", "how are you"}, contents(fromA))
	assert.Equal(t, contents(fromA), contents(fromB))
}
