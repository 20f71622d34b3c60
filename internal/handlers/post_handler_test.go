package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/soundscape/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostLifecycle(t *testing.T) {
	s := newTestServer(t)
	users := testutil.InsertUsers(t, s.db, 2)
	author, fan := users[0], users[1]

	rec, body := s.do(http.MethodPost, "/api/v1/posts", author, `{"content":"spinning vinyl tonight"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := body["data"].(map[string]interface{})
	id := post["id"].(string)
	assert.Equal(t, "Just now", post["time_ago"])

	rec, body = s.do(http.MethodPost, "/api/v1/posts/"+id+"/like", fan, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, true, data["liked"])
	assert.Equal(t, float64(1), data["likesCount"])

	rec, body = s.do(http.MethodPost, "/api/v1/posts/"+id+"/like", fan, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, false, data["liked"])
	assert.Equal(t, float64(0), data["likesCount"])

	rec, body = s.do(http.MethodPut, "/api/v1/posts/"+id, fan, `{"content":"not yours"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only modify your own posts.", body["message"])

	rec, body = s.do(http.MethodPut, "/api/v1/posts/"+id, author, `{"content":"spinning tapes tonight"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	post = body["data"].(map[string]interface{})
	assert.Equal(t, true, post["edited"])

	rec, body = s.do(http.MethodGet, "/api/v1/posts/search?q=tapes", fan, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["data"].(map[string]interface{})["posts"], 1)

	rec, _ = s.do(http.MethodDelete, "/api/v1/posts/"+id, fan, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = s.do(http.MethodDelete, "/api/v1/posts/"+id, author, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(http.MethodGet, "/api/v1/posts/"+id, author, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeedShowsFollowedPosts(t *testing.T) {
	s := newTestServer(t)
	users := testutil.InsertUsers(t, s.db, 3)
	viewer, followed, stranger := users[0], users[1], users[2]
	_, err := s.follows.Follow(t.Context(), viewer.ID, followed.ID)
	require.NoError(t, err)

	for _, u := range users {
		rec, _ := s.do(http.MethodPost, "/api/v1/posts", u, `{"content":"hello from `+u.Username+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec, body := s.do(http.MethodGet, "/api/v1/feed?page=1&limit=10", viewer, "")
	require.Equal(t, http.StatusOK, rec.Code)
	posts := body["data"].(map[string]interface{})["posts"].([]interface{})
	assert.Len(t, posts, 2)
	for _, p := range posts {
		assert.NotEqual(t, float64(stranger.ID), p.(map[string]interface{})["author_id"])
	}

	meta := body["meta"].(map[string]interface{})
	assert.Equal(t, float64(2), meta["totalItems"])
	assert.Equal(t, float64(1), meta["totalPages"])
	assert.Equal(t, false, meta["hasNextPage"])
}

func TestWhitespacePostIsRejected(t *testing.T) {
	s := newTestServer(t)
	author := testutil.InsertUsers(t, s.db, 1)[0]

	rec, body := s.do(http.MethodPost, "/api/v1/posts", author, `{"content":"    "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "post content is empty", body["message"])

	rec, body = s.do(http.MethodPost, "/api/v1/posts", author, `{"content":"b-side"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["data"].(map[string]interface{})["id"].(string)

	rec, _ = s.do(http.MethodPut, "/api/v1/posts/"+id, author, `{"content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
