package handlers_test

import (
	"net/http"
	"testing"

	"github.com/anonto42/soundscape/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessagingRequiresMutualFollow(t *testing.T) {
	s := newTestServer(t)
	users := testutil.InsertUsers(t, s.db, 2)
	one, two := users[0], users[1]
	path := "/api/v1/messages/" + two.Username

	_, err := s.follows.Follow(t.Context(), one.ID, two.ID)
	require.NoError(t, err)

	rec, body := s.do(http.MethodPost, path, one, `{"content":"hey"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only message users who are mutual followers.", body["message"])

	_, err = s.follows.Follow(t.Context(), two.ID, one.ID)
	require.NoError(t, err)

	rec, body = s.do(http.MethodPost, path, one, `{"content":"hey"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["success"])

	rec, body = s.do(http.MethodGet, "/api/v1/messages/"+one.Username, two, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	messages := data["messages"].([]interface{})
	require.Len(t, messages, 1)
	assert.Equal(t, "hey", messages[0].(map[string]interface{})["content"])

	rec, body = s.do(http.MethodGet, "/api/v1/messages", two, "")
	require.Equal(t, http.StatusOK, rec.Code)
	contacts := body["data"].(map[string]interface{})["contacts"].([]interface{})
	require.Len(t, contacts, 1)
	assert.Equal(t, one.Username, contacts[0].(map[string]interface{})["username"])

	_, err = s.follows.Unfollow(t.Context(), one.ID, two.ID)
	require.NoError(t, err)

	rec, body = s.do(http.MethodGet, path, one, "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "You can only message users who are mutual followers.", body["message"])
}

func TestSendMessageValidation(t *testing.T) {
	s := newTestServer(t)
	users := testutil.InsertUsers(t, s.db, 2)
	one, two := users[0], users[1]
	_, err := s.follows.Follow(t.Context(), one.ID, two.ID)
	require.NoError(t, err)
	_, err = s.follows.Follow(t.Context(), two.ID, one.ID)
	require.NoError(t, err)

	rec, _ := s.do(http.MethodPost, "/api/v1/messages/"+two.Username, one, `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/messages/"+two.Username, one, `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(http.MethodPost, "/api/v1/messages/nobody-here", one, `{"content":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
