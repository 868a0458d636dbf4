package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// newServer answers each request with handler's result wrapped as GraphQL data
func newServer(t *testing.T, handler func(req gqlRequest) string) (*httptest.Server, *[]gqlRequest) {
	t.Helper()
	var seen []gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		seen = append(seen, req)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, handler(req))
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(context.Background(), srv.URL, "secret", zerolog.Nop())
}

func TestClient_OpenRepository(t *testing.T) {
	srv, _ := newServer(t, func(req gqlRequest) string {
		if strings.Contains(req.Query, "discussionCategories") {
			return `{"data":{"repository":{"discussionCategories":{"nodes":[
				{"id":"CAT_1","name":"General"},{"id":"CAT_2","name":"Announcements"}]}}}}`
		}
		return `{"data":{"repository":{"id":"REPO_1"}}}`
	})

	repo, err := OpenRepository(context.Background(), newTestClient(srv), "o", "r", "announcements")
	require.NoError(t, err)
	assert.Equal(t, "REPO_1", repo.id)
	assert.Equal(t, "CAT_2", repo.categoryID)
}

func TestClient_CategoryNotFound(t *testing.T) {
	srv, _ := newServer(t, func(req gqlRequest) string {
		return `{"data":{"repository":{"discussionCategories":{"nodes":[]}}}}`
	})
	_, err := newTestClient(srv).CategoryID(context.Background(), "o", "r", "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_ListDiscussionsPaginates(t *testing.T) {
	srv, seen := newServer(t, func(req gqlRequest) string {
		if req.Variables["cursor"] == nil {
			return `{"data":{"repository":{"discussions":{
				"pageInfo":{"hasNextPage":true,"endCursor":"c1"},
				"nodes":[{"id":"D_1","number":1,"title":"a","body":"x"}]}}}}`
		}
		return `{"data":{"repository":{"discussions":{
			"pageInfo":{"hasNextPage":false,"endCursor":"c2"},
			"nodes":[{"id":"D_2","number":2,"title":"b","body":"y"}]}}}}`
	})

	got, err := newTestClient(srv).ListDiscussions(context.Background(), "o", "r", "CAT")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "D_1", got[0].ID)
	assert.Equal(t, 2, got[1].Number)

	require.Len(t, *seen, 2)
	assert.Equal(t, "c1", (*seen)[1].Variables["cursor"])
	assert.Equal(t, "CAT", (*seen)[0].Variables["categoryId"])
	assert.Contains(t, (*seen)[0].Query, "direction: ASC")
}

func TestClient_SearchDiscussions(t *testing.T) {
	srv, seen := newServer(t, func(req gqlRequest) string {
		return `{"data":{"search":{"pageInfo":{"hasNextPage":false},
			"nodes":[{"id":"D_9","number":9,"title":"t","body":"b"},{}]}}}`
	})

	got, err := newTestClient(srv).SearchDiscussions(context.Background(), "o", "r", "abc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "D_9", got[0].ID)
	assert.Equal(t, "repo:o/r in:body abc", (*seen)[0].Variables["query"])
}

func TestClient_AddComment(t *testing.T) {
	srv, seen := newServer(t, func(req gqlRequest) string {
		return `{"data":{"addDiscussionComment":{"comment":{"id":"DC_1","url":"https://github.com/o/r/discussions/1#discussioncomment-1"}}}}`
	})
	client := newTestClient(srv)

	c, err := client.AddComment(context.Background(), "D_1", "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "DC_1", c.ID)
	assert.Equal(t, "https://github.com/o/r/discussions/1#discussioncomment-1", c.URL)

	input := (*seen)[0].Variables["input"].(map[string]interface{})
	assert.Equal(t, "D_1", input["discussionId"])
	assert.Equal(t, "hello", input["body"])
	_, hasReply := input["replyToId"]
	assert.False(t, hasReply)
	assert.Contains(t, (*seen)[0].Query, "addDiscussionComment(input: $input)")

	_, err = client.AddComment(context.Background(), "D_1", "hello", "DC_0")
	require.NoError(t, err)
	input = (*seen)[1].Variables["input"].(map[string]interface{})
	assert.Equal(t, "DC_0", input["replyToId"])
}

func TestClient_CreateDiscussion(t *testing.T) {
	srv, seen := newServer(t, func(req gqlRequest) string {
		return `{"data":{"createDiscussion":{"discussion":{"id":"D_3","number":3,"title":"first-post","body":"b"}}}}`
	})

	d, err := newTestClient(srv).CreateDiscussion(context.Background(), "R", "C", "first-post", "b")
	require.NoError(t, err)
	assert.Equal(t, "D_3", d.ID)
	assert.Equal(t, 3, d.Number)

	input := (*seen)[0].Variables["input"].(map[string]interface{})
	assert.Equal(t, "R", input["repositoryId"])
	assert.Equal(t, "C", input["categoryId"])
	assert.Equal(t, "first-post", input["title"])
}

func TestClient_GraphQLError(t *testing.T) {
	srv, _ := newServer(t, func(req gqlRequest) string {
		return `{"data":null,"errors":[{"type":"RATE_LIMITED","message":"API rate limit exceeded"}]}`
	})

	_, err := newTestClient(srv).CreateDiscussion(context.Background(), "R", "C", "t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API rate limit exceeded")
	assert.Contains(t, err.Error(), `failed to create discussion "t"`)
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).RateLimit(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_RateLimit(t *testing.T) {
	srv, _ := newServer(t, func(req gqlRequest) string {
		return `{"data":{"rateLimit":{"limit":5000,"remaining":4990,"cost":1,"resetAt":"2024-01-01T00:00:00Z"}}}`
	})

	rl, err := newTestClient(srv).RateLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5000, rl.Limit)
	assert.Equal(t, 4990, rl.Remaining)
	assert.Equal(t, 2024, rl.ResetAt.Year())
}
