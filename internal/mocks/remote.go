package mocks

import (
	"context"
	"fmt"
	"strings"

	"github.com/discussions-migrator/internal/github"
	"github.com/discussions-migrator/internal/models"
)

// MockDiscussionSource is an in-memory discussion category
type MockDiscussionSource struct {
	Discussions   []models.RemoteDiscussion
	ListError     error
	SearchResults []models.RemoteDiscussion
	SearchError   error
	CreateError   error
	ListCalls     int
	SearchCalls   int
	CreateCalls   int
}

func NewMockDiscussionSource() *MockDiscussionSource {
	return &MockDiscussionSource{}
}

func (m *MockDiscussionSource) ListDiscussions(ctx context.Context) ([]models.RemoteDiscussion, error) {
	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]models.RemoteDiscussion, len(m.Discussions))
	copy(out, m.Discussions)
	return out, nil
}

func (m *MockDiscussionSource) SearchDiscussions(ctx context.Context, term string) ([]models.RemoteDiscussion, error) {
	m.SearchCalls++
	if m.SearchError != nil {
		return nil, m.SearchError
	}
	var out []models.RemoteDiscussion
	for _, d := range m.SearchResults {
		if strings.Contains(d.Body, term) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MockDiscussionSource) CreateDiscussion(ctx context.Context, title, body string) (*models.RemoteDiscussion, error) {
	m.CreateCalls++
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	n := len(m.Discussions) + 1
	d := models.RemoteDiscussion{
		ID:     fmt.Sprintf("D_%d", n),
		Number: n,
		Title:  title,
		Body:   body,
	}
	m.Discussions = append(m.Discussions, d)
	return &d, nil
}

// PostedComment records one AddComment call
type PostedComment struct {
	DiscussionID string
	Body         string
	ReplyToID    string
	Remote       models.RemoteComment
}

// MockCommentPoster records comments posted under one identity
type MockCommentPoster struct {
	Name   string
	Posted []PostedComment

	// FailAt makes the n-th call (1-based) fail with Error.
	FailAt int
	Error  error
	calls  int
}

func NewMockCommentPoster(name string) *MockCommentPoster {
	return &MockCommentPoster{Name: name}
}

func (m *MockCommentPoster) AddComment(ctx context.Context, discussionID, body, replyToID string) (*models.RemoteComment, error) {
	m.calls++
	if m.FailAt > 0 && m.calls == m.FailAt {
		return nil, m.Error
	}
	id := fmt.Sprintf("%s_%d", m.Name, len(m.Posted)+1)
	remote := models.RemoteComment{
		ID:  id,
		URL: fmt.Sprintf("https://github.com/o/r/discussions/%s#discussioncomment-%s", discussionID, id),
	}
	m.Posted = append(m.Posted, PostedComment{
		DiscussionID: discussionID,
		Body:         body,
		ReplyToID:    replyToID,
		Remote:       remote,
	})
	return &remote, nil
}

// MockRateLimiter returns a fixed rate limit
type MockRateLimiter struct {
	Limit *github.RateLimit
	Error error
	Calls int
}

func (m *MockRateLimiter) RateLimit(ctx context.Context) (*github.RateLimit, error) {
	m.Calls++
	return m.Limit, m.Error
}
