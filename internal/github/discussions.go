package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/discussions-migrator/internal/models"
	"github.com/shurcooL/githubv4"
)

// ErrNotFound is returned when a repository or category does not exist
var ErrNotFound = errors.New("not found")

// pageSize is the largest page the API serves
const pageSize = 100

type pageInfo struct {
	HasNextPage githubv4.Boolean
	EndCursor   githubv4.String
}

type discussionNode struct {
	ID     string
	Number githubv4.Int
	Title  githubv4.String
	Body   githubv4.String
}

func (n discussionNode) toModel() models.RemoteDiscussion {
	return models.RemoteDiscussion{
		ID:     n.ID,
		Number: int(n.Number),
		Title:  string(n.Title),
		Body:   string(n.Body),
	}
}

// RepositoryID returns the node id of owner/name
func (c *Client) RepositoryID(ctx context.Context, owner, name string) (string, error) {
	var q struct {
		Repository *struct {
			ID string
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	vars := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if err := c.query(ctx, "repository", &q, vars); err != nil {
		return "", fmt.Errorf("failed to fetch repository %s/%s: %w", owner, name, err)
	}
	if q.Repository == nil {
		return "", fmt.Errorf("repository %s/%s: %w", owner, name, ErrNotFound)
	}
	return q.Repository.ID, nil
}

// CategoryID returns the node id of the discussion category with the given name
func (c *Client) CategoryID(ctx context.Context, owner, name, category string) (string, error) {
	var q struct {
		Repository *struct {
			DiscussionCategories struct {
				Nodes []struct {
					ID   string
					Name githubv4.String
				}
			} `graphql:"discussionCategories(first: 100)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	vars := map[string]interface{}{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
	}
	if err := c.query(ctx, "discussionCategories", &q, vars); err != nil {
		return "", fmt.Errorf("failed to fetch categories of %s/%s: %w", owner, name, err)
	}
	if q.Repository == nil {
		return "", fmt.Errorf("repository %s/%s: %w", owner, name, ErrNotFound)
	}
	for _, n := range q.Repository.DiscussionCategories.Nodes {
		if strings.EqualFold(string(n.Name), category) {
			return n.ID, nil
		}
	}
	return "", fmt.Errorf("category %q: %w", category, ErrNotFound)
}

// ListDiscussions returns every discussion of a category, oldest first
func (c *Client) ListDiscussions(ctx context.Context, owner, name, categoryID string) ([]models.RemoteDiscussion, error) {
	vars := map[string]interface{}{
		"owner":      githubv4.String(owner),
		"name":       githubv4.String(name),
		"categoryId": githubv4.ID(categoryID),
		"first":      githubv4.Int(pageSize),
		"cursor":     (*githubv4.String)(nil),
	}

	var out []models.RemoteDiscussion
	for page := 1; ; page++ {
		var q struct {
			Repository *struct {
				Discussions struct {
					PageInfo pageInfo
					Nodes    []discussionNode
				} `graphql:"discussions(first: $first, after: $cursor, categoryId: $categoryId, orderBy: {field: CREATED_AT, direction: ASC})"`
			} `graphql:"repository(owner: $owner, name: $name)"`
		}
		if err := c.query(ctx, "discussions", &q, vars); err != nil {
			return nil, fmt.Errorf("failed to list discussions (page %d): %w", page, err)
		}
		if q.Repository == nil {
			return nil, fmt.Errorf("repository %s/%s: %w", owner, name, ErrNotFound)
		}
		for _, n := range q.Repository.Discussions.Nodes {
			out = append(out, n.toModel())
		}
		info := q.Repository.Discussions.PageInfo
		if !info.HasNextPage {
			break
		}
		vars["cursor"] = githubv4.NewString(info.EndCursor)
	}

	c.log.Info().Int("discussions", len(out)).Msg("Discussions listed")
	return out, nil
}

// SearchDiscussions returns the discussions of owner/name whose body contains term
func (c *Client) SearchDiscussions(ctx context.Context, owner, name, term string) ([]models.RemoteDiscussion, error) {
	vars := map[string]interface{}{
		"query":  githubv4.String(fmt.Sprintf("repo:%s/%s in:body %s", owner, name, term)),
		"first":  githubv4.Int(pageSize),
		"cursor": (*githubv4.String)(nil),
	}

	var out []models.RemoteDiscussion
	for {
		var q struct {
			Search struct {
				PageInfo pageInfo
				Nodes    []struct {
					Discussion discussionNode `graphql:"... on Discussion"`
				}
			} `graphql:"search(query: $query, type: DISCUSSION, first: $first, after: $cursor)"`
		}
		if err := c.query(ctx, "search", &q, vars); err != nil {
			return nil, fmt.Errorf("failed to search discussions: %w", err)
		}
		for _, n := range q.Search.Nodes {
			if n.Discussion.ID != "" {
				out = append(out, n.Discussion.toModel())
			}
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		vars["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
	}
	return out, nil
}

// CreateDiscussion opens a discussion in the given repository and category
func (c *Client) CreateDiscussion(ctx context.Context, repositoryID, categoryID, title, body string) (*models.RemoteDiscussion, error) {
	var m struct {
		CreateDiscussion struct {
			Discussion discussionNode
		} `graphql:"createDiscussion(input: $input)"`
	}
	input := githubv4.CreateDiscussionInput{
		RepositoryID: githubv4.ID(repositoryID),
		CategoryID:   githubv4.ID(categoryID),
		Title:        githubv4.String(title),
		Body:         githubv4.String(body),
	}
	if err := c.mutate(ctx, "createDiscussion", &m, input); err != nil {
		return nil, fmt.Errorf("failed to create discussion %q: %w", title, err)
	}
	if m.CreateDiscussion.Discussion.ID == "" {
		return nil, fmt.Errorf("failed to create discussion %q: empty response", title)
	}
	d := m.CreateDiscussion.Discussion.toModel()
	return &d, nil
}

// AddComment posts a comment to a discussion. A non-empty replyToID makes it
// a reply to that top-level comment.
func (c *Client) AddComment(ctx context.Context, discussionID, body, replyToID string) (*models.RemoteComment, error) {
	var m struct {
		AddDiscussionComment struct {
			Comment struct {
				ID  string
				URL githubv4.URI
			}
		} `graphql:"addDiscussionComment(input: $input)"`
	}
	input := githubv4.AddDiscussionCommentInput{
		DiscussionID: githubv4.ID(discussionID),
		Body:         githubv4.String(body),
	}
	if replyToID != "" {
		input.ReplyToID = githubv4.NewID(replyToID)
	}
	if err := c.mutate(ctx, "addDiscussionComment", &m, input); err != nil {
		return nil, fmt.Errorf("failed to add comment to %s: %w", discussionID, err)
	}
	comment := m.AddDiscussionComment.Comment
	if comment.ID == "" {
		return nil, fmt.Errorf("failed to add comment to %s: empty response", discussionID)
	}
	out := &models.RemoteComment{ID: comment.ID}
	if comment.URL.URL != nil {
		out.URL = comment.URL.String()
	}
	return out, nil
}

// RateLimit is the API budget left for the client's token
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Cost      int       `json:"cost"`
	ResetAt   time.Time `json:"reset_at"`
}

// RateLimit fetches the current rate limit
func (c *Client) RateLimit(ctx context.Context) (*RateLimit, error) {
	var q struct {
		RateLimit *struct {
			Limit     githubv4.Int
			Remaining githubv4.Int
			Cost      githubv4.Int
			ResetAt   githubv4.DateTime
		}
	}
	if err := c.query(ctx, "rateLimit", &q, nil); err != nil {
		return nil, fmt.Errorf("failed to fetch rate limit: %w", err)
	}
	if q.RateLimit == nil {
		return nil, errors.New("failed to fetch rate limit: empty response")
	}
	return &RateLimit{
		Limit:     int(q.RateLimit.Limit),
		Remaining: int(q.RateLimit.Remaining),
		Cost:      int(q.RateLimit.Cost),
		ResetAt:   q.RateLimit.ResetAt.Time,
	}, nil
}
