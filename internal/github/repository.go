package github

import (
	"context"

	"github.com/discussions-migrator/internal/models"
)

// Repository is a discussion category of one repository, resolved to node ids
type Repository struct {
	client     *Client
	owner      string
	name       string
	id         string
	categoryID string
}

// OpenRepository resolves the repository and category ids
func OpenRepository(ctx context.Context, client *Client, owner, name, category string) (*Repository, error) {
	id, err := client.RepositoryID(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	categoryID, err := client.CategoryID(ctx, owner, name, category)
	if err != nil {
		return nil, err
	}

	client.log.Info().
		Str("repository", owner+"/"+name).
		Str("category", category).
		Msg("Repository resolved")

	return &Repository{
		client:     client,
		owner:      owner,
		name:       name,
		id:         id,
		categoryID: categoryID,
	}, nil
}

// ListDiscussions returns every discussion of the category, oldest first
func (r *Repository) ListDiscussions(ctx context.Context) ([]models.RemoteDiscussion, error) {
	return r.client.ListDiscussions(ctx, r.owner, r.name, r.categoryID)
}

// SearchDiscussions returns the discussions whose body contains term
func (r *Repository) SearchDiscussions(ctx context.Context, term string) ([]models.RemoteDiscussion, error) {
	return r.client.SearchDiscussions(ctx, r.owner, r.name, term)
}

// CreateDiscussion opens a discussion in the category
func (r *Repository) CreateDiscussion(ctx context.Context, title, body string) (*models.RemoteDiscussion, error) {
	return r.client.CreateDiscussion(ctx, r.id, r.categoryID, title, body)
}
