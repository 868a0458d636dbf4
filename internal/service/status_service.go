package service

import (
	"context"

	"github.com/discussions-migrator/internal/checkpoint"
	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

// statusService is the concrete implementation of StatusService
type statusService struct {
	store checkpoint.Store
	log   zerolog.Logger
}

// newStatusService creates a new StatusService
func newStatusService(store checkpoint.Store, log zerolog.Logger) *statusService {
	return &statusService{
		store: store,
		log:   log.With().Str("service", "status").Logger(),
	}
}

// Summary loads the checkpoint and totals it
func (s *statusService) Summary(ctx context.Context) (*models.Progress, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	progress := Summarize(state)
	return &progress, nil
}

// Posts loads the checkpoint and breaks it down per post
func (s *statusService) Posts(ctx context.Context) ([]models.PostProgress, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return Breakdown(state), nil
}

// Summarize totals the remote identities recorded in state
func Summarize(state *models.MigrationState) models.Progress {
	p := models.Progress{
		Status:   state.Status.String(),
		Complete: state.Status == models.StatusCommentsAssociated,
		Posts:    len(state.Forest),
	}
	for i, pp := range Breakdown(state) {
		if state.Forest[i].Discussion != nil {
			p.DiscussionsAssociated++
		}
		p.Comments += pp.Comments
		p.CommentsAssociated += pp.CommentsAssociated
	}
	return p
}

// Breakdown returns the progress of every post in forest order
func Breakdown(state *models.MigrationState) []models.PostProgress {
	out := make([]models.PostProgress, 0, len(state.Forest))
	for _, post := range state.Forest {
		pp := models.PostProgress{
			ID:    post.ID,
			Title: post.Title,
			URL:   post.URL,
		}
		if post.Discussion != nil {
			pp.DiscussionNumber = post.Discussion.Number
		}
		post.Each(func(c, _ *models.Comment) {
			pp.Comments++
			if c.Remote != nil {
				pp.CommentsAssociated++
			}
		})
		out = append(out, pp)
	}
	return out
}
