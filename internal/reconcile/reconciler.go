// Package reconcile finds or creates the remote discussion and comments of
// every migrated post. Both phases skip anything that already carries a
// remote identity, so a rerun only submits what is still missing.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

// DiscussionSource is the remote discussion category
type DiscussionSource interface {
	ListDiscussions(ctx context.Context) ([]models.RemoteDiscussion, error)
	SearchDiscussions(ctx context.Context, term string) ([]models.RemoteDiscussion, error)
	CreateDiscussion(ctx context.Context, title, body string) (*models.RemoteDiscussion, error)
}

// CommentPoster creates comments under one identity
type CommentPoster interface {
	AddComment(ctx context.Context, discussionID, body, replyToID string) (*models.RemoteComment, error)
}

// Identities are the two accounts comments are submitted with
type Identities struct {
	Operator CommentPoster
	Bot      CommentPoster
}

// For returns the operator identity for the operator's own comments and
// the bot identity for everyone else's
func (i Identities) For(author models.Author) CommentPoster {
	if author.IsOperator {
		return i.Operator
	}
	return i.Bot
}

// Checkpointer persists the forest after a mutation
type Checkpointer func(ctx context.Context) error

// Options tune the reconciler
type Options struct {
	// Cooldown is the pause after each comment creation.
	Cooldown time.Duration

	// UseSearch enables full-text search when a fingerprint is not in the listing.
	UseSearch bool

	// Sleep waits for d or until ctx is done. Defaults to a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Reconciler drives every remote side effect of a run
type Reconciler struct {
	source     DiscussionSource
	identities Identities
	opts       Options
	log        zerolog.Logger
}

// New creates a Reconciler
func New(source DiscussionSource, identities Identities, opts Options, log zerolog.Logger) *Reconciler {
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	return &Reconciler{
		source:     source,
		identities: identities,
		opts:       opts,
		log:        log.With().Str("component", "reconcile").Logger(),
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DiscussionStats counts the outcome of AssociateDiscussions
type DiscussionStats struct {
	Matched int
	Created int
	Skipped int
}

// AssociateDiscussions gives every post a remote discussion. The category is
// listed once; a post whose fingerprint appears in no listed body is looked up
// by search when enabled, and created otherwise. checkpoint runs after each
// post is associated.
func (r *Reconciler) AssociateDiscussions(ctx context.Context, posts []*models.Post, checkpoint Checkpointer) (DiscussionStats, error) {
	var stats DiscussionStats

	pending := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Discussion != nil {
			stats.Skipped++
			continue
		}
		pending = append(pending, p)
	}
	if len(pending) == 0 {
		return stats, nil
	}

	listing, err := r.source.ListDiscussions(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list discussions: %w", err)
	}

	for _, post := range pending {
		if post.Fingerprint == "" {
			return stats, models.NewDataError(models.ErrCodeMissingField, post.ID, "post has no fingerprint")
		}

		found, err := r.find(ctx, post, listing)
		if err != nil {
			return stats, err
		}

		if found != nil {
			post.Discussion = found
			stats.Matched++
			r.log.Info().Str("post_id", post.ID).Int("number", found.Number).Msg("Discussion matched")
		} else {
			title, err := DiscussionTitle(post)
			if err != nil {
				return stats, err
			}
			created, err := r.source.CreateDiscussion(ctx, title, DiscussionBody(post))
			if err != nil {
				return stats, fmt.Errorf("post %s: %w", post.ID, err)
			}
			post.Discussion = created
			listing = append(listing, *created)
			stats.Created++
			r.log.Info().Str("post_id", post.ID).Int("number", created.Number).Msg("Discussion created")
		}

		if err := checkpoint(ctx); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func (r *Reconciler) find(ctx context.Context, post *models.Post, listing []models.RemoteDiscussion) (*models.RemoteDiscussion, error) {
	found, err := pick(post, listing)
	if err != nil || found != nil || !r.opts.UseSearch {
		return found, err
	}

	results, err := r.source.SearchDiscussions(ctx, post.Fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to search discussions: %w", err)
	}
	return pick(post, results)
}

// pick returns the one discussion whose body contains the post's
// fingerprint. More than one is a fatal ambiguity.
func pick(post *models.Post, candidates []models.RemoteDiscussion) (*models.RemoteDiscussion, error) {
	var found *models.RemoteDiscussion
	for i := range candidates {
		if !strings.Contains(candidates[i].Body, post.Fingerprint) {
			continue
		}
		if found != nil && found.ID != candidates[i].ID {
			return nil, models.NewDataError(models.ErrCodeAmbiguousMatch, post.ID,
				"discussions #%d and #%d both carry fingerprint %s", found.Number, candidates[i].Number, post.Fingerprint)
		}
		d := candidates[i]
		found = &d
	}
	return found, nil
}

// CommentStats counts the outcome of AssociateComments
type CommentStats struct {
	Created int
	Skipped int
}

// AssociateComments creates the remote comment of every comment that has
// none, top-level comments before their replies. checkpoint runs after each
// creation, followed by the cooldown.
func (r *Reconciler) AssociateComments(ctx context.Context, posts []*models.Post, checkpoint Checkpointer) (CommentStats, error) {
	var stats CommentStats

	for _, post := range posts {
		if post.Discussion == nil {
			return stats, fmt.Errorf("post %s has no discussion", post.ID)
		}

		byID := make(map[string]*models.Comment, post.CommentCount())
		post.Each(func(c, _ *models.Comment) {
			byID[c.ID] = c
		})

		err := post.Walk(func(c, parent *models.Comment) error {
			if c.Remote != nil {
				stats.Skipped++
				return nil
			}

			replyToID, replyURL := "", ""
			if parent != nil {
				if parent.Remote == nil {
					return fmt.Errorf("comment %s: parent %s has no remote comment", c.ID, parent.ID)
				}
				replyToID = parent.Remote.ID
				replyURL = parent.Remote.URL
				if direct, ok := byID[c.ParentID]; ok && direct.Remote != nil {
					replyURL = direct.Remote.URL
				}
			}

			poster := r.identities.For(c.Author)
			remote, err := poster.AddComment(ctx, post.Discussion.ID, CommentBody(post, c, replyURL), replyToID)
			if err != nil {
				return fmt.Errorf("comment %s: %w", c.ID, err)
			}
			c.Remote = remote
			stats.Created++

			r.log.Info().
				Str("post_id", post.ID).
				Str("comment_id", c.ID).
				Bool("operator", c.Author.IsOperator).
				Msg("Comment created")

			if err := checkpoint(ctx); err != nil {
				return err
			}
			return r.opts.Sleep(ctx, r.opts.Cooldown)
		})
		if err != nil {
			return stats, err
		}
	}

	return stats, nil
}
