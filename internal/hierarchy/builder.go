package hierarchy

import (
	"sort"

	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

// Builder attaches comments to their posts as a two-level tree.
//
// The target renders only top-level comments and one flat level of replies,
// so a reply is attached to the top-level ancestor of its parent chain
// rather than to its immediate parent.
type Builder struct {
	log zerolog.Logger
}

// New creates a Builder
func New(log zerolog.Logger) *Builder {
	return &Builder{log: log.With().Str("component", "hierarchy").Logger()}
}

// Build populates Post.Comments and Comment.Replies in creation order.
// A parent id that does not resolve, a parent chain that loops, or a chain
// that crosses into another thread is a fatal DataError.
func (b *Builder) Build(posts map[string]*models.Post, comments map[string]*models.Comment) error {
	ordered := make([]*models.Comment, 0, len(comments))
	for _, c := range comments {
		c.Replies = nil
		ordered = append(ordered, c)
	}
	sortComments(ordered)

	for _, p := range posts {
		p.Comments = []*models.Comment{}
	}

	replies := 0
	for _, c := range ordered {
		if c.IsTopLevel() {
			post, ok := posts[c.PostID]
			if !ok {
				return models.NewDataError(models.ErrCodeDanglingParent, c.ID, "thread %s is not retained", c.PostID)
			}
			post.Comments = append(post.Comments, c)
			continue
		}

		root, err := TopLevelAncestor(c, comments)
		if err != nil {
			return err
		}
		if root.PostID != c.PostID {
			return models.NewDataError(models.ErrCodeThreadMismatch, c.ID,
				"ancestor %s belongs to thread %s, not %s", root.ID, root.PostID, c.PostID)
		}
		root.Replies = append(root.Replies, c)
		replies++
	}

	b.log.Info().
		Int("comments", len(ordered)).
		Int("top_level", len(ordered)-replies).
		Int("replies", replies).
		Msg("Hierarchy built")

	return nil
}

// TopLevelAncestor walks the parent chain of c until it reaches a comment
// without a parent. The walk is bounded by the number of comments, so a
// cycle ends in an error instead of looping.
func TopLevelAncestor(c *models.Comment, comments map[string]*models.Comment) (*models.Comment, error) {
	cur := c
	for steps := 0; !cur.IsTopLevel(); steps++ {
		if steps >= len(comments) {
			return nil, models.NewDataError(models.ErrCodeParentCycle, c.ID, "parent chain does not terminate")
		}
		parent, ok := comments[cur.ParentID]
		if !ok {
			return nil, models.NewDataError(models.ErrCodeDanglingParent, cur.ID,
				"parent %s was not retained; add it to the override table or drop this comment", cur.ParentID)
		}
		cur = parent
	}
	return cur, nil
}

func sortComments(comments []*models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		if !comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].CreatedAt.Before(comments[j].CreatedAt)
		}
		return comments[i].ID < comments[j].ID
	})
}
