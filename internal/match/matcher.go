package match

import (
	"errors"
	"sort"
	"strings"

	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
)

// Matcher keeps the posts that can be migrated and links them to articles
type Matcher struct {
	byURL map[string][]*models.Article
	log   zerolog.Logger
}

// New creates a Matcher over the list of valid target articles
func New(articles []models.Article, log zerolog.Logger) *Matcher {
	byURL := make(map[string][]*models.Article, len(articles))
	for i := range articles {
		a := &articles[i]
		key := urlKey(a.URL)
		byURL[key] = append(byURL[key], a)
	}
	return &Matcher{
		byURL: byURL,
		log:   log.With().Str("component", "match").Logger(),
	}
}

func urlKey(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

// Verdict decides whether post is migrated. It does not modify post.
func (m *Matcher) Verdict(post *models.Post) (models.Verdict, *models.Article) {
	if strings.TrimSpace(post.URL) == "" {
		return models.Exclude(models.ReasonEmptyURL), nil
	}
	if len(post.Comments) == 0 {
		return models.Exclude(models.ReasonNoComments), nil
	}
	candidates := m.byURL[urlKey(post.URL)]
	switch len(candidates) {
	case 0:
		return models.Exclude(models.ReasonNoArticle), nil
	case 1:
		return models.Include(), candidates[0]
	default:
		return models.Exclude(models.ReasonAmbiguousArticle), nil
	}
}

// Match returns the retained posts ordered by creation time, each with its
// article and fingerprint set, along with the verdict for every post.
func (m *Matcher) Match(posts map[string]*models.Post) ([]*models.Post, map[string]models.Verdict, error) {
	verdicts := make(map[string]models.Verdict, len(posts))
	retained := make([]*models.Post, 0, len(posts))

	for id, post := range posts {
		verdict, article := m.Verdict(post)
		verdicts[id] = verdict
		if !verdict.Included {
			m.log.Info().
				Str("post_id", id).
				Str("url", post.URL).
				Str("reason", string(verdict.Reason)).
				Msg("Post excluded")
			continue
		}

		fp, err := Fingerprint(post.URL)
		if err != nil {
			var de *models.DataError
			if errors.As(err, &de) {
				de.RecordID = id
			}
			return nil, nil, err
		}
		articleCopy := *article
		post.Article = &articleCopy
		post.Fingerprint = fp
		retained = append(retained, post)
	}

	sort.SliceStable(retained, func(i, j int) bool {
		if !retained[i].CreatedAt.Equal(retained[j].CreatedAt) {
			return retained[i].CreatedAt.Before(retained[j].CreatedAt)
		}
		return retained[i].ID < retained[j].ID
	})

	m.log.Info().
		Int("posts", len(posts)).
		Int("retained", len(retained)).
		Msg("Matching completed")

	return retained, verdicts, nil
}
