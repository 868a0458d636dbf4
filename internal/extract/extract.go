package extract

import (
	"strings"
	"time"

	"github.com/discussions-migrator/internal/disqus"
	"github.com/discussions-migrator/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"
)

// Rules are the manual correction tables applied during extraction
type Rules struct {
	// Overrides maps a comment id to a forced decision: true keeps the
	// comment even if it is deleted or spam, false drops it.
	Overrides map[string]bool

	// Operators lists the source usernames of the migration operator.
	Operators []string

	// Handles maps source usernames to GitHub handles.
	Handles map[string]string

	// Forum, when set, drops threads exported from any other forum.
	Forum string
}

// Result holds the entities extracted from one export
type Result struct {
	Posts    map[string]*models.Post
	Comments map[string]*models.Comment

	// Authors indexes retained comment authors by HandleKey(username).
	Authors map[string]models.Author

	// Dropped counts excluded records by reason.
	Dropped map[models.Reason]int
}

// Extractor turns raw export records into posts and comments
type Extractor struct {
	rules     Rules
	operators map[string]bool
	handles   map[string]string
	log       zerolog.Logger
}

// New creates an Extractor applying the given rules
func New(rules Rules, log zerolog.Logger) *Extractor {
	operators := make(map[string]bool, len(rules.Operators))
	for _, op := range rules.Operators {
		operators[HandleKey(op)] = true
	}
	handles := make(map[string]string, len(rules.Handles))
	for from, to := range rules.Handles {
		handles[HandleKey(from)] = to
	}

	return &Extractor{
		rules:     rules,
		operators: operators,
		handles:   handles,
		log:       log.With().Str("component", "extract").Logger(),
	}
}

// HandleKey normalizes a source username for lookups
func HandleKey(username string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(username)))
}

// Extract validates every record and returns the retained entities.
// Missing ids, missing message bodies, unparsable timestamps and duplicate
// ids are fatal data errors.
func (e *Extractor) Extract(doc *disqus.Export) (*Result, error) {
	res := &Result{
		Posts:    make(map[string]*models.Post),
		Comments: make(map[string]*models.Comment),
		Authors:  make(map[string]models.Author),
		Dropped:  make(map[models.Reason]int),
	}

	seenThreads := make(map[string]bool, len(doc.Threads))
	for i := range doc.Threads {
		thread := &doc.Threads[i]
		if thread.ID == "" {
			return nil, models.NewDataError(models.ErrCodeMissingField, "", "thread #%d has no id", i)
		}
		if seenThreads[thread.ID] {
			return nil, models.NewDataError(models.ErrCodeDuplicateID, thread.ID, "thread id appears more than once")
		}
		seenThreads[thread.ID] = true

		verdict := e.ThreadVerdict(thread)
		if !verdict.Included {
			res.Dropped[verdict.Reason]++
			e.log.Debug().Str("thread_id", thread.ID).Str("reason", string(verdict.Reason)).Msg("Thread excluded")
			continue
		}

		createdAt, err := parseTime(thread.CreatedAt)
		if err != nil {
			return nil, models.NewDataError(models.ErrCodeMissingField, thread.ID, "invalid createdAt %q", thread.CreatedAt)
		}

		res.Posts[thread.ID] = &models.Post{
			ID:        thread.ID,
			Title:     strings.TrimSpace(thread.Title),
			URL:       strings.TrimSpace(thread.Link),
			CreatedAt: createdAt,
			Comments:  []*models.Comment{},
		}
	}

	seenComments := make(map[string]bool, len(doc.Posts))
	for i := range doc.Posts {
		post := &doc.Posts[i]
		if post.ID == "" {
			return nil, models.NewDataError(models.ErrCodeMissingField, "", "post #%d has no id", i)
		}
		if seenComments[post.ID] {
			return nil, models.NewDataError(models.ErrCodeDuplicateID, post.ID, "post id appears more than once")
		}
		seenComments[post.ID] = true

		if post.Message == nil {
			return nil, models.NewDataError(models.ErrCodeMissingField, post.ID, "post has no message body")
		}
		if post.Thread.ID == "" {
			return nil, models.NewDataError(models.ErrCodeMissingField, post.ID, "post has no thread reference")
		}

		verdict := e.CommentVerdict(post)
		if !verdict.Included {
			res.Dropped[verdict.Reason]++
			e.log.Debug().Str("comment_id", post.ID).Str("reason", string(verdict.Reason)).Msg("Comment excluded")
			continue
		}

		// Comments of excluded threads have nowhere to go
		if _, ok := res.Posts[post.Thread.ID]; !ok {
			res.Dropped[models.ReasonOrphanedThread]++
			e.log.Debug().Str("comment_id", post.ID).Str("thread_id", post.Thread.ID).Msg("Comment belongs to an excluded thread")
			continue
		}

		createdAt, err := parseTime(post.CreatedAt)
		if err != nil {
			return nil, models.NewDataError(models.ErrCodeMissingField, post.ID, "invalid createdAt %q", post.CreatedAt)
		}

		author := e.author(&post.Author)
		res.Comments[post.ID] = &models.Comment{
			ID:        post.ID,
			PostID:    post.Thread.ID,
			ParentID:  post.ParentID(),
			CreatedAt: createdAt,
			Author:    author,
			Body:      *post.Message,
		}
		if author.Username != "" {
			res.Authors[HandleKey(author.Username)] = author
		}
	}

	e.log.Info().
		Int("threads", len(doc.Threads)).
		Int("posts", len(res.Posts)).
		Int("comments", len(res.Comments)).
		Int("authors", len(res.Authors)).
		Interface("dropped", res.Dropped).
		Msg("Extraction completed")

	return res, nil
}

// ThreadVerdict decides whether a thread becomes a Post
func (e *Extractor) ThreadVerdict(thread *disqus.Thread) models.Verdict {
	if e.rules.Forum != "" && !strings.EqualFold(strings.TrimSpace(thread.Forum), e.rules.Forum) {
		return models.Exclude(models.ReasonOtherForum)
	}
	if thread.IsDeleted {
		return models.Exclude(models.ReasonDeleted)
	}
	if thread.IsClosed {
		return models.Exclude(models.ReasonClosed)
	}
	return models.Include()
}

// CommentVerdict decides whether a post record becomes a Comment. An entry
// in the override table wins over the deleted and spam flags.
func (e *Extractor) CommentVerdict(post *disqus.Post) models.Verdict {
	if keep, ok := e.rules.Overrides[post.ID]; ok {
		if keep {
			return models.Include()
		}
		return models.Exclude(models.ReasonOverride)
	}
	if post.IsDeleted {
		return models.Exclude(models.ReasonDeleted)
	}
	if post.IsSpam {
		return models.Exclude(models.ReasonSpam)
	}
	return models.Include()
}

func (e *Extractor) author(raw *disqus.Author) models.Author {
	username := strings.TrimSpace(raw.Username)
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = username
	}
	if name == "" {
		name = "Anonymous"
	}

	author := models.Author{
		Name:      name,
		Username:  username,
		Anonymous: raw.IsAnonymous || username == "",
	}
	if username != "" {
		key := HandleKey(username)
		author.GitHubHandle = e.handles[key]
		author.IsOperator = e.operators[key]
	}
	return author
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
