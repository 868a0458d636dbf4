package reconcile

import (
	"fmt"
	"strings"

	"github.com/discussions-migrator/internal/match"
	"github.com/discussions-migrator/internal/models"
	"golang.org/x/net/html"
)

const timestampLayout = "2006-01-02 15:04 UTC"

// DiscussionTitle is the post's slug, the same string its fingerprint hashes
func DiscussionTitle(post *models.Post) (string, error) {
	return match.Slug(post.URL)
}

// DiscussionBody renders the article heading, excerpt, link and fingerprint marker
func DiscussionBody(post *models.Post) string {
	title, excerpt := post.Title, ""
	if post.Article != nil {
		if post.Article.Title != "" {
			title = post.Article.Title
		}
		excerpt = post.Article.Excerpt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	if excerpt != "" {
		fmt.Fprintf(&b, "%s\n\n", excerpt)
	}
	fmt.Fprintf(&b, "%s\n\n", post.URL)
	b.WriteString(match.Marker(post.Fingerprint))
	return b.String()
}

// SourceLink is the permalink of a comment on the source forum
func SourceLink(post *models.Post, c *models.Comment) string {
	return post.URL + "#comment-" + c.ID
}

// CommentBody renders the attribution header followed by the normalized body.
// replyURL links the comment being answered and is empty for top-level comments.
func CommentBody(post *models.Post, c *models.Comment, replyURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p><strong>%s</strong>", html.EscapeString(c.Author.Name))
	if c.Author.GitHubHandle != "" {
		fmt.Fprintf(&b, " (@%s)", html.EscapeString(c.Author.GitHubHandle))
	}
	fmt.Fprintf(&b, ` commented on <a href="%s">%s</a>`,
		html.EscapeString(SourceLink(post, c)),
		c.CreatedAt.UTC().Format(timestampLayout))
	if replyURL != "" {
		fmt.Fprintf(&b, `, replying to <a href="%s">this comment</a>`, html.EscapeString(replyURL))
	}
	b.WriteString(":</p>\n\n")
	b.WriteString(c.Body)
	return b.String()
}
