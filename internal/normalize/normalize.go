package normalize

import (
	"regexp"
	"strings"

	"github.com/discussions-migrator/internal/extract"
	"github.com/discussions-migrator/internal/models"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// truncatedSuffixLen is how many trailing characters the source forum
// drops from a URL when it auto-links it.
const truncatedSuffixLen = 3

// mentionPattern matches "@handle:disqus"
var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_-]+):disqus\b`)

// Normalizer rewrites imported comment bodies for the target
type Normalizer struct {
	authors map[string]models.Author
	policy  *bluemonday.Policy
	log     zerolog.Logger
}

// New creates a Normalizer resolving mentions against authors, which is
// keyed by extract.HandleKey.
func New(authors map[string]models.Author, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		authors: authors,
		policy:  bluemonday.UGCPolicy(),
		log:     log.With().Str("component", "normalize").Logger(),
	}
}

// Apply normalizes every comment body in place and returns how many changed
func (n *Normalizer) Apply(comments map[string]*models.Comment) int {
	changed := 0
	for _, c := range comments {
		body := n.Normalize(c.Body)
		if body != c.Body {
			changed++
		}
		c.Body = body
	}
	n.log.Info().Int("comments", len(comments)).Int("changed", changed).Msg("Normalization completed")
	return changed
}

// Normalize sanitizes body, then resolves mentions in text outside links
// and collapses truncated self-links
func (n *Normalizer) Normalize(body string) string {
	return rewrite(n.policy.Sanitize(body), n.ResolveMentions)
}

// ResolveMentions replaces "@handle:disqus" in a text fragment with a link
// to the author when the handle belongs to a retained author. Unknown
// handles are kept as plain "@handle": the account may have been deleted
// on the source. text must not contain markup.
func (n *Normalizer) ResolveMentions(text string) string {
	return mentionPattern.ReplaceAllStringFunc(text, func(m string) string {
		handle := mentionPattern.FindStringSubmatch(m)[1]
		author, ok := n.authors[extract.HandleKey(handle)]
		if !ok {
			n.log.Debug().Str("handle", handle).Msg("Unresolved mention")
			return "@" + handle
		}
		return MentionLink(author)
	})
}

// MentionLink renders a clickable reference to author
func MentionLink(author models.Author) string {
	if author.GitHubHandle != "" {
		return `<a href="https://github.com/` + html.EscapeString(author.GitHubHandle) + `">@` +
			html.EscapeString(author.GitHubHandle) + `</a>`
	}
	return `<a href="https://disqus.com/by/` + html.EscapeString(author.Username) + `/">@` +
		html.EscapeString(author.Name) + `</a>`
}

// IsTruncatedSelfLink reports whether text is href with exactly
// truncatedSuffixLen characters cut by the source's auto-linker,
// optionally followed by an ellipsis.
func IsTruncatedSelfLink(text, href string) bool {
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "...")
	text = strings.TrimSuffix(text, "…")
	if text == "" || !strings.HasPrefix(href, text) {
		return false
	}
	return len(href)-len(text) == truncatedSuffixLen
}

type anchor struct {
	open     bool
	startRaw string
	href     string
	text     strings.Builder
	textOnly bool
	inner    []string
}

func (a *anchor) start(raw string, tok html.Token) {
	a.open = true
	a.startRaw = raw
	a.href = ""
	for _, attr := range tok.Attr {
		if attr.Key == "href" {
			a.href = attr.Val
		}
	}
	a.text.Reset()
	a.textOnly = true
	a.inner = a.inner[:0]
}

// flush writes the buffered anchor untouched
func (a *anchor) flush(out *strings.Builder) {
	if !a.open {
		return
	}
	out.WriteString(a.startRaw)
	for _, raw := range a.inner {
		out.WriteString(raw)
	}
	a.open = false
}

// CollapseSelfLinks replaces the visible text of truncated self-links with
// the full target URL. Everything else is copied byte for byte.
func CollapseSelfLinks(body string) string {
	return rewrite(body, nil)
}

// rewrite collapses truncated self-links and passes every text token
// outside a link through text, when set
func rewrite(body string, text func(string) string) string {
	z := html.NewTokenizer(strings.NewReader(body))
	var out strings.Builder
	var a anchor

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		tok := z.Token()

		switch {
		case tt == html.StartTagToken && tok.DataAtom == atom.A:
			a.flush(&out)
			a.start(raw, tok)
		case tt == html.EndTagToken && tok.DataAtom == atom.A && a.open:
			if a.textOnly && a.href != "" && IsTruncatedSelfLink(a.text.String(), a.href) {
				out.WriteString(a.startRaw)
				out.WriteString(html.EscapeString(a.href))
				a.open = false
			} else {
				a.flush(&out)
			}
			out.WriteString(raw)
		case a.open:
			a.inner = append(a.inner, raw)
			if tt == html.TextToken {
				a.text.WriteString(tok.Data)
			} else {
				a.textOnly = false
			}
		case tt == html.TextToken && text != nil:
			out.WriteString(text(raw))
		default:
			out.WriteString(raw)
		}
	}
	a.flush(&out)

	return out.String()
}
