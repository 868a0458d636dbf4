// Package articles reads the locally published pages that imported comments
// can be attached to.
package articles

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/discussions-migrator/internal/models"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
)

var (
	frontMatterDelim = []byte("---")
	datePrefix       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)
	extensions       = map[string]bool{".md": true, ".markdown": true, ".html": true}
)

type frontMatter struct {
	Title       string `yaml:"title"`
	Excerpt     string `yaml:"excerpt"`
	Description string `yaml:"description"`
	Permalink   string `yaml:"permalink"`
	URL         string `yaml:"url"`
	Draft       bool   `yaml:"draft"`
}

// Load walks dir and returns an Article for every published page with a
// front-matter block, sorted by URL. Relative permalinks are resolved
// against siteURL.
func Load(dir, siteURL string) ([]models.Article, error) {
	siteURL = strings.TrimSuffix(siteURL, "/")
	var out []models.Article

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read article: %w", err)
		}
		article, ok, err := Parse(filepath.Base(path), data, siteURL)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if ok {
			article.Source = path
			out = append(out, article)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].URL < out[j].URL })
	return out, nil
}

// Parse reads the front matter of one file. ok is false for drafts and for
// files without front matter.
func Parse(name string, data []byte, siteURL string) (article models.Article, ok bool, err error) {
	block, found := extractFrontMatter(data)
	if !found {
		return models.Article{}, false, nil
	}

	var fm frontMatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return models.Article{}, false, fmt.Errorf("invalid front matter: %w", err)
	}
	if fm.Draft {
		return models.Article{}, false, nil
	}

	excerpt := fm.Excerpt
	if excerpt == "" {
		excerpt = fm.Description
	}

	link := fm.Permalink
	if link == "" {
		link = fm.URL
	}
	if link == "" {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		link = "/" + slug.Make(datePrefix.ReplaceAllString(base, "")) + "/"
	}
	if strings.HasPrefix(link, "/") {
		link = siteURL + link
	}

	return models.Article{
		Title:   strings.TrimSpace(fm.Title),
		Excerpt: strings.TrimSpace(excerpt),
		URL:     link,
	}, true, nil
}

func extractFrontMatter(data []byte) ([]byte, bool) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(data, append(frontMatterDelim, '\n')) {
		return nil, false
	}
	rest := data[len(frontMatterDelim)+1:]
	if bytes.HasPrefix(rest, append(frontMatterDelim, '\n')) || bytes.Equal(rest, frontMatterDelim) {
		return []byte{}, true
	}
	end := bytes.Index(rest, append([]byte("\n"), frontMatterDelim...))
	if end < 0 {
		return nil, false
	}
	return rest[:end+1], true
}
