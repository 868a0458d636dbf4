package benchmark

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/discussions-migrator/internal/checkpoint"
	"github.com/discussions-migrator/internal/disqus"
	"github.com/discussions-migrator/internal/extract"
	"github.com/discussions-migrator/internal/hierarchy"
	"github.com/discussions-migrator/internal/models"
	"github.com/discussions-migrator/internal/normalize"
	"github.com/discussions-migrator/internal/reconcile"
	"github.com/rs/zerolog"
)

const (
	benchThreads  = 50
	benchComments = 1000
)

// Helper function
func syntheticExport(threads, comments int) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	buf.WriteString(`<disqus xmlns:dsq="http://disqus.com/disqus-internals">` + "\n")
	for i := 0; i < threads; i++ {
		fmt.Fprintf(&buf, `<thread dsq:id="t%d"><forum>bench</forum><link>https://example.com/posts/%d/</link>`+
			`<title>Post %d</title><createdAt>2020-01-01T00:00:00Z</createdAt><isDeleted>false</isDeleted></thread>`+"\n", i, i, i)
	}
	for i := 0; i < comments; i++ {
		parent := ""
		if i%3 != 0 {
			parent = fmt.Sprintf(`<parent dsq:id="c%d"/>`, i-1)
		}
		created := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute)
		fmt.Fprintf(&buf, `<post dsq:id="c%d"><message><![CDATA[<p>Comment %d for @user%d, see <a href="https://example.com/very/long/link">https://example.com/very/lo...</a></p>]]></message>`+
			`<createdAt>%s</createdAt><isDeleted>false</isDeleted><isSpam>false</isSpam>`+
			`<author><name>User %d</name><username>user%d</username><isAnonymous>false</isAnonymous></author>`+
			`<thread dsq:id="t%d"/>%s</post>`+"\n",
			i, i, (i+1)%20, created.Format(time.RFC3339), i%20, i%20, (i/3)%threads, parent)
	}
	buf.WriteString("</disqus>\n")
	return buf.Bytes()
}

func extractForest(b *testing.B, data []byte) *extract.Result {
	doc, err := disqus.Decode(bytes.NewReader(data))
	if err != nil {
		b.Fatal(err)
	}
	res, err := extract.New(extract.Rules{}, zerolog.Nop()).Extract(doc)
	if err != nil {
		b.Fatal(err)
	}
	return res
}

// BenchmarkDecodeExport benchmarks XML decoding of the export
func BenchmarkDecodeExport(b *testing.B) {
	data := syntheticExport(benchThreads, benchComments)

	b.ResetTimer()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))

	for i := 0; i < b.N; i++ {
		if _, err := disqus.Decode(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(benchComments*b.N)/b.Elapsed().Seconds(), "comments/sec")
}

// BenchmarkExtract benchmarks verdicts and entity extraction
func BenchmarkExtract(b *testing.B) {
	doc, err := disqus.Decode(bytes.NewReader(syntheticExport(benchThreads, benchComments)))
	if err != nil {
		b.Fatal(err)
	}
	extractor := extract.New(extract.Rules{
		Operators: []string{"user0"},
		Handles:   map[string]string{"user1": "user-one"},
	}, zerolog.Nop())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := extractor.Extract(doc); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkNormalize benchmarks sanitizing a single comment body
func BenchmarkNormalize(b *testing.B) {
	authors := map[string]models.Author{}
	for i := 0; i < 20; i++ {
		key := "user" + strconv.Itoa(i)
		authors[key] = models.Author{Name: key, Username: key, GitHubHandle: key + "-gh"}
	}
	normalizer := normalize.New(authors, zerolog.Nop())
	body := `<p>Thanks @user3! <script>alert(1)</script>Details at ` +
		`<a href="https://example.com/2019/09/a-long-article/">https://example.com/2019/09/a-lo...</a></p>`

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = normalizer.Normalize(body)
	}
}

// BenchmarkHierarchyBuild benchmarks flattening reply chains to two levels
func BenchmarkHierarchyBuild(b *testing.B) {
	res := extractForest(b, syntheticExport(benchThreads, benchComments))
	builder := hierarchy.New(zerolog.Nop())

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := builder.Build(res.Posts, res.Comments); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportMetric(float64(benchComments*b.N)/b.Elapsed().Seconds(), "comments/sec")
}

// BenchmarkCheckpointSave benchmarks the write-then-rename checkpoint path,
// which runs once per created comment
func BenchmarkCheckpointSave(b *testing.B) {
	res := extractForest(b, syntheticExport(benchThreads, benchComments))
	if err := hierarchy.New(zerolog.Nop()).Build(res.Posts, res.Comments); err != nil {
		b.Fatal(err)
	}
	state := models.NewMigrationState()
	state.Status = models.StatusParsingComplete
	for _, p := range res.Posts {
		state.Forest = append(state.Forest, p)
	}

	store, err := checkpoint.NewFileStore(filepath.Join(b.TempDir(), "state.json"), zerolog.Nop())
	if err != nil {
		b.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if err := store.Save(ctx, state); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCommentBody benchmarks rendering the attribution header
func BenchmarkCommentBody(b *testing.B) {
	post := &models.Post{ID: "1", Title: "Post", URL: "https://example.com/posts/1/"}
	c := &models.Comment{
		ID:        "c1",
		CreatedAt: time.Date(2020, 1, 1, 12, 30, 0, 0, time.UTC),
		Author:    models.Author{Name: "Jane <Doe>", Username: "jane", GitHubHandle: "jane-gh"},
		Body:      "<p>Hello</p>",
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_ = reconcile.CommentBody(post, c, "https://github.com/o/r/discussions/1#discussioncomment-1")
	}
}
