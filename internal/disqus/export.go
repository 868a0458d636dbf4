// Package disqus decodes the XML export produced by the Disqus admin panel.
//
// Records are kept close to the wire format: flags are booleans, timestamps
// and ids are raw strings, and the message body is a pointer so a missing
// <message> element can be told apart from an empty one. Validation is the
// extractor's job.
package disqus

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Export is the root <disqus> document
type Export struct {
	XMLName xml.Name `xml:"disqus"`
	Threads []Thread `xml:"thread"`
	Posts   []Post   `xml:"post"`
}

// Thread is one discussion container, usually a page of the site
type Thread struct {
	ID        string `xml:"id,attr"`
	Forum     string `xml:"forum"`
	Link      string `xml:"link"`
	Title     string `xml:"title"`
	CreatedAt string `xml:"createdAt"`
	IsClosed  bool   `xml:"isClosed"`
	IsDeleted bool   `xml:"isDeleted"`
}

// Post is a single comment
type Post struct {
	ID        string  `xml:"id,attr"`
	Message   *string `xml:"message"`
	CreatedAt string  `xml:"createdAt"`
	IsDeleted bool    `xml:"isDeleted"`
	IsSpam    bool    `xml:"isSpam"`
	Author    Author  `xml:"author"`
	Thread    Ref     `xml:"thread"`
	Parent    *Ref    `xml:"parent"`
}

// Author is the author block of a post
type Author struct {
	Name        string `xml:"name"`
	Username    string `xml:"username"`
	IsAnonymous bool   `xml:"isAnonymous"`
}

// Ref points at another record through its dsq:id attribute
type Ref struct {
	ID string `xml:"id,attr"`
}

// ParentID returns the referenced parent id, or "" for a top-level post
func (p *Post) ParentID() string {
	if p.Parent == nil {
		return ""
	}
	return p.Parent.ID
}

// Decode reads an export document from r
func Decode(r io.Reader) (*Export, error) {
	var doc Export
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode disqus export: %w", err)
	}
	return &doc, nil
}

// Open reads the export file at path
func Open(path string) (*Export, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Decode(file)
}
