package models

import (
	"time"
)

// Author identifies the person who wrote an exported comment
type Author struct {
	Name         string `json:"name"`
	Username     string `json:"username,omitempty"`      // handle on the source forum
	GitHubHandle string `json:"github_handle,omitempty"` // resolved handle on the target
	Anonymous    bool   `json:"anonymous"`
	IsOperator   bool   `json:"is_operator"` // the account running the migration
}

// RemoteComment is the identity of a comment created on the target
type RemoteComment struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Comment represents a single exported remark
type Comment struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	ParentID  string         `json:"parent_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Author    Author         `json:"author"`
	Body      string         `json:"body"`
	Replies   []*Comment     `json:"replies,omitempty"`
	Remote    *RemoteComment `json:"remote,omitempty"`
}

// IsTopLevel reports whether the comment has no parent on the source forum
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == ""
}

// RemoteDiscussion is the identity of a discussion on the target
type RemoteDiscussion struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

// Post represents one source discussion thread
type Post struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	URL         string            `json:"url"`
	CreatedAt   time.Time         `json:"created_at"`
	Fingerprint string            `json:"fingerprint,omitempty"`
	Comments    []*Comment        `json:"comments"`
	Article     *Article          `json:"article,omitempty"`
	Discussion  *RemoteDiscussion `json:"discussion,omitempty"`
}

// CommentCount returns the number of comments in the post, replies included
func (p *Post) CommentCount() int {
	n := 0
	for _, c := range p.Comments {
		n += 1 + len(c.Replies)
	}
	return n
}

// Walk visits every comment in creation order: each top-level comment
// followed by its replies. The parent is nil for top-level comments.
func (p *Post) Walk(fn func(c, parent *Comment) error) error {
	for _, c := range p.Comments {
		if err := fn(c, nil); err != nil {
			return err
		}
		for _, r := range c.Replies {
			if err := fn(r, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Each calls fn for every comment in the same order as Walk
func (p *Post) Each(fn func(c, parent *Comment)) {
	for _, c := range p.Comments {
		fn(c, nil)
		for _, r := range c.Replies {
			fn(r, c)
		}
	}
}
