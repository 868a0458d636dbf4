package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func samplePost() *Post {
	a := &Comment{ID: "a"}
	a.Replies = []*Comment{{ID: "a1", ParentID: "a"}, {ID: "a2", ParentID: "a1"}}
	b := &Comment{ID: "b"}
	return &Post{ID: "p", Comments: []*Comment{a, b}}
}

func TestPost_EachVisitsInCreationOrder(t *testing.T) {
	post := samplePost()

	var ids, parents []string
	post.Each(func(c, parent *Comment) {
		ids = append(ids, c.ID)
		if parent == nil {
			parents = append(parents, "")
		} else {
			parents = append(parents, parent.ID)
		}
	})

	assert.Equal(t, []string{"a", "a1", "a2", "b"}, ids)
	assert.Equal(t, []string{"", "a", "a", ""}, parents)
	assert.Equal(t, len(ids), post.CommentCount())
}

func TestPost_WalkStopsOnError(t *testing.T) {
	post := samplePost()
	stop := errors.New("stop")

	visited := 0
	err := post.Walk(func(c, _ *Comment) error {
		visited++
		if c.ID == "a1" {
			return stop
		}
		return nil
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, visited)
}
