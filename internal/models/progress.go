package models

import "time"

// RunReport summarizes one invocation of the pipeline
type RunReport struct {
	RunID              string         `json:"run_id"`
	Status             Status         `json:"status"`
	Parsed             bool           `json:"parsed"`
	Posts              int            `json:"posts"`
	DiscussionsMatched int            `json:"discussions_matched"`
	DiscussionsCreated int            `json:"discussions_created"`
	CommentsCreated    int            `json:"comments_created"`
	CommentsSkipped    int            `json:"comments_skipped"`
	Dropped            map[Reason]int `json:"dropped,omitempty"`
	Duration           time.Duration  `json:"duration"`
}

// Progress is a summary of a persisted MigrationState
type Progress struct {
	Status                string `json:"status"`
	Complete              bool   `json:"complete"`
	Posts                 int    `json:"posts"`
	DiscussionsAssociated int    `json:"discussions_associated"`
	Comments              int    `json:"comments"`
	CommentsAssociated    int    `json:"comments_associated"`
}

// PostProgress is the per-post breakdown of a Progress
type PostProgress struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	URL                string `json:"url"`
	DiscussionNumber   int    `json:"discussion_number,omitempty"`
	Comments           int    `json:"comments"`
	CommentsAssociated int    `json:"comments_associated"`
}
