package models

import (
	"fmt"
)

// Status is the progress of a migration run. Values are persisted as
// integers and only ever move forward by one step.
type Status int

const (
	StatusUnparsed Status = iota
	StatusParsingComplete
	StatusDiscussionsAssociated
	StatusCommentsAssociated
)

var statusNames = map[Status]string{
	StatusUnparsed:              "unparsed",
	StatusParsingComplete:       "parsing_complete",
	StatusDiscussionsAssociated: "discussions_associated",
	StatusCommentsAssociated:    "comments_associated",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Valid reports whether s is one of the known statuses
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// MigrationState is the single persisted record of a run
type MigrationState struct {
	Status Status  `json:"status"`
	Forest []*Post `json:"forest"`
}

// NewMigrationState returns the state of a run that has not started
func NewMigrationState() *MigrationState {
	return &MigrationState{
		Status: StatusUnparsed,
		Forest: []*Post{},
	}
}
