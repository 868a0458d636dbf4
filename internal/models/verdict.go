package models

// Reason explains why a record was left out of the migration
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonDeleted          Reason = "deleted"
	ReasonClosed           Reason = "closed"
	ReasonSpam             Reason = "spam"
	ReasonOverride         Reason = "override"
	ReasonOrphanedThread   Reason = "orphaned_thread"
	ReasonOtherForum       Reason = "other_forum"
	ReasonEmptyURL         Reason = "empty_url"
	ReasonNoComments       Reason = "no_comments"
	ReasonNoArticle        Reason = "no_article"
	ReasonAmbiguousArticle Reason = "ambiguous_article"
)

// Verdict is the outcome of a filtering decision
type Verdict struct {
	Included bool   `json:"included"`
	Reason   Reason `json:"reason,omitempty"`
}

// Include returns a verdict keeping the record
func Include() Verdict {
	return Verdict{Included: true}
}

// Exclude returns a verdict dropping the record for the given reason
func Exclude(reason Reason) Verdict {
	return Verdict{Included: false, Reason: reason}
}
