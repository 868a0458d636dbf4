package models

// Article is a locally published page that imported comments can be attached to
type Article struct {
	Title   string `json:"title" yaml:"title"`
	Excerpt string `json:"excerpt,omitempty" yaml:"excerpt"`
	URL     string `json:"url" yaml:"url"`
	Source  string `json:"source,omitempty" yaml:"-"` // file the article was read from
}
