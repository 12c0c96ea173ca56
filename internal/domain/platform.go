package domain

// PlatformContext carries the identifiers resolved at startup and shared read-only by every submission.
type PlatformContext struct {
	BaseURL     string
	Token       string
	GroupID     int
	StreamID    int
	FilterID    int
	TaxonomyID  int
	Whitelisted bool
}

// HasTaxonomy reports whether classification can be attempted at all.
func (c PlatformContext) HasTaxonomy() bool {
	return c.TaxonomyID > 0
}

// Instrument is a platform-registered instrument.
type Instrument struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ClassificationRef identifies an existing classification of an object.
type ClassificationRef struct {
	ID             int     `json:"id"`
	AuthorID       int     `json:"author_id"`
	Classification string  `json:"classification"`
	Probability    float64 `json:"probability"`
	TaxonomyID     int     `json:"taxonomy_id"`
}

// NamedEntity is a group, stream or filter returned by the platform.
type NamedEntity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
