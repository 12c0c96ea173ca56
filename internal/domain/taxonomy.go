package domain

// TaxonomyNode is one class in a classification hierarchy.
type TaxonomyNode struct {
	Class      string         `json:"class" yaml:"class"`
	OtherNames []string       `json:"other names,omitempty" yaml:"other names,omitempty"`
	Subclasses []TaxonomyNode `json:"subclasses,omitempty" yaml:"subclasses,omitempty"`
}

// Taxonomy is a versioned classification tree stored on the platform.
type Taxonomy struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Version   string       `json:"version"`
	IsLatest  bool         `json:"isLatest"`
	Hierarchy TaxonomyNode `json:"hierarchy"`
}

// TaxonomyDocument is the on-disk description of a taxonomy to publish.
type TaxonomyDocument struct {
	Name      string       `yaml:"name"`
	Version   string       `yaml:"version"`
	Hierarchy TaxonomyNode `yaml:"hierarchy"`
}
