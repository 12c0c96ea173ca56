package taxonomy

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"FinkBridge/internal/domain"
)

//go:embed fink_taxonomy.yaml
var bundledTaxonomy []byte

// Bundled returns the taxonomy shipped with the binary.
func Bundled() (domain.TaxonomyDocument, error) {
	return parse(bundledTaxonomy)
}

// Load reads a taxonomy document from path, falling back to the bundled one when path is empty.
func Load(path string) (domain.TaxonomyDocument, error) {
	if path == "" {
		return Bundled()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.TaxonomyDocument{}, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return parse(raw)
}

func parse(raw []byte) (domain.TaxonomyDocument, error) {
	var doc domain.TaxonomyDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.TaxonomyDocument{}, fmt.Errorf("parse taxonomy: %w", err)
	}
	if doc.Name == "" || doc.Version == "" || doc.Hierarchy.Class == "" {
		return domain.TaxonomyDocument{}, fmt.Errorf("taxonomy requires name, version and a root class")
	}
	return doc, nil
}
