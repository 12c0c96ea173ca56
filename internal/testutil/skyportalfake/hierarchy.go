package skyportalfake

import (
	"encoding/json"

	"FinkBridge/internal/domain"
)

func decodeHierarchy(raw any) (domain.TaxonomyNode, error) {
	var node domain.TaxonomyNode
	data, err := json.Marshal(raw)
	if err != nil {
		return node, err
	}
	err = json.Unmarshal(data, &node)
	return node, err
}
