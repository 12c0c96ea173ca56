package skyportal

import (
	"context"
	"fmt"
	"net/http"

	"FinkBridge/internal/domain"
)

type createdID struct {
	ID int `json:"id"`
}

// ListGroups returns the groups accessible to the token's user.
func (c *Client) ListGroups(ctx context.Context) ([]domain.NamedEntity, error) {
	var data struct {
		UserAccessible []domain.NamedEntity `json:"user_accessible_groups"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/groups", nil, &data); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return data.UserAccessible, nil
}

// CreateGroup creates a group administered by the first admin user.
func (c *Client) CreateGroup(ctx context.Context, name string) (int, error) {
	payload := map[string]any{"name": name, "group_admins": []int{1}}
	return c.create(ctx, "/api/groups", payload)
}

// ListStreams returns every stream.
func (c *Client) ListStreams(ctx context.Context) ([]domain.NamedEntity, error) {
	var streams []domain.NamedEntity
	if err := c.do(ctx, http.MethodGet, "/api/streams", nil, &streams); err != nil {
		return nil, fmt.Errorf("list streams: %w", err)
	}
	return streams, nil
}

// CreateStream creates a stream.
func (c *Client) CreateStream(ctx context.Context, name string) (int, error) {
	return c.create(ctx, "/api/streams", map[string]any{"name": name})
}

// ListFilters returns every filter.
func (c *Client) ListFilters(ctx context.Context) ([]domain.NamedEntity, error) {
	var filters []domain.NamedEntity
	if err := c.do(ctx, http.MethodGet, "/api/filters", nil, &filters); err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	return filters, nil
}

// CreateFilter creates a filter bound to a stream and a group.
func (c *Client) CreateFilter(ctx context.Context, name string, streamID, groupID int) (int, error) {
	payload := map[string]any{"name": name, "stream_id": streamID, "group_id": groupID}
	return c.create(ctx, "/api/filters", payload)
}

// ListTaxonomies returns every taxonomy visible to the user.
func (c *Client) ListTaxonomies(ctx context.Context) ([]domain.Taxonomy, error) {
	var taxonomies []domain.Taxonomy
	if err := c.do(ctx, http.MethodGet, "/api/taxonomy", nil, &taxonomies); err != nil {
		return nil, fmt.Errorf("list taxonomies: %w", err)
	}
	return taxonomies, nil
}

// CreateTaxonomy publishes a taxonomy document.
func (c *Client) CreateTaxonomy(ctx context.Context, doc domain.TaxonomyDocument, groupIDs []int) (int, error) {
	payload := map[string]any{
		"name":      doc.Name,
		"hierarchy": doc.Hierarchy,
		"version":   doc.Version,
		"group_ids": groupIDs,
	}
	var data struct {
		TaxonomyID int `json:"taxonomy_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/taxonomy", payload, &data); err != nil {
		return 0, fmt.Errorf("create taxonomy %s: %w", doc.Name, err)
	}
	return data.TaxonomyID, nil
}

func (c *Client) create(ctx context.Context, path string, payload any) (int, error) {
	var data createdID
	if err := c.do(ctx, http.MethodPost, path, payload, &data); err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	return data.ID, nil
}
