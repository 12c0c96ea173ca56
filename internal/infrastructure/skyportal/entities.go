package skyportal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

// ListInstruments returns registered instruments in the order the platform lists them.
func (c *Client) ListInstruments(ctx context.Context) ([]domain.Instrument, error) {
	var instruments []domain.Instrument
	if err := c.do(ctx, http.MethodGet, "/api/instrument", nil, &instruments); err != nil {
		return nil, fmt.Errorf("list instruments: %w", err)
	}
	return instruments, nil
}

// SourceExists probes a source by object id. Both 404 and 400 mean "no such source";
// older platform releases answer missing sources with 400.
func (c *Client) SourceExists(ctx context.Context, objectID string) (bool, error) {
	err := c.do(ctx, http.MethodGet, "/api/sources/"+url.PathEscape(objectID), nil, nil)
	if err == nil {
		return true, nil
	}
	var se *domain.StatusError
	if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusBadRequest) {
		return false, nil
	}
	return false, fmt.Errorf("probe source %s: %w", objectID, err)
}

// ListClassifications returns classifications attached to an object.
func (c *Client) ListClassifications(ctx context.Context, objectID string) ([]domain.ClassificationRef, error) {
	var refs []domain.ClassificationRef
	path := "/api/sources/" + url.PathEscape(objectID) + "/classifications"
	if err := c.do(ctx, http.MethodGet, path, nil, &refs); err != nil {
		return nil, fmt.Errorf("list classifications of %s: %w", objectID, err)
	}
	return refs, nil
}

// GetTaxonomy fetches one taxonomy including its hierarchy.
func (c *Client) GetTaxonomy(ctx context.Context, id int) (domain.Taxonomy, error) {
	var tax domain.Taxonomy
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/taxonomy/%d", id), nil, &tax); err != nil {
		return domain.Taxonomy{}, fmt.Errorf("get taxonomy %d: %w", id, err)
	}
	if tax.ID == 0 {
		tax.ID = id
	}
	return tax, nil
}

// CreateSource posts a source record.
func (c *Client) CreateSource(ctx context.Context, req ports.SourceRequest) error {
	payload := map[string]any{
		"id":        req.ObjectID,
		"ra":        req.RA,
		"dec":       req.Dec,
		"group_ids": req.GroupIDs,
	}
	return c.do(ctx, http.MethodPost, "/api/sources", payload, nil)
}

// CreateCandidate posts a candidate record.
func (c *Client) CreateCandidate(ctx context.Context, req ports.CandidateRequest) error {
	payload := map[string]any{
		"id":         req.ObjectID,
		"ra":         req.RA,
		"dec":        req.Dec,
		"filter_ids": req.FilterIDs,
		"passed_at":  req.PassedAt,
	}
	return c.do(ctx, http.MethodPost, "/api/candidates", payload, nil)
}

// CreatePhotometry posts one photometry point.
func (c *Client) CreatePhotometry(ctx context.Context, req ports.PhotometryRequest) error {
	payload := map[string]any{
		"obj_id":        req.ObjectID,
		"mjd":           req.MJD,
		"instrument_id": req.InstrumentID,
		"filter":        req.Photometry.Filter,
		"mag":           req.Photometry.Mag,
		"magerr":        req.Photometry.MagErr,
		"limiting_mag":  req.Photometry.LimitingMag,
		"magsys":        req.Photometry.MagSys,
		"ra":            req.RA,
		"dec":           req.Dec,
		"group_ids":     req.GroupIDs,
		"stream_ids":    req.StreamIDs,
	}
	return c.do(ctx, http.MethodPost, "/api/photometry", payload, nil)
}

// CreateClassification posts a new classification.
func (c *Client) CreateClassification(ctx context.Context, req ports.ClassificationRequest) error {
	return c.do(ctx, http.MethodPost, "/api/classification", classificationPayload(req, false), nil)
}

// UpdateClassification rewrites an existing classification; the update endpoint
// requires the original author to be re-asserted.
func (c *Client) UpdateClassification(ctx context.Context, id int, req ports.ClassificationRequest) error {
	path := fmt.Sprintf("/api/classification/%d", id)
	return c.do(ctx, http.MethodPut, path, classificationPayload(req, true), nil)
}

func classificationPayload(req ports.ClassificationRequest, update bool) map[string]any {
	payload := map[string]any{
		"obj_id":         req.ObjectID,
		"classification": req.Classification,
		"taxonomy_id":    req.TaxonomyID,
		"group_ids":      req.GroupIDs,
	}
	if req.Probability != nil {
		payload["probability"] = *req.Probability
	}
	if update {
		payload["author_id"] = req.AuthorID
		payload["author_name"] = req.AuthorName
	}
	return payload
}
