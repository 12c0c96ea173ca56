package skyportalfake

import (
	"context"
	"net/http"

	"FinkBridge/internal/domain"
)

type bodyKey struct{}

func withBody(ctx context.Context, body map[string]any) context.Context {
	return context.WithValue(ctx, bodyKey{}, body)
}

func bodyOf(r *http.Request) map[string]any {
	body, _ := r.Context().Value(bodyKey{}).(map[string]any)
	if body == nil {
		body = map[string]any{}
	}
	return body
}

func (s *Server) listInstruments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, append([]domain.Instrument{}, s.instruments...))
}

func (s *Server) listGroups(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := append([]domain.NamedEntity{}, s.groups...)
	writeJSON(w, map[string]any{"user_accessible_groups": groups, "all_groups": groups})
}

func (s *Server) listNamed(list *[]domain.NamedEntity) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, append([]domain.NamedEntity{}, (*list)...))
	}
}

func (s *Server) createNamed(list *[]domain.NamedEntity) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, _ := bodyOf(r)["name"].(string)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		id := s.allocID()
		*list = append(*list, domain.NamedEntity{ID: id, Name: name})
		writeJSON(w, map[string]any{"id": id})
	}
}

func (s *Server) listTaxonomies(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, append([]domain.Taxonomy{}, s.taxonomies...))
}

func (s *Server) getTaxonomy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid taxonomy id")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tax := range s.taxonomies {
		if tax.ID == id {
			writeJSON(w, tax)
			return
		}
	}
	writeError(w, http.StatusBadRequest, "Taxonomy not found")
}

func (s *Server) createTaxonomy(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	name, _ := body["name"].(string)
	version, _ := body["version"].(string)
	hierarchy, err := decodeHierarchy(body["hierarchy"])
	if name == "" || version == "" || err != nil {
		writeError(w, http.StatusBadRequest, "invalid taxonomy")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.taxonomies {
		if s.taxonomies[i].Name == name {
			s.taxonomies[i].IsLatest = false
		}
	}
	id := s.allocID()
	s.taxonomies = append(s.taxonomies, domain.Taxonomy{
		ID: id, Name: name, Version: version, IsLatest: true, Hierarchy: hierarchy,
	})
	writeJSON(w, map[string]any{"taxonomy_id": id})
}

func (s *Server) getSource(w http.ResponseWriter, r *http.Request) {
	objectID := r.PathValue("id")
	s.mu.Lock()
	exists := s.sources[objectID]
	s.mu.Unlock()
	if !exists {
		writeError(w, http.StatusNotFound, "Source not found")
		return
	}
	writeJSON(w, map[string]any{"id": objectID})
}

func (s *Server) createSource(w http.ResponseWriter, r *http.Request) {
	objectID, _ := bodyOf(r)["id"].(string)
	if objectID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[objectID] = true
	writeJSON(w, map[string]any{"id": objectID})
}

func (s *Server) createCandidate(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	if _, ok := body["passed_at"].(string); !ok {
		writeError(w, http.StatusBadRequest, "passed_at is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = append(s.candidates, body)
	writeJSON(w, map[string]any{"ids": []int{s.allocID()}})
}

func (s *Server) createPhotometry(w http.ResponseWriter, r *http.Request) {
	body := bodyOf(r)
	if _, ok := body["instrument_id"].(float64); !ok {
		writeError(w, http.StatusBadRequest, "instrument_id is required")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photometry = append(s.photometry, body)
	writeJSON(w, map[string]any{"ids": []int{s.allocID()}})
}

func (s *Server) listClassifications(w http.ResponseWriter, r *http.Request) {
	objectID := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.classifications[objectID]))
	for _, c := range s.classifications[objectID] {
		out = append(out, map[string]any{
			"id":             c.ID,
			"author_id":      c.AuthorID,
			"classification": c.Classification,
			"taxonomy_id":    c.TaxonomyID,
			"obj_id":         c.ObjectID,
		})
	}
	writeJSON(w, out)
}

func (s *Server) createClassification(w http.ResponseWriter, r *http.Request) {
	c, ok := classificationFrom(bodyOf(r))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid classification")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.allocID()
	c.AuthorID = AuthorID
	s.classifications[c.ObjectID] = append(s.classifications[c.ObjectID], c)
	writeJSON(w, map[string]any{"classification_id": c.ID})
}

func (s *Server) updateClassification(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid classification id")
		return
	}
	body := bodyOf(r)
	update, ok := classificationFrom(body)
	authorID, hasAuthor := body["author_id"].(float64)
	if !ok || !hasAuthor {
		writeError(w, http.StatusBadRequest, "author_id is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.classifications[update.ObjectID] {
		if c.ID != id {
			continue
		}
		if int(authorID) != c.AuthorID {
			writeError(w, http.StatusBadRequest, "author mismatch")
			return
		}
		c.Classification = update.Classification
		c.Probability = update.Probability
		c.TaxonomyID = update.TaxonomyID
		c.AuthorName, _ = body["author_name"].(string)
		writeJSON(w, map[string]any{})
		return
	}
	writeError(w, http.StatusBadRequest, "Classification not found")
}

func classificationFrom(body map[string]any) (*Classification, bool) {
	objectID, _ := body["obj_id"].(string)
	label, _ := body["classification"].(string)
	taxonomyID, _ := body["taxonomy_id"].(float64)
	if objectID == "" || label == "" || taxonomyID == 0 {
		return nil, false
	}
	c := &Classification{ObjectID: objectID, Classification: label, TaxonomyID: int(taxonomyID)}
	if p, ok := body["probability"].(float64); ok {
		c.Probability = &p
	}
	return c, true
}
