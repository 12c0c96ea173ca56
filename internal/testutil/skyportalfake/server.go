// Package skyportalfake is an in-memory stand-in for the platform REST API used by tests.
package skyportalfake

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"FinkBridge/internal/domain"
)

// AuthorID is the user id the fake assigns to classifications it creates.
const AuthorID = 42

// Call is one request received by the fake.
type Call struct {
	Method string
	Path   string
	Body   map[string]any
}

// Classification is a stored classification.
type Classification struct {
	ID             int
	ObjectID       string
	Classification string
	AuthorID       int
	AuthorName     string
	TaxonomyID     int
	Probability    *float64
}

// Server is an httptest server emulating the endpoints the bridge uses.
type Server struct {
	*httptest.Server

	token string

	mu              sync.Mutex
	nextID          int
	calls           []Call
	failures        map[string]int
	htmlFailures    map[string]bool
	instruments     []domain.Instrument
	groups          []domain.NamedEntity
	streams         []domain.NamedEntity
	filters         []domain.NamedEntity
	taxonomies      []domain.Taxonomy
	sources         map[string]bool
	candidates      []map[string]any
	photometry      []map[string]any
	classifications map[string][]*Classification
}

// New starts a fake that requires token (empty disables the check) and stops it on cleanup.
func New(t testing.TB, token string) *Server {
	t.Helper()
	s := &Server{
		token:           token,
		nextID:          1,
		failures:        map[string]int{},
		htmlFailures:    map[string]bool{},
		sources:         map[string]bool{},
		classifications: map[string][]*Classification{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/instrument", s.listInstruments)
	mux.HandleFunc("GET /api/groups", s.listGroups)
	mux.HandleFunc("POST /api/groups", s.createNamed(&s.groups))
	mux.HandleFunc("GET /api/streams", s.listNamed(&s.streams))
	mux.HandleFunc("POST /api/streams", s.createNamed(&s.streams))
	mux.HandleFunc("GET /api/filters", s.listNamed(&s.filters))
	mux.HandleFunc("POST /api/filters", s.createNamed(&s.filters))
	mux.HandleFunc("GET /api/taxonomy", s.listTaxonomies)
	mux.HandleFunc("GET /api/taxonomy/{id}", s.getTaxonomy)
	mux.HandleFunc("POST /api/taxonomy", s.createTaxonomy)
	mux.HandleFunc("GET /api/sources/{id}", s.getSource)
	mux.HandleFunc("POST /api/sources", s.createSource)
	mux.HandleFunc("GET /api/sources/{id}/classifications", s.listClassifications)
	mux.HandleFunc("POST /api/candidates", s.createCandidate)
	mux.HandleFunc("POST /api/photometry", s.createPhotometry)
	mux.HandleFunc("POST /api/classification", s.createClassification)
	mux.HandleFunc("PUT /api/classification/{id}", s.updateClassification)

	s.Server = httptest.NewServer(s.middleware(mux))
	t.Cleanup(s.Close)
	return s
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		key := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path, Body: body})
		status, fail := s.failures[key]
		html := s.htmlFailures[key]
		s.mu.Unlock()

		if s.token != "" && r.Header.Get("Authorization") != "token "+s.token {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		if fail {
			if html {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(status)
				_, _ = fmt.Fprintf(w, "<html><head><title>%d Bad Gateway</title></head><body>nginx</body></html>", status)
				return
			}
			writeError(w, status, "injected failure")
			return
		}

		next.ServeHTTP(w, r.WithContext(withBody(r.Context(), body)))
	})
}

// FailWith makes every request matching method and exact path answer with status.
func (s *Server) FailWith(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// FailWithHTML is FailWith answering with an HTML error page.
func (s *Server) FailWithHTML(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
	s.htmlFailures[method+" "+path] = true
}

// AddInstrument registers an instrument and returns its id.
func (s *Server) AddInstrument(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.instruments = append(s.instruments, domain.Instrument{ID: id, Name: name})
	return id
}

// AddTaxonomy stores a taxonomy and returns its id.
func (s *Server) AddTaxonomy(name, version string, hierarchy domain.TaxonomyNode) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.taxonomies = append(s.taxonomies, domain.Taxonomy{ID: id, Name: name, Version: version, IsLatest: true, Hierarchy: hierarchy})
	return id
}

// AddGroup registers a group and returns its id.
func (s *Server) AddGroup(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.allocID()
	s.groups = append(s.groups, domain.NamedEntity{ID: id, Name: name})
	return id
}

// AddSource marks an object as an existing source.
func (s *Server) AddSource(objectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[objectID] = true
}

// Calls returns every request received so far.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CountCalls counts requests with the given method whose path starts with prefix.
func (s *Server) CountCalls(method, prefix string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) {
			n++
		}
	}
	return n
}

// Writes counts POST and PUT requests.
func (s *Server) Writes() int {
	return s.CountCalls(http.MethodPost, "/") + s.CountCalls(http.MethodPut, "/")
}

// HasSource reports whether a source was created or registered.
func (s *Server) HasSource(objectID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sources[objectID]
}

// Candidates returns posted candidate payloads.
func (s *Server) Candidates() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.candidates...)
}

// Photometry returns posted photometry payloads.
func (s *Server) Photometry() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.photometry...)
}

// Classifications returns copies of the classifications stored for an object.
func (s *Server) Classifications(objectID string) []Classification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Classification, 0, len(s.classifications[objectID]))
	for _, c := range s.classifications[objectID] {
		out = append(out, *c)
	}
	return out
}

// Taxonomies returns stored taxonomies.
func (s *Server) Taxonomies() []domain.Taxonomy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Taxonomy(nil), s.taxonomies...)
}

func (s *Server) allocID() int {
	id := s.nextID
	s.nextID++
	return id
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "success", "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "error", "message": message, "data": map[string]any{}})
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil
}
