package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

var errTransport = errors.New("connection refused")

type fakePlatform struct {
	mu sync.Mutex

	instruments    []domain.Instrument
	instrumentsErr error
	sources        map[string]bool
	probeErr       error
	classes        map[string][]domain.ClassificationRef
	classesErr     error
	taxonomy       domain.Taxonomy
	taxonomyErr    error
	taxonomyCalls  int
	failures       map[string]error

	writes     []string
	candidates []ports.CandidateRequest
	photometry []ports.PhotometryRequest
	created    []ports.ClassificationRequest
	updated    map[int]ports.ClassificationRequest
}

var _ ports.Platform = (*fakePlatform)(nil)

func newFakePlatform(instruments ...string) *fakePlatform {
	p := &fakePlatform{
		sources:  map[string]bool{},
		classes:  map[string][]domain.ClassificationRef{},
		failures: map[string]error{},
		updated:  map[int]ports.ClassificationRequest{},
	}
	for i, name := range instruments {
		p.instruments = append(p.instruments, domain.Instrument{ID: i + 1, Name: name})
	}
	return p
}

func (p *fakePlatform) ListInstruments(context.Context) ([]domain.Instrument, error) {
	return p.instruments, p.instrumentsErr
}

func (p *fakePlatform) SourceExists(_ context.Context, objectID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.probeErr != nil {
		return false, p.probeErr
	}
	return p.sources[objectID], nil
}

func (p *fakePlatform) ListClassifications(_ context.Context, objectID string) ([]domain.ClassificationRef, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.classesErr != nil {
		return nil, p.classesErr
	}
	return p.classes[objectID], nil
}

func (p *fakePlatform) GetTaxonomy(_ context.Context, id int) (domain.Taxonomy, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.taxonomyCalls++
	if p.taxonomyErr != nil {
		return domain.Taxonomy{}, p.taxonomyErr
	}
	if id != p.taxonomy.ID {
		return domain.Taxonomy{}, &domain.StatusError{Code: 400, Message: fmt.Sprintf("no taxonomy %d", id)}
	}
	return p.taxonomy, nil
}

func (p *fakePlatform) fail(op string) error {
	return p.failures[op]
}

func (p *fakePlatform) CreateSource(_ context.Context, req ports.SourceRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("source"); err != nil {
		return err
	}
	p.sources[req.ObjectID] = true
	p.writes = append(p.writes, "source")
	return nil
}

func (p *fakePlatform) CreateCandidate(_ context.Context, req ports.CandidateRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("candidate"); err != nil {
		return err
	}
	p.candidates = append(p.candidates, req)
	p.writes = append(p.writes, "candidate")
	return nil
}

func (p *fakePlatform) CreatePhotometry(_ context.Context, req ports.PhotometryRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("photometry"); err != nil {
		return err
	}
	p.photometry = append(p.photometry, req)
	p.writes = append(p.writes, "photometry")
	return nil
}

func (p *fakePlatform) CreateClassification(_ context.Context, req ports.ClassificationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("classification"); err != nil {
		return err
	}
	p.created = append(p.created, req)
	p.classes[req.ObjectID] = append(p.classes[req.ObjectID], domain.ClassificationRef{
		ID:             100 + len(p.created),
		AuthorID:       42,
		Classification: req.Classification,
		TaxonomyID:     req.TaxonomyID,
	})
	p.writes = append(p.writes, "classification")
	return nil
}

func (p *fakePlatform) UpdateClassification(_ context.Context, id int, req ports.ClassificationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.fail("classification"); err != nil {
		return err
	}
	p.updated[id] = req
	p.writes = append(p.writes, "update classification")
	return nil
}

type fakeAdmin struct {
	groups     []domain.NamedEntity
	streams    []domain.NamedEntity
	filters    []domain.NamedEntity
	taxonomies []domain.Taxonomy

	groupsErr      error
	createTaxErr   error
	filterParents  [2]int
	postedTaxonomy *domain.TaxonomyDocument
	nextID         int
}

var _ ports.PlatformAdmin = (*fakeAdmin)(nil)

func (a *fakeAdmin) id() int {
	a.nextID++
	return 500 + a.nextID
}

func (a *fakeAdmin) ListGroups(context.Context) ([]domain.NamedEntity, error) {
	return a.groups, a.groupsErr
}

func (a *fakeAdmin) CreateGroup(_ context.Context, name string) (int, error) {
	id := a.id()
	a.groups = append(a.groups, domain.NamedEntity{ID: id, Name: name})
	return id, nil
}

func (a *fakeAdmin) ListStreams(context.Context) ([]domain.NamedEntity, error) {
	return a.streams, nil
}

func (a *fakeAdmin) CreateStream(_ context.Context, name string) (int, error) {
	id := a.id()
	a.streams = append(a.streams, domain.NamedEntity{ID: id, Name: name})
	return id, nil
}

func (a *fakeAdmin) ListFilters(context.Context) ([]domain.NamedEntity, error) {
	return a.filters, nil
}

func (a *fakeAdmin) CreateFilter(_ context.Context, name string, streamID, groupID int) (int, error) {
	id := a.id()
	a.filterParents = [2]int{streamID, groupID}
	a.filters = append(a.filters, domain.NamedEntity{ID: id, Name: name})
	return id, nil
}

func (a *fakeAdmin) ListTaxonomies(context.Context) ([]domain.Taxonomy, error) {
	return a.taxonomies, nil
}

func (a *fakeAdmin) CreateTaxonomy(_ context.Context, doc domain.TaxonomyDocument, _ []int) (int, error) {
	if a.createTaxErr != nil {
		return 0, a.createTaxErr
	}
	a.postedTaxonomy = &doc
	id := a.id()
	a.taxonomies = append(a.taxonomies, domain.Taxonomy{ID: id, Name: doc.Name, Version: doc.Version, IsLatest: true})
	return id, nil
}

type fakeJournal struct {
	mu      sync.Mutex
	reports []domain.SubmissionReport
	err     error
}

func (j *fakeJournal) Record(_ context.Context, report domain.SubmissionReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.reports = append(j.reports, report)
	return j.err
}

func (j *fakeJournal) History(context.Context, string, uint64) ([]ports.JournalEntry, error) {
	return nil, nil
}

type fakeSleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	return nil
}

func (s *fakeSleeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slept)
}

type polled struct {
	topic string
	alert ports.RawAlert
	err   error
}

type fakeConsumer struct {
	mu     sync.Mutex
	queue  []polled
	polls  int
	closed bool
	onPoll func(n int)
}

func (c *fakeConsumer) Poll(ctx context.Context, _ time.Duration) (string, ports.RawAlert, error) {
	c.mu.Lock()
	c.polls++
	n := c.polls
	hook := c.onPoll
	var next polled
	if len(c.queue) > 0 {
		next = c.queue[0]
		c.queue = c.queue[1:]
	}
	c.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	return next.topic, next.alert, next.err
}

func (c *fakeConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type fakeSubmitter struct {
	mu      sync.Mutex
	alerts  []domain.AlertRecord
	err     error
	ctxErrs []error
}

func (s *fakeSubmitter) Submit(ctx context.Context, alert domain.AlertRecord, _ domain.PlatformContext) (domain.SubmissionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, alert)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return domain.SubmissionReport{ObjectID: alert.ObjectID}, s.err
}

func rawAlert(objectID string, fid int) ports.RawAlert {
	return ports.RawAlert{
		"objectId": objectID,
		"candidate": map[string]any{
			"jd":         2459000.5,
			"fid":        float64(fid),
			"magpsf":     18.2,
			"sigmapsf":   0.05,
			"diffmaglim": 20.1,
			"ra":         150.1,
			"dec":        2.2,
		},
	}
}
