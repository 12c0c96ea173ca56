package ports

import (
	"context"
	"time"

	"FinkBridge/internal/domain"
)

// RawAlert is an undecoded alert as delivered by the stream transport.
type RawAlert map[string]any

// AlertConsumer pulls alerts from the upstream stream.
// Poll returns an empty topic and nil alert when nothing arrived within timeout.
type AlertConsumer interface {
	Poll(ctx context.Context, timeout time.Duration) (topic string, alert RawAlert, err error)
	Close() error
}

// InstrumentDirectory lists platform-registered instruments in listing order.
type InstrumentDirectory interface {
	ListInstruments(ctx context.Context) ([]domain.Instrument, error)
}

// SourceProbe checks whether an object already exists as a source.
type SourceProbe interface {
	SourceExists(ctx context.Context, objectID string) (bool, error)
}

// ClassificationProbe returns the classifications already attached to an object.
type ClassificationProbe interface {
	ListClassifications(ctx context.Context, objectID string) ([]domain.ClassificationRef, error)
}

// TaxonomyReader fetches the current state of a taxonomy tree.
type TaxonomyReader interface {
	GetTaxonomy(ctx context.Context, id int) (domain.Taxonomy, error)
}

// SourceRequest is the payload for a new source.
type SourceRequest struct {
	ObjectID string
	RA       float64
	Dec      float64
	GroupIDs []int
}

// CandidateRequest is the payload for a new candidate.
type CandidateRequest struct {
	ObjectID  string
	RA        float64
	Dec       float64
	FilterIDs []int
	PassedAt  string
}

// PhotometryRequest is the payload for a new photometry point.
type PhotometryRequest struct {
	ObjectID     string
	MJD          float64
	InstrumentID int
	Photometry   domain.Photometry
	RA           float64
	Dec          float64
	GroupIDs     []int
	StreamIDs    []int
}

// ClassificationRequest is the payload for creating or updating a classification.
type ClassificationRequest struct {
	ObjectID       string
	Classification string
	Probability    *float64
	TaxonomyID     int
	GroupIDs       []int
	// AuthorID and AuthorName are only sent on update.
	AuthorID   int
	AuthorName string
}

// EntityWriter performs the write side of the upsert.
// A non-200 reply is returned as an error carrying the status code.
type EntityWriter interface {
	CreateSource(ctx context.Context, req SourceRequest) error
	CreateCandidate(ctx context.Context, req CandidateRequest) error
	CreatePhotometry(ctx context.Context, req PhotometryRequest) error
	CreateClassification(ctx context.Context, req ClassificationRequest) error
	UpdateClassification(ctx context.Context, id int, req ClassificationRequest) error
}

// Platform is the full surface the pipeline needs from the source-management platform.
type Platform interface {
	InstrumentDirectory
	SourceProbe
	ClassificationProbe
	TaxonomyReader
	EntityWriter
}

// PlatformAdmin covers the setup calls made once at startup.
type PlatformAdmin interface {
	ListGroups(ctx context.Context) ([]domain.NamedEntity, error)
	CreateGroup(ctx context.Context, name string) (int, error)
	ListStreams(ctx context.Context) ([]domain.NamedEntity, error)
	CreateStream(ctx context.Context, name string) (int, error)
	ListFilters(ctx context.Context) ([]domain.NamedEntity, error)
	CreateFilter(ctx context.Context, name string, streamID, groupID int) (int, error)
	ListTaxonomies(ctx context.Context) ([]domain.Taxonomy, error)
	CreateTaxonomy(ctx context.Context, doc domain.TaxonomyDocument, groupIDs []int) (int, error)
}

// Journal records submission reports for later audit.
type Journal interface {
	Record(ctx context.Context, report domain.SubmissionReport) error
	History(ctx context.Context, objectID string, limit uint64) ([]JournalEntry, error)
}

// JournalEntry is one persisted submission.
type JournalEntry struct {
	ID          string
	ObjectID    string
	Status      int
	Steps       []string
	SubmittedAt time.Time
}

// Sleeper suspends the caller; implementations must return early with ctx.Err() on cancellation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}
