package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
	"FinkBridge/internal/taxonomy"
)

// PipelineDeps wires the driven adapters into the upsert pipeline.
type PipelineDeps struct {
	Platform   ports.Platform
	Matcher    *taxonomy.Matcher
	Journal    ports.Journal
	AuthorName string
	Logger     *slog.Logger
	Now        func() time.Time
}

// Pipeline pushes one alert through instrument, source, candidate, photometry
// and classification, in that order.
type Pipeline struct {
	platform   ports.Platform
	resolver   *Resolver
	matcher    *taxonomy.Matcher
	journal    ports.Journal
	authorName string
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	matcher := deps.Matcher
	if matcher == nil {
		matcher = taxonomy.NewMatcher(deps.Platform, nil)
	}

	return &Pipeline{
		platform:   deps.Platform,
		resolver:   NewResolver(deps.Platform),
		matcher:    matcher,
		journal:    deps.Journal,
		authorName: deps.AuthorName,
		logger:     logger,
		now:        now,
	}
}

// Submit upserts alert into the platform. Non-200 replies are recorded in the
// report and processing continues; any other error aborts this alert and is
// returned together with the partial report.
func (p *Pipeline) Submit(ctx context.Context, alert domain.AlertRecord, pc domain.PlatformContext) (domain.SubmissionReport, error) {
	report := domain.SubmissionReport{
		ID:          uuid.NewString(),
		ObjectID:    alert.ObjectID,
		SubmittedAt: p.now().UTC(),
	}

	err := p.submit(ctx, alert, pc, &report)
	p.record(ctx, report)
	if err != nil {
		return report, fmt.Errorf("submit %s: %w", alert.ObjectID, err)
	}

	p.logger.Info("alert submitted",
		"object", alert.ObjectID,
		"observed", alert.ObservedAt().Format(time.RFC3339),
		"status", report.Status(),
		"writes", report.Writes())
	return report, nil
}

func (p *Pipeline) submit(ctx context.Context, alert domain.AlertRecord, pc domain.PlatformContext, report *domain.SubmissionReport) error {
	instrument, err := p.resolver.ResolveInstrument(ctx, alert.Instruments)
	if err != nil {
		status, ok := domain.StatusCode(err)
		switch {
		case errors.Is(err, domain.ErrInstrumentNotFound):
			status = http.StatusNotFound
		case !ok:
			return err
		}
		p.logger.Warn("instrument unresolved, alert not submitted",
			"object", alert.ObjectID, "status", status, "error", err)
		report.Add(domain.StepResult{Step: domain.StepInstrument, Action: domain.ActionFailed, Status: status, Detail: err.Error()})
		return nil
	}
	report.Add(domain.StepResult{Step: domain.StepInstrument, Action: domain.ActionResolved, Status: http.StatusOK, Detail: instrument.Name})

	groups := groupIDs(pc)

	if err := p.upsertSource(ctx, alert, groups, report); err != nil {
		return err
	}

	err = p.platform.CreateCandidate(ctx, ports.CandidateRequest{
		ObjectID:  alert.ObjectID,
		RA:        alert.RA,
		Dec:       alert.Dec,
		FilterIDs: idList(pc.FilterID),
		PassedAt:  domain.FormatPlatformTime(alert.MJD),
	})
	if err := p.write(report, domain.StepCandidate, domain.ActionCreated, err); err != nil {
		return err
	}

	err = p.platform.CreatePhotometry(ctx, ports.PhotometryRequest{
		ObjectID:     alert.ObjectID,
		MJD:          alert.MJD,
		InstrumentID: instrument.ID,
		Photometry:   alert.Photometry,
		RA:           alert.RA,
		Dec:          alert.Dec,
		GroupIDs:     groups,
		StreamIDs:    idList(pc.StreamID),
	})
	if err := p.write(report, domain.StepPhotometry, domain.ActionCreated, err); err != nil {
		return err
	}

	return p.upsertClassification(ctx, alert, pc, groups, report)
}

func (p *Pipeline) upsertSource(ctx context.Context, alert domain.AlertRecord, groups []int, report *domain.SubmissionReport) error {
	exists, err := p.resolver.SourceExists(ctx, alert.ObjectID)
	if err != nil {
		if _, ok := domain.StatusCode(err); !ok {
			return err
		}
		p.logger.Warn("source probe failed", "object", alert.ObjectID, "error", err)
	}

	// The platform saves over an existing source, so repeat detections refresh it.
	action := domain.ActionCreated
	if exists {
		action = domain.ActionUpdated
	}
	err = p.platform.CreateSource(ctx, ports.SourceRequest{
		ObjectID: alert.ObjectID,
		RA:       alert.RA,
		Dec:      alert.Dec,
		GroupIDs: groups,
	})
	return p.write(report, domain.StepSource, action, err)
}

func (p *Pipeline) upsertClassification(ctx context.Context, alert domain.AlertRecord, pc domain.PlatformContext, groups []int, report *domain.SubmissionReport) error {
	skip := func(detail string) {
		report.Add(domain.StepResult{Step: domain.StepClassification, Action: domain.ActionSkipped, Status: http.StatusOK, Detail: detail})
	}

	if !pc.HasTaxonomy() {
		skip("no taxonomy configured")
		return nil
	}
	if alert.Classification == "" {
		skip("no classification")
		return nil
	}

	result, err := p.matcher.Resolve(ctx, alert.Classification, pc.TaxonomyID)
	if err != nil {
		if _, ok := domain.StatusCode(err); !ok {
			return err
		}
		p.logger.Warn("taxonomy lookup failed, classification skipped", "object", alert.ObjectID, "error", err)
		skip("taxonomy unavailable")
		return nil
	}
	name, matched := result.Name()
	if !matched {
		p.logger.Info("classification not in taxonomy, skipped",
			"object", alert.ObjectID, "classification", alert.Classification)
		skip("not in taxonomy: " + alert.Classification)
		return nil
	}

	existing, found, err := p.resolver.ExistingClassification(ctx, alert.ObjectID)
	if err != nil {
		status, ok := domain.StatusCode(err)
		if !ok {
			return err
		}
		report.Add(domain.StepResult{Step: domain.StepClassification, Action: domain.ActionFailed, Status: status, Detail: err.Error()})
		return nil
	}

	req := ports.ClassificationRequest{
		ObjectID:       alert.ObjectID,
		Classification: name,
		Probability:    alert.Probability,
		TaxonomyID:     pc.TaxonomyID,
		GroupIDs:       groups,
	}

	if !found {
		err = p.platform.CreateClassification(ctx, req)
		return p.write(report, domain.StepClassification, domain.ActionCreated, err)
	}

	req.AuthorID = existing.AuthorID
	req.AuthorName = p.authorName
	err = p.platform.UpdateClassification(ctx, existing.ID, req)
	return p.write(report, domain.StepClassification, domain.ActionUpdated, err)
}

// write records the outcome of a write call. Status errors become failed
// steps; anything else is returned to abort the submission.
func (p *Pipeline) write(report *domain.SubmissionReport, step domain.Step, action domain.Action, err error) error {
	if err == nil {
		report.Add(domain.StepResult{Step: step, Action: action, Status: http.StatusOK})
		return nil
	}

	status, ok := domain.StatusCode(err)
	if !ok {
		return fmt.Errorf("%s: %w", step, err)
	}

	p.logger.Warn("platform rejected write",
		"object", report.ObjectID, "step", string(step), "status", status, "error", err)
	report.Add(domain.StepResult{Step: step, Action: domain.ActionFailed, Status: status, Detail: err.Error()})
	return nil
}

func (p *Pipeline) record(ctx context.Context, report domain.SubmissionReport) {
	if p.journal == nil || len(report.Steps) == 0 {
		return
	}
	if err := p.journal.Record(ctx, report); err != nil {
		p.logger.Error("journal record failed", "object", report.ObjectID, "error", err)
	}
}

func groupIDs(pc domain.PlatformContext) []int {
	return idList(pc.GroupID)
}

func idList(id int) []int {
	if id <= 0 {
		return nil
	}
	return []int{id}
}
