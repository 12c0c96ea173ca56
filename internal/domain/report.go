package domain

import (
	"net/http"
	"time"
)

// Step names one entity operation of a submission.
type Step string

const (
	StepInstrument     Step = "instrument"
	StepSource         Step = "source"
	StepCandidate      Step = "candidate"
	StepPhotometry     Step = "photometry"
	StepClassification Step = "classification"
)

// Action describes what a step did on the platform.
type Action string

const (
	ActionCreated  Action = "created"
	ActionUpdated  Action = "updated"
	ActionResolved Action = "resolved"
	ActionSkipped  Action = "skipped"
	ActionFailed   Action = "failed"
)

// StepResult is the outcome of a single step.
type StepResult struct {
	Step   Step
	Action Action
	Status int
	Detail string
}

// Failed reports whether the step produced a non-200 status.
func (r StepResult) Failed() bool {
	return r.Status != http.StatusOK
}

// SubmissionReport collects per-step outcomes of one alert submission.
type SubmissionReport struct {
	ID          string
	ObjectID    string
	Steps       []StepResult
	SubmittedAt time.Time
}

// Add appends a step result.
func (r *SubmissionReport) Add(result StepResult) {
	r.Steps = append(r.Steps, result)
}

// Status returns the last non-200 status observed, or 200 when every step succeeded.
// A later failure overrides an earlier one; successes never clear a failure.
func (r SubmissionReport) Status() int {
	status := http.StatusOK
	for _, step := range r.Steps {
		if step.Failed() {
			status = step.Status
		}
	}
	return status
}

// Writes counts the steps that created or updated a platform record.
func (r SubmissionReport) Writes() int {
	n := 0
	for _, step := range r.Steps {
		if step.Action == ActionCreated || step.Action == ActionUpdated {
			n++
		}
	}
	return n
}

// Result returns the result recorded for a step, if any.
func (r SubmissionReport) Result(step Step) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Step == step {
			return s, true
		}
	}
	return StepResult{}, false
}
