package usecase

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"FinkBridge/internal/config"
	"FinkBridge/internal/domain"
	"FinkBridge/internal/ports"
)

var requiredCandidateKeys = []string{"jd", "fid", "magpsf", "sigmapsf", "diffmaglim", "ra", "dec"}

// Extractor turns raw stream alerts into AlertRecords.
type Extractor struct {
	instruments []string
	magsys      string
	filters     map[int]string
	topics      map[string]config.TopicConfig
}

// NewExtractor builds an extractor from alert constants and the topic fallback table.
func NewExtractor(cfg config.AlertConfig, topics map[string]config.TopicConfig) *Extractor {
	return &Extractor{
		instruments: cfg.Instruments,
		magsys:      cfg.MagSys,
		filters:     cfg.Filters,
		topics:      topics,
	}
}

// Extract builds the alert record. It fails with domain.ErrMalformedAlert on a
// missing objectId, a missing candidate block, a missing or non-numeric required
// candidate field, or a filter id outside the configured band table.
func (e *Extractor) Extract(topic string, raw ports.RawAlert) (domain.AlertRecord, error) {
	if raw == nil {
		return domain.AlertRecord{}, fmt.Errorf("%w: empty alert", domain.ErrMalformedAlert)
	}

	objectID, _ := raw["objectId"].(string)
	if strings.TrimSpace(objectID) == "" {
		return domain.AlertRecord{}, fmt.Errorf("%w: no objectId", domain.ErrMalformedAlert)
	}

	candidate, ok := asMap(raw["candidate"])
	if !ok {
		return domain.AlertRecord{}, fmt.Errorf("%w: %s has no candidate", domain.ErrMalformedAlert, objectID)
	}

	values := make(map[string]float64, len(requiredCandidateKeys))
	for _, key := range requiredCandidateKeys {
		v, ok := asFloat(candidate[key])
		if !ok {
			return domain.AlertRecord{}, fmt.Errorf("%w: %s candidate.%s", domain.ErrMalformedAlert, objectID, key)
		}
		values[key] = v
	}

	if v := values["fid"]; math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return domain.AlertRecord{}, fmt.Errorf("%w: %s fid %v is not a band id", domain.ErrMalformedAlert, objectID, v)
	}
	fid := int(values["fid"])
	filter, ok := e.filters[fid]
	if !ok {
		return domain.AlertRecord{}, fmt.Errorf("%w: %s unknown fid %d", domain.ErrMalformedAlert, objectID, fid)
	}

	record := domain.AlertRecord{
		Topic:    topic,
		ObjectID: objectID,
		MJD:      domain.JDToMJD(values["jd"]),
		RA:       values["ra"],
		Dec:      values["dec"],
		Photometry: domain.Photometry{
			Mag:         values["magpsf"],
			MagErr:      values["sigmapsf"],
			LimitingMag: values["diffmaglim"],
			MagSys:      e.magsys,
			Filter:      filter,
		},
		Instruments: append([]string(nil), e.instruments...),
	}

	record.Classification, record.Probability = e.classification(topic, raw)
	return record, nil
}

// classification prefers labels carried by the alert and falls back to the topic table.
func (e *Extractor) classification(topic string, raw ports.RawAlert) (string, *float64) {
	label, _ := raw["classification"].(string)
	var probability *float64
	if p, ok := asFloat(raw["probability"]); ok && p >= 0 && p <= 1 {
		probability = &p
	}

	if label != "" {
		return label, probability
	}

	fallback, ok := e.topics[topic]
	if !ok {
		return "", probability
	}
	if probability == nil && fallback.Probability != nil {
		p := *fallback.Probability
		probability = &p
	}
	return fallback.Classification, probability
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case ports.RawAlert:
		return m, m != nil
	default:
		return nil, false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
