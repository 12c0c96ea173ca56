package domain

import "time"

// Photometry is a single brightness measurement taken from an alert.
type Photometry struct {
	Mag         float64
	MagErr      float64
	LimitingMag float64
	MagSys      string
	Filter      string
}

// AlertRecord is the immutable snapshot of one stream notification after field extraction.
type AlertRecord struct {
	Topic       string
	ObjectID    string
	MJD         float64
	RA          float64
	Dec         float64
	Photometry  Photometry
	Instruments []string
	// Classification is the free-text label supplied upstream; empty when none was given.
	Classification string
	// Probability is nil when the stream did not provide a confidence.
	Probability *float64
}

// ObservedAt converts the observation MJD to wall-clock time.
func (a AlertRecord) ObservedAt() time.Time {
	return MJDToTime(a.MJD)
}
