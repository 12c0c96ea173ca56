package domain

import (
	"math"
	"time"
)

const (
	// mjdOffset is the difference between Julian Date and Modified Julian Date.
	mjdOffset = 2400000.5

	// PlatformTimeLayout mirrors the ISO "isot" representation expected by the platform.
	PlatformTimeLayout = "2006-01-02T15:04:05.000"
)

var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// JDToMJD converts a Julian Date to a Modified Julian Date.
func JDToMJD(jd float64) float64 {
	return jd - mjdOffset
}

// MJDToTime converts a Modified Julian Date to UTC time with millisecond precision.
func MJDToTime(mjd float64) time.Time {
	days := math.Floor(mjd)
	frac := mjd - days
	ms := math.Round(frac * 86400 * 1000)
	return mjdEpoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond)
}

// FormatPlatformTime renders an MJD as the ISO-8601 string sent to the platform.
func FormatPlatformTime(mjd float64) string {
	return MJDToTime(mjd).Format(PlatformTimeLayout)
}
