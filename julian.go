package deflect

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// UnixEpochJD is the Julian Date of 1970-01-01T00:00:00Z.
	UnixEpochJD = 2440587.5
	// J2000 is the Julian Date of the J2000.0 epoch.
	J2000 = 2451545.0

	secondsPerDay = 86400.0
	msPerDay      = secondsPerDay * 1000
)

// ToJulianDate returns the Julian Date of the provided instant.
func ToJulianDate(t time.Time) float64 {
	return float64(t.UnixMilli())/msPerDay + UnixEpochJD
}

// FromJulianDate returns the UTC instant of the provided Julian Date, rounded to the millisecond.
func FromJulianDate(jd float64) time.Time {
	ms := math.Round((jd - UnixEpochJD) * msPerDay)
	return time.UnixMilli(int64(ms)).UTC()
}

// CalendarToJulianDate returns the Julian Date of a Gregorian calendar date where the day
// carries the fraction of the day, e.g. 4.81 for October 4th at 19:26:24 UTC.
func CalendarToJulianDate(year, month int, day float64) float64 {
	return julian.CalendarGregorianToJD(year, month, day)
}
