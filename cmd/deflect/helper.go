package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deflect-sim/deflect"
	"github.com/deflect-sim/deflect/dataio"
	"github.com/go-kit/log/level"
)

const dateFormat = "2006-01-02 15:04:05"

// parseInstant reads a Julian Date, a UTC date or a calendar date with a decimal day
// such as 2029-04-13.907.
func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if jd, err := strconv.ParseFloat(s, 64); err == nil {
		return deflect.FromJulianDate(jd), nil
	}
	for _, layout := range []string{dateFormat, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if jd, ok := decimalDay(s); ok {
		return deflect.FromJulianDate(jd), nil
	}
	return time.Time{}, fmt.Errorf("%q is neither a Julian Date nor a date", s)
}

// decimalDay returns the Julian Date of YYYY-MM-DD.ddd.
func decimalDay(s string) (float64, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || !strings.Contains(parts[2], ".") {
		return 0, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, false
	}
	day, err := strconv.ParseFloat(parts[2], 64)
	if err != nil || !(day >= 1 && day < 32) {
		return 0, false
	}
	return deflect.CalendarToJulianDate(year, month, day), true
}

// window parses the start and end flags. The end defaults to one year after the start.
func window(start, end string) (time.Time, time.Time, error) {
	from, err := parseInstant(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end == "" {
		return from, from.AddDate(1, 0, 0), nil
	}
	to, err := parseInstant(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// loadBodies reads the NeoWs document. Invalid asteroids are logged and skipped.
func loadBodies(path string) ([]dataio.Body, error) {
	if path == "" {
		return nil, errors.New("no input file (--input)")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	asteroids, err := dataio.DecodeNeoWs(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	bodies, err := dataio.NewCatalog(asteroids, logger)
	if err != nil {
		level.Warn(logger).Log("input", path, "skipped", len(asteroids)-len(bodies))
	}
	if len(bodies) == 0 {
		return nil, fmt.Errorf("%s: no valid asteroid", path)
	}
	return bodies, nil
}

// selectBody returns the requested body, or the only one of the input.
func selectBody(bodies []dataio.Body, id string, strict bool) (dataio.Body, error) {
	var body dataio.Body
	switch {
	case id != "":
		b, ok := dataio.Find(bodies, id)
		if !ok {
			return dataio.Body{}, fmt.Errorf("asteroid %q not found", id)
		}
		body = b
	case len(bodies) == 1:
		body = bodies[0]
	default:
		return dataio.Body{}, fmt.Errorf("%d asteroids in the input, select one with --id", len(bodies))
	}
	if strict {
		if err := body.Elements.CheckConvergence(); err != nil {
			return dataio.Body{}, fmt.Errorf("asteroid %s: %w", body.Name, err)
		}
	}
	return body, nil
}
