package dataio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/deflect-sim/deflect"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	json "github.com/goccy/go-json"
)

// number is a float which NeoWs sends either as a JSON number or as a string.
// Null and empty strings decode to zero.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type neoObject struct {
	ID                string `json:"id"`
	NeoReferenceID    string `json:"neo_reference_id"`
	Name              string `json:"name"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	AbsoluteMagnitude number `json:"absolute_magnitude_h"`
	EstimatedDiameter struct {
		Kilometers struct {
			Min number `json:"estimated_diameter_min"`
			Max number `json:"estimated_diameter_max"`
		} `json:"kilometers"`
	} `json:"estimated_diameter"`
	OrbitalData *struct {
		OrbitID                string `json:"orbit_id"`
		EpochOsculation        number `json:"epoch_osculation"`
		Eccentricity           number `json:"eccentricity"`
		SemiMajorAxis          number `json:"semi_major_axis"`
		Inclination            number `json:"inclination"`
		AscendingNodeLongitude number `json:"ascending_node_longitude"`
		PerihelionArgument     number `json:"perihelion_argument"`
		MeanAnomaly            number `json:"mean_anomaly"`
		MeanMotion             number `json:"mean_motion"`
		OrbitalPeriod          number `json:"orbital_period"`
		OrbitClass             struct {
			Type string `json:"orbit_class_type"`
		} `json:"orbit_class"`
	} `json:"orbital_data"`
	CloseApproachData []struct {
		Date             string `json:"close_approach_date"`
		DateFull         string `json:"close_approach_date_full"`
		EpochMillis      number `json:"epoch_date_close_approach"`
		RelativeVelocity struct {
			Kms number `json:"kilometers_per_second"`
		} `json:"relative_velocity"`
		MissDistance struct {
			Astronomical number `json:"astronomical"`
			Lunar        number `json:"lunar"`
			Kilometers   number `json:"kilometers"`
		} `json:"miss_distance"`
		OrbitingBody string `json:"orbiting_body"`
	} `json:"close_approach_data"`
}

// CloseApproach is a close approach to the Earth reported by NeoWs.
type CloseApproach struct {
	Time        time.Time
	VelocityKms float64
	MissKm      float64
	MissLunar   float64
	MissAU      float64
}

// Asteroid is a near Earth object with its raw osculating elements.
type Asteroid struct {
	ID                string
	Name              string
	Hazardous         bool
	AbsoluteMagnitude float64
	DiameterMinKm     float64
	DiameterMaxKm     float64
	OrbitID           string
	OrbitClass        string
	Record            deflect.ElementRecord
	CloseApproaches   []CloseApproach
	// Physical is set by an Enricher.
	Physical *PhysicalData
}

// DiameterKm returns the measured diameter if known, otherwise the average of the NeoWs estimates,
// otherwise the diameter derived from the absolute magnitude and albedo.
func (a Asteroid) DiameterKm() float64 {
	if a.Physical != nil && a.Physical.DiameterKm > 0 {
		return a.Physical.DiameterKm
	}
	if a.DiameterMinKm > 0 || a.DiameterMaxKm > 0 {
		return (a.DiameterMinKm + a.DiameterMaxKm) / 2
	}
	if a.Physical != nil {
		return DiameterFromMagnitude(a.AbsoluteMagnitude, a.Physical.Albedo)
	}
	return 0
}

// SpectralType returns the enriched spectral type or an empty string.
func (a Asteroid) SpectralType() string {
	if a.Physical == nil {
		return ""
	}
	return a.Physical.SpectralType()
}

// Elements converts the raw record.
func (a Asteroid) Elements() (deflect.Elements, error) {
	o, err := deflect.NewElementsFromRecord(a.Record)
	if err != nil {
		return deflect.Elements{}, fmt.Errorf("asteroid %s (%s): %w", a.Name, a.ID, err)
	}
	return o, nil
}

// Target returns the impact target of this asteroid.
func (a Asteroid) Target() (deflect.Target, error) {
	o, err := a.Elements()
	if err != nil {
		return deflect.Target{}, err
	}
	return deflect.Target{Name: a.Name, Elements: o, DiameterKm: a.DiameterKm(), SpectralType: a.SpectralType()}, nil
}

// DecodeNeoWs decodes a NeoWs browse response, a feed response or a processed asteroid list.
// Objects appearing more than once in a feed are kept once.
func DecodeNeoWs(r io.Reader) ([]Asteroid, error) {
	var doc struct {
		NearEarthObjects json.RawMessage `json:"near_earth_objects"`
		Asteroids        []neoObject     `json:"asteroids"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding NeoWs document: %w", err)
	}
	objects := doc.Asteroids
	if raw := bytes.TrimSpace(doc.NearEarthObjects); len(raw) > 0 {
		switch raw[0] {
		case '[':
			var browse []neoObject
			if err := json.Unmarshal(raw, &browse); err != nil {
				return nil, fmt.Errorf("decoding browse list: %w", err)
			}
			objects = append(objects, browse...)
		case '{':
			var feed map[string][]neoObject
			if err := json.Unmarshal(raw, &feed); err != nil {
				return nil, fmt.Errorf("decoding feed: %w", err)
			}
			dates := make([]string, 0, len(feed))
			for date := range feed {
				dates = append(dates, date)
			}
			sort.Strings(dates)
			for _, date := range dates {
				objects = append(objects, feed[date]...)
			}
		case 'n':
		default:
			return nil, errors.New("near_earth_objects is neither a list nor a feed")
		}
	}

	seen := make(map[string]bool, len(objects))
	asteroids := make([]Asteroid, 0, len(objects))
	for _, obj := range objects {
		ast := obj.asteroid()
		if seen[ast.ID] {
			continue
		}
		seen[ast.ID] = true
		asteroids = append(asteroids, ast)
	}
	return asteroids, nil
}

func (obj neoObject) asteroid() Asteroid {
	ast := Asteroid{
		ID:                obj.ID,
		Name:              strings.TrimSpace(obj.Name),
		Hazardous:         obj.Hazardous,
		AbsoluteMagnitude: float64(obj.AbsoluteMagnitude),
		DiameterMinKm:     float64(obj.EstimatedDiameter.Kilometers.Min),
		DiameterMaxKm:     float64(obj.EstimatedDiameter.Kilometers.Max),
	}
	if ast.ID == "" {
		ast.ID = obj.NeoReferenceID
	}
	if ast.Name == "" {
		ast.Name = ast.ID
	}
	if od := obj.OrbitalData; od != nil {
		ast.OrbitID = od.OrbitID
		ast.OrbitClass = od.OrbitClass.Type
		ast.Record = deflect.ElementRecord{
			SemiMajorAxis:          float64(od.SemiMajorAxis),
			Eccentricity:           float64(od.Eccentricity),
			Inclination:            float64(od.Inclination),
			AscendingNodeLongitude: float64(od.AscendingNodeLongitude),
			PerihelionArgument:     float64(od.PerihelionArgument),
			MeanAnomaly:            float64(od.MeanAnomaly),
			MeanMotion:             float64(od.MeanMotion),
			EpochOsculation:        float64(od.EpochOsculation),
			OrbitalPeriod:          float64(od.OrbitalPeriod),
		}
	}
	for _, ca := range obj.CloseApproachData {
		if !strings.EqualFold(ca.OrbitingBody, "Earth") {
			continue
		}
		ast.CloseApproaches = append(ast.CloseApproaches, CloseApproach{
			Time:        approachTime(ca.DateFull, ca.Date, float64(ca.EpochMillis)),
			VelocityKms: float64(ca.RelativeVelocity.Kms),
			MissKm:      float64(ca.MissDistance.Kilometers),
			MissLunar:   float64(ca.MissDistance.Lunar),
			MissAU:      float64(ca.MissDistance.Astronomical),
		})
	}
	return ast
}

// approachTime parses the approach instant, preferring the full date over the epoch and the day.
func approachTime(full, day string, epochMillis float64) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-Jan-02 15:04"} {
		if t, err := time.Parse(layout, full); err == nil {
			return t.UTC()
		}
	}
	if epochMillis > 0 {
		return time.UnixMilli(int64(epochMillis)).UTC()
	}
	if t, err := time.Parse("2006-01-02", day); err == nil {
		return t
	}
	return time.Time{}
}

// Body is an asteroid with its validated elements.
type Body struct {
	Asteroid
	Elements deflect.Elements
}

// NewCatalog validates the elements of every asteroid. Invalid asteroids are logged and left out,
// and their errors are joined in the returned error. The valid bodies are returned in all cases.
func NewCatalog(asteroids []Asteroid, logger kitlog.Logger) ([]Body, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	logger = kitlog.With(logger, "subsys", "dataio")
	bodies := make([]Body, 0, len(asteroids))
	var errs []error
	for _, ast := range asteroids {
		o, err := ast.Elements()
		if err != nil {
			level.Warn(logger).Log("asteroid", ast.ID, "name", ast.Name, "err", err)
			errs = append(errs, err)
			continue
		}
		if err := o.CheckConvergence(); err != nil {
			level.Warn(logger).Log("asteroid", ast.ID, "name", ast.Name, "warning", err)
		}
		bodies = append(bodies, Body{Asteroid: ast, Elements: o})
	}
	level.Info(logger).Log("asteroids", len(asteroids), "valid", len(bodies))
	return bodies, errors.Join(errs...)
}

// Find returns the body whose ID or name matches, ignoring case and surrounding parentheses.
func Find(bodies []Body, key string) (Body, bool) {
	norm := func(s string) string {
		return strings.ToLower(strings.Trim(strings.TrimSpace(s), "()"))
	}
	key = norm(key)
	for _, b := range bodies {
		if norm(b.ID) == key || norm(b.Name) == key {
			return b, true
		}
	}
	return Body{}, false
}
