package dataio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/deflect-sim/deflect"
)

// lunarDistancesPerAU converts a distance in AU to mean lunar distances.
const lunarDistancesPerAU = deflect.AU / deflect.LunarDistance

// PhysicalData is the physical description of an asteroid from the JPL small body database.
// Zero values are unknown.
type PhysicalData struct {
	DiameterKm          float64
	Albedo              float64
	RotationPeriodHours float64
	GM                  float64 // km³/s²
	SpectralB           string  // SMASS
	SpectralT           string  // Tholen
	MOIDAU              float64 // Earth minimum orbit intersection distance
	ConditionCode       int     // 0 (best) to 9 (undetermined)
}

// SpectralType returns the SMASS class when known, otherwise the Tholen class.
func (p PhysicalData) SpectralType() string {
	if p.SpectralB != "" {
		return p.SpectralB
	}
	return p.SpectralT
}

// MOIDKm returns the Earth MOID in km.
func (p PhysicalData) MOIDKm() float64 {
	return p.MOIDAU * deflect.AU
}

// MOIDLunar returns the Earth MOID in lunar distances.
func (p PhysicalData) MOIDLunar() float64 {
	return p.MOIDAU * lunarDistancesPerAU
}

// DiameterFromMagnitude returns the diameter in km of a body of absolute magnitude H and
// geometric albedo, or zero if the albedo is unknown.
func DiameterFromMagnitude(H, albedo float64) float64 {
	if !(albedo > 0) {
		return 0
	}
	return 1329 / math.Sqrt(albedo) * math.Pow(10, -H/5)
}

// Enricher holds the rows of an SBDB CSV export keyed by SPK-ID.
type Enricher struct {
	rows map[string]map[string]string
}

// LoadEnricher reads an SBDB CSV export from disk.
func LoadEnricher(path string) (*Enricher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewEnricher(f)
}

// NewEnricher reads an SBDB CSV export with a header row. Rows without an spkid are ignored.
func NewEnricher(r io.Reader) (*Enricher, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty SBDB file")
		}
		return nil, fmt.Errorf("reading SBDB header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	key := -1
	for i, col := range header {
		if col == "spkid" {
			key = i
		}
	}
	if key < 0 {
		return nil, errors.New("SBDB header has no spkid column")
	}
	e := &Enricher{rows: make(map[string]map[string]string)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading SBDB row: %w", err)
		}
		if key >= len(record) || strings.TrimSpace(record[key]) == "" {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		e.rows[row["spkid"]] = row
	}
	return e, nil
}

// Len returns the number of rows.
func (e *Enricher) Len() int {
	return len(e.rows)
}

// Lookup returns the physical data of an SPK-ID.
func (e *Enricher) Lookup(spkid string) (PhysicalData, bool) {
	row, ok := e.rows[strings.TrimSpace(spkid)]
	if !ok {
		return PhysicalData{}, false
	}
	cond, err := strconv.Atoi(row["condition_code"])
	if err != nil {
		cond = 9
	}
	return PhysicalData{
		DiameterKm:          parseFloat(row["diameter"]),
		Albedo:              parseFloat(row["albedo"]),
		RotationPeriodHours: parseFloat(row["rot_per"]),
		GM:                  parseFloat(row["GM"]),
		SpectralB:           row["spec_B"],
		SpectralT:           row["spec_T"],
		MOIDAU:              parseFloat(row["moid"]),
		ConditionCode:       cond,
	}, true
}

// Enrich sets the physical data of the asteroid. It returns false and leaves the asteroid
// unchanged if its ID is not in the file.
func (e *Enricher) Enrich(a *Asteroid) bool {
	p, ok := e.Lookup(a.ID)
	if !ok {
		return false
	}
	a.Physical = &p
	return true
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}
