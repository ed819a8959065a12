package dataio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/deflect-sim/deflect"
	json "github.com/goccy/go-json"
)

// CgCatalog definition.
type CgCatalog struct {
	Version string     `json:"version"`
	Name    string     `json:"name"`
	Items   []*CgItems `json:"items"`
	Require []string   `json:"require,omitempty"`
}

func (c *CgCatalog) String() string {
	return c.Name + "(" + c.Version + ")"
}

// CgItems definition.
type CgItems struct {
	Class           string            `json:"class"`
	Name            string            `json:"name"`
	StartTime       string            `json:"startTime"`
	EndTime         string            `json:"endTime"`
	Center          string            `json:"center"`
	TrajectoryFrame string            `json:"trajectoryFrame"`
	Trajectory      *CgTrajectory     `json:"trajectory,omitempty"`
	Label           *CgLabel          `json:"label,omitempty"`
	TrajectoryPlot  *CgTrajectoryPlot `json:"trajectoryPlot,omitempty"`
}

// CgTrajectory definition.
type CgTrajectory struct {
	Type   string `json:"type,omitempty"`
	Source string `json:"source,omitempty"`
}

// Validate validates a CgTrajectory.
func (t *CgTrajectory) Validate() error {
	if t.Type != "InterpolatedStates" || !strings.HasSuffix(t.Source, "xyzv") {
		return errors.New("only InterpolatedStates are supported in Cosmographia trajectory types")
	}
	return nil
}

// CgLabel definition.
type CgLabel struct {
	Color    []float64 `json:"color,omitempty"`
	FadeSize int       `json:"fadeSize,omitempty"`
	ShowText bool      `json:"showText,omitempty"`
}

// CgTrajectoryPlot definition.
type CgTrajectoryPlot struct {
	Color       []float64 `json:"color,omitempty"`
	LineWidth   int       `json:"lineWidth,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Lead        string    `json:"lead,omitempty"`
	Fade        int       `json:"fade,omitempty"`
	SampleCount int       `json:"sampleCount,omitempty"`
}

// CgInterpolatedState is one record of an xyzv file.
type CgInterpolatedState struct {
	JD       float64
	Position []float64
	Velocity []float64
}

// FromText initializes from the seven fields of a record.
func (i *CgInterpolatedState) FromText(record []string) error {
	if len(record) != 7 {
		return fmt.Errorf("expected 7 fields, got %d", len(record))
	}
	vals := make([]float64, 7)
	for k, field := range record {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return err
		}
		vals[k] = v
	}
	i.JD = vals[0]
	i.Position = vals[1:4]
	i.Velocity = vals[4:7]
	return nil
}

// ToText converts to text for written output.
func (i *CgInterpolatedState) ToText() string {
	return fmt.Sprintf("%f %f %f %f %f %f %f", i.JD, i.Position[0], i.Position[1], i.Position[2], i.Velocity[0], i.Velocity[1], i.Velocity[2])
}

// ParseInterpolatedStates reads the records of an xyzv file.
func ParseInterpolatedStates(r io.Reader) ([]*CgInterpolatedState, error) {
	var states []*CgInterpolatedState
	cr := csv.NewReader(r)
	cr.Comma = ' '
	cr.Comment = '#'
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		state := CgInterpolatedState{}
		if err := state.FromText(record); err != nil {
			return nil, err
		}
		states = append(states, &state)
	}
	return states, nil
}

// InterpolatedStates returns the states of the points. Velocities (km/s) are central differences,
// one sided at both ends, and zero for a single point.
func InterpolatedStates(points []deflect.TrajectoryPoint) []*CgInterpolatedState {
	states := make([]*CgInterpolatedState, len(points))
	for k, pt := range points {
		prev, next := k-1, k+1
		if prev < 0 {
			prev = 0
		}
		if next >= len(points) {
			next = len(points) - 1
		}
		vel := []float64{0, 0, 0}
		if dt := (points[next].JD - points[prev].JD) * 86400; dt > 0 {
			Δ := points[next].Position.Helio.Sub(points[prev].Position.Helio)
			for j := range vel {
				vel[j] = Δ[j] / dt
			}
		}
		states[k] = &CgInterpolatedState{JD: pt.JD, Position: pt.Position.Helio.Vector(), Velocity: vel}
	}
	return states
}

// WriteCosmographia writes <dir>/<name>.xyzv and the catalog <dir>/catalog-<name>.json
// referencing it. The trajectory is heliocentric in the EclipticJ2000 frame.
func WriteCosmographia(dir, name string, points []deflect.TrajectoryPoint) error {
	if len(points) == 0 {
		return errors.New("no trajectory points to export")
	}
	fname := FileName(name)
	source := fname + ".xyzv"
	f, err := os.Create(filepath.Join(dir, source))
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	first, last := points[0].Time.UTC(), points[len(points)-1].Time.UTC()
	fmt.Fprintf(bw, `# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Time is a UTC Julian date
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s`, time.Now().UTC(), first)
	for _, st := range InterpolatedStates(points) {
		fmt.Fprint(bw, "\n"+st.ToText())
	}
	fmt.Fprintf(bw, "\n# Simulation time end (UTC): %s\n", last)
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	color := []float64{0.6, 1, 1}
	traj := CgTrajectory{Type: "InterpolatedStates", Source: source}
	if err := traj.Validate(); err != nil {
		return err
	}
	item := CgItems{
		Class:           "asteroid",
		Name:            name,
		StartTime:       first.Format(time.RFC3339),
		EndTime:         last.Format(time.RFC3339),
		Center:          "Sun",
		TrajectoryFrame: "EclipticJ2000",
		Trajectory:      &traj,
		Label:           &CgLabel{Color: color, FadeSize: 1000000, ShowText: true},
		TrajectoryPlot: &CgTrajectoryPlot{Color: color, LineWidth: 1, Lead: "0 d", SampleCount: 10,
			Duration: fmt.Sprintf("%d d", int(last.Sub(first).Hours()/24+1))},
	}
	c := CgCatalog{Version: "1.0", Name: name, Items: []*CgItems{&item}}
	marsh, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("catalog-%s.json", fname)), marsh, 0o644)
}
