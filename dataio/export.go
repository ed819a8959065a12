package dataio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/deflect-sim/deflect"
)

// TrajectoryColumns is the header row of the trajectory CSV files.
const TrajectoryColumns = "time,jd,x,y,z,r,nu,geo_x,geo_y,geo_z,earth_distance"

// WriteTrajectoryCSV writes the points after a commented header. Distances are in km and ν in degrees.
func WriteTrajectoryCSV(w io.Writer, name string, points []deflect.TrajectoryPoint) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Creation date (UTC): %s\n", time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(bw, "# Trajectory of %s in the heliocentric ecliptic frame.\n", name)
	fmt.Fprintf(bw, "#   Positions in km, true anomaly in degrees, geocentric columns relative to the Earth.\n")
	if len(points) > 0 {
		fmt.Fprintf(bw, "#   Simulation time start (UTC): %s\n", points[0].Time.Format(time.RFC3339))
		fmt.Fprintf(bw, "#   Simulation time end (UTC): %s\n", points[len(points)-1].Time.Format(time.RFC3339))
	}
	fmt.Fprintln(bw, TrajectoryColumns)
	for _, pt := range points {
		h := pt.Position.Helio
		geo := pt.Geocentric
		if len(geo) != 3 {
			geo = []float64{0, 0, 0}
		}
		fmt.Fprintf(bw, "%s,%.6f,%.3f,%.3f,%.3f,%.3f,%.6f,%.3f,%.3f,%.3f,%.3f\n",
			pt.Time.UTC().Format("2006-01-02 15:04:05"), pt.JD, h.X, h.Y, h.Z, h.R,
			deflect.Rad2deg(pt.Position.TrueAnomaly), geo[0], geo[1], geo[2], pt.EarthDistance)
	}
	return bw.Flush()
}

// SaveTrajectoryCSV writes the points to <dir>/traj-<name>.csv and returns the file path.
func SaveTrajectoryCSV(dir, name string, points []deflect.TrajectoryPoint) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("traj-%s.csv", FileName(name)))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteTrajectoryCSV(f, name, points); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// FileName returns a file name friendly version of a body name.
func FileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "body"
	}
	return string(out)
}
