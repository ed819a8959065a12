package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deflect-sim/deflect"
	json "github.com/goccy/go-json"
)

const neo = `{"near_earth_objects": [{
  "id": "3542519",
  "name": "(2010 PK9)",
  "estimated_diameter": {"kilometers": {"estimated_diameter_min": 0.1, "estimated_diameter_max": 0.3}},
  "orbital_data": {
    "epoch_osculation": "2461000.5",
    "eccentricity": "0.1",
    "semi_major_axis": "1.2",
    "inclination": "3.5",
    "ascending_node_longitude": "120",
    "perihelion_argument": "45",
    "mean_anomaly": "10",
    "mean_motion": "0.7496"
  }
}]}`

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv(deflect.ConfigEnv, "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("deflect %s: %s", strings.Join(args, " "), err)
	}
	return out.String()
}

func writeNeo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "neo.json")
	if err := os.WriteFile(path, []byte(neo), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func TestImpactCommand(t *testing.T) {
	_, in := writeNeo(t)
	out := run(t, "impact", "--input", in, "--json", "--mass", "610", "--beta", "3.6")
	var res struct {
		Target   string  `json:"target"`
		DeltaV   float64 `json:"deltaV_ms"`
		Impactor struct {
			Mass float64 `json:"impactorMass_kg"`
			Beta float64 `json:"beta"`
		} `json:"impactor"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("%s\n%s", err, out)
	}
	if res.Target != "(2010 PK9)" || res.Impactor.Mass != 610 || res.Impactor.Beta != 3.6 || !(res.DeltaV > 0) {
		t.Fatalf("%+v", res)
	}

	asJSON = false
	out = run(t, "impact", "--input", in, "--id", "3542519")
	if !strings.HasPrefix(out, "KINETIC IMPACT SIMULATION RESULTS") {
		t.Fatalf("unexpected report:\n%s", out)
	}
}

func TestPropagateCommand(t *testing.T) {
	dir, in := writeNeo(t)
	out := run(t, "propagate", "--input", in, "--output", dir, "--start", "2025-01-01", "--end", "2025-01-11", "--step", "24h", "--cosmographia")
	path := strings.TrimSpace(out)
	if path != filepath.Join(dir, "traj-2010_PK9.csv") {
		t.Fatalf("wrote %q", path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rows int
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if !strings.HasPrefix(line, "#") {
			rows++
		}
	}
	if rows != 12 {
		t.Fatalf("%d rows, expected a header and 11 points", rows)
	}
	if _, err := os.Stat(filepath.Join(dir, "catalog-2010_PK9.json")); err != nil {
		t.Fatal(err)
	}
}

func TestBatchCommand(t *testing.T) {
	dir, in := writeNeo(t)
	prom := filepath.Join(dir, "deflect.prom")
	run(t, "batch", "--input", in, "--output", dir, "--start", "2461000.5", "--end", "2461010.5", "--step", "24h", "--workers", "2", "--metrics-textfile", prom)
	if _, err := os.Stat(filepath.Join(dir, "traj-2010_PK9_3542519.csv")); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(prom)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "deflect_batch_points_total 11") {
		t.Fatalf("metrics:\n%s", raw)
	}
}

func TestBatchCommandSharedNames(t *testing.T) {
	dir := t.TempDir()
	twin := strings.Replace(neo, `"id": "3542519"`, `"id": "54016476"`, 1)
	doc := strings.Replace(neo, "}]}", "},"+strings.TrimSuffix(strings.TrimPrefix(twin, `{"near_earth_objects": [`), "]}")+"]}", 1)
	in := filepath.Join(dir, "neo.json")
	if err := os.WriteFile(in, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	run(t, "batch", "--input", in, "--output", dir, "--start", "2461000.5", "--end", "2461002.5", "--step", "24h", "--workers", "2")
	for _, name := range []string{"traj-2010_PK9_3542519.csv", "traj-2010_PK9_54016476.csv"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}
}

func TestParseInstant(t *testing.T) {
	exp := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, s := range []string{"2451545.0", "2000-01-01 12:00:00", "2000-01-01T12:00:00Z", "2000-01-01T12:00", "2000-01-01.5"} {
		got, err := parseInstant(s)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(exp) {
			t.Fatalf("%s: %s", s, got)
		}
	}
	apophis, err := parseInstant("2029-04-13.9")
	if err != nil {
		t.Fatal(err)
	}
	if exp := time.Date(2029, 4, 13, 21, 36, 0, 0, time.UTC); !apophis.Equal(exp) {
		t.Fatalf("decimal day: %s, expected %s", apophis, exp)
	}
	for _, s := range []string{"yesterday", "2029-13-01.5", "2029-04-40.5", "2029-04-x.5"} {
		if _, err := parseInstant(s); err == nil {
			t.Fatalf("invalid instant %q accepted", s)
		}
	}
	from, to, err := window("2025-03-01", "")
	if err != nil || !to.Equal(from.AddDate(1, 0, 0)) {
		t.Fatalf("%s %s %v", from, to, err)
	}
}
