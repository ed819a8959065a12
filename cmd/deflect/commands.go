package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/deflect-sim/deflect"
	"github.com/deflect-sim/deflect/batch"
	"github.com/deflect-sim/deflect/dataio"
	"github.com/go-kit/log/level"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	input     string
	bodyID    string
	startFlag string
	endFlag   string
	strict    bool

	cosmo      bool
	maxKm      float64
	enrichPath string
	asJSON     bool
)

var propagateCmd = &cobra.Command{
	Use:   "propagate",
	Short: "Propagate one asteroid and write its trajectory as CSV",
	Example: `  deflect propagate --input neo.json --id "2020 VT4" --start 2025-01-01 --end 2026-01-01 --step 6h
  deflect propagate --input neo.json --start 2461000.5 --cosmographia`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bodies, err := loadBodies(input)
		if err != nil {
			return err
		}
		body, err := selectBody(bodies, bodyID, strict)
		if err != nil {
			return err
		}
		start, end, err := window(startFlag, endFlag)
		if err != nil {
			return err
		}
		points, err := deflect.Generate(body.Elements, start, end, conf.Step)
		if err != nil {
			return err
		}
		path, err := dataio.SaveTrajectoryCSV(conf.OutputDir, body.Name, points)
		if err != nil {
			return err
		}
		level.Info(logger).Log("body", body.Name, "points", len(points), "file", path)
		if cosmo {
			if err := dataio.WriteCosmographia(conf.OutputDir, body.Name, points); err != nil {
				return err
			}
			level.Info(logger).Log("body", body.Name, "cosmographia", filepath.Join(conf.OutputDir, "catalog-"+dataio.FileName(body.Name)+".json"))
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var approachesCmd = &cobra.Command{
	Use:   "approaches",
	Short: "List the close approaches to the Earth of every asteroid",
	Example: `  deflect approaches --input feed.json --start 2029-01-01 --end 2030-01-01 --max-km 1e6 --step 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bodies, err := loadBodies(input)
		if err != nil {
			return err
		}
		start, end, err := window(startFlag, endFlag)
		if err != nil {
			return err
		}
		threshold := conf.ApproachKm
		if maxKm > 0 {
			threshold = maxKm
		}
		r := batch.Runner{Workers: workers(cmd), Logger: logger}
		results, err := r.Run(cmd.Context(), jobsOf(bodies), start, end, conf.Step)
		if err != nil {
			return err
		}
		var rows []batch.Result
		for _, res := range results {
			if res.Err == nil && res.Closest.EarthDistance < threshold {
				rows = append(rows, res)
			}
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Closest.EarthDistance < rows[j].Closest.EarthDistance })

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ASTEROID\tDATE (UTC)\tJD\tDISTANCE (km)\tDISTANCE (LD)")
		for _, res := range rows {
			pt := res.Closest
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.0f\t%.2f\n", res.Name, pt.Time.Format(dateFormat), pt.JD, pt.EarthDistance, pt.EarthDistance/deflect.LunarDistance)
		}
		level.Info(logger).Log("bodies", len(results), "approaching", len(rows), "threshold_km", threshold)
		return tw.Flush()
	},
}

var impactCmd = &cobra.Command{
	Use:   "impact",
	Short: "Simulate a kinetic impact on an asteroid",
	Example: `  deflect impact --input neo.json --id 2000433 --enrich sbdb.csv --mass 570 --velocity 6.6 --beta 3.6
  deflect impact --input neo.json --id 2000433 --retrograde --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bodies, err := loadBodies(input)
		if err != nil {
			return err
		}
		body, err := selectBody(bodies, bodyID, strict)
		if err != nil {
			return err
		}
		if enrichPath != "" {
			enricher, err := dataio.LoadEnricher(enrichPath)
			if err != nil {
				return err
			}
			if !enricher.Enrich(&body.Asteroid) {
				level.Warn(logger).Log("body", body.Name, "msg", "no physical data in "+enrichPath)
			}
		}
		target, err := body.Target()
		if err != nil {
			return err
		}
		result, err := deflect.NewSimulator(logger).Simulate(target, conf.Impact)
		if err != nil {
			return err
		}
		if asJSON {
			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), result.Report())
		return err
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Propagate every asteroid of the input and write one CSV per asteroid",
	Example: `  deflect batch --input browse.json --start 2025-01-01 --end 2035-01-01 --workers 8 --metrics-textfile /var/lib/node_exporter/deflect.prom`,
	RunE: func(cmd *cobra.Command, args []string) error {
		bodies, err := loadBodies(input)
		if err != nil {
			return err
		}
		start, end, err := window(startFlag, endFlag)
		if err != nil {
			return err
		}
		reg := prometheus.NewRegistry()
		metrics, err := batch.NewMetrics(reg)
		if err != nil {
			return err
		}
		r := batch.Runner{
			Workers: workers(cmd),
			Logger:  logger,
			Metrics: metrics,
			Each: func(res batch.Result) error {
				_, err := dataio.SaveTrajectoryCSV(conf.OutputDir, res.Key(), res.Points)
				return err
			},
		}
		began := time.Now()
		results, runErr := r.Run(cmd.Context(), jobsOf(bodies), start, end, conf.Step)
		var failed int
		for _, res := range results {
			if res.Err != nil {
				failed++
			}
		}
		level.Info(logger).Log("bodies", len(results), "failed", failed, "elapsed", time.Since(began), "output", conf.OutputDir)
		if conf.MetricsTextfile != "" {
			if err := metrics.WriteTextfile(conf.MetricsTextfile); err != nil {
				level.Error(logger).Log("metrics", conf.MetricsTextfile, "err", err)
			}
		}
		if runErr != nil {
			return runErr
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d asteroids failed", failed, len(results))
		}
		return nil
	},
}

func jobsOf(bodies []dataio.Body) []batch.Job {
	jobs := make([]batch.Job, len(bodies))
	for k, b := range bodies {
		jobs[k] = batch.Job{ID: b.ID, Name: b.Name, Elements: b.Elements}
	}
	return jobs
}

// workers returns the --workers flag when set, the configured worker count otherwise.
func workers(cmd *cobra.Command) int {
	if cmd.Flags().Changed("workers") {
		if w, err := cmd.Flags().GetInt("workers"); err == nil && w >= 0 {
			return w
		}
	}
	return conf.Workers
}

func init() {
	for _, cmd := range []*cobra.Command{propagateCmd, approachesCmd, impactCmd, batchCmd} {
		cmd.Flags().StringVarP(&input, "input", "i", "", "NeoWs JSON document")
	}
	for _, cmd := range []*cobra.Command{propagateCmd, impactCmd} {
		cmd.Flags().StringVar(&bodyID, "id", "", "asteroid ID or name")
		cmd.Flags().BoolVar(&strict, "strict", false, "refuse near parabolic orbits")
	}
	for _, cmd := range []*cobra.Command{propagateCmd, approachesCmd, batchCmd} {
		cmd.Flags().StringVar(&startFlag, "start", time.Now().UTC().Format("2006-01-02"), "start date or Julian Date")
		cmd.Flags().StringVar(&endFlag, "end", "", "end date or Julian Date (default one year after the start)")
	}
	propagateCmd.Flags().BoolVar(&cosmo, "cosmographia", false, "also export a Cosmographia catalog")
	approachesCmd.Flags().Float64Var(&maxKm, "max-km", 0, "maximum Earth distance in km (default from the configuration)")

	impactCmd.Flags().StringVar(&enrichPath, "enrich", "", "SBDB CSV export with the physical data")
	impactCmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	impactCmd.Flags().Float64("mass", 0, "impactor mass in kg")
	impactCmd.Flags().Float64("velocity", 0, "impact velocity in km/s")
	impactCmd.Flags().Float64("beta", 0, "momentum enhancement factor")
	impactCmd.Flags().Bool("retrograde", false, "apply the velocity change against the orbital motion")
	mustBind(v.BindPFlag("impact.mass_kg", impactCmd.Flags().Lookup("mass")))
	mustBind(v.BindPFlag("impact.velocity_kms", impactCmd.Flags().Lookup("velocity")))
	mustBind(v.BindPFlag("impact.beta", impactCmd.Flags().Lookup("beta")))
	mustBind(v.BindPFlag("impact.retrograde", impactCmd.Flags().Lookup("retrograde")))

	for _, cmd := range []*cobra.Command{approachesCmd, batchCmd} {
		cmd.Flags().Int("workers", 0, "concurrent propagations (default from the configuration)")
	}
	batchCmd.Flags().String("metrics-textfile", "", "write the Prometheus metrics to this file")
	mustBind(v.BindPFlag("metrics.textfile", batchCmd.Flags().Lookup("metrics-textfile")))
}
