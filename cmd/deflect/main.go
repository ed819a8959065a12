package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/deflect-sim/deflect"
	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

var (
	v       = deflect.NewViper()
	conf    deflect.Config
	logger  kitlog.Logger = kitlog.NewNopLogger()
	confDir string
)

var rootCmd = &cobra.Command{
	Use:   "deflect",
	Short: "Asteroid orbit propagation and kinetic impact simulation",
	Long: `deflect propagates near Earth asteroids on their osculating Keplerian orbits,
finds their close approaches to the Earth and estimates how a kinetic impactor
changes their orbit.

Asteroids are read from NASA NeoWs documents (browse, feed or processed lists).
The configuration is read from deflect.toml in --config or $DEFLECT_CONFIG,
and every key can be overridden by a DEFLECT_ prefixed environment variable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := deflect.ReadConfig(v, confDir); err != nil {
			return err
		}
		var err error
		if conf, err = deflect.ConfigFrom(v); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger = newLogger(conf.LogLevel)
		if err := os.MkdirAll(conf.OutputDir, 0o755); err != nil {
			return err
		}
		level.Debug(logger).Log("config", v.ConfigFileUsed(), "output", conf.OutputDir, "step", conf.Step)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&confDir, "config", "", "directory holding deflect.toml (default $"+deflect.ConfigEnv+")")
	pf.String("log-level", "info", "log level: debug, info, warn or error")
	pf.StringP("output", "o", ".", "output directory")
	pf.Duration("step", 0, "propagation step (default from the configuration)")
	mustBind(v.BindPFlag("log.level", pf.Lookup("log-level")))
	mustBind(v.BindPFlag("general.output_path", pf.Lookup("output")))
	mustBind(v.BindPFlag("trajectory.step", pf.Lookup("step")))

	rootCmd.AddCommand(propagateCmd, approachesCmd, impactCmd, batchCmd)
}

func newLogger(lvl string) kitlog.Logger {
	l := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))
	l = level.NewFilter(l, level.Allow(level.ParseDefault(lvl, level.InfoValue())))
	return kitlog.With(l, "ts", kitlog.DefaultTimestampUTC, "caller", kitlog.DefaultCaller)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// mustBind panics if a flag could not be bound to its configuration key.
// Unset flags keep the configured value.
func mustBind(err error) {
	if err != nil {
		panic(err)
	}
}
