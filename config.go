package deflect

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigEnv is the environment variable pointing to the directory holding deflect.toml.
const ConfigEnv = "DEFLECT_CONFIG"

// Config is the runtime configuration of the command line tools.
// The numerical constants of the propagator and of the impact model are not configurable.
type Config struct {
	OutputDir       string
	LogLevel        string
	Step            time.Duration
	ApproachKm      float64
	Impact          ImpactParameters
	Workers         int
	MetricsTextfile string
}

// NewViper returns a viper instance with the defaults of every key.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("general.output_path", ".")
	v.SetDefault("log.level", "info")
	v.SetDefault("trajectory.step", "24h")
	v.SetDefault("trajectory.approach_km", 20*LunarDistance)
	v.SetDefault("impact.mass_kg", 570.)
	v.SetDefault("impact.velocity_kms", 6.6)
	v.SetDefault("impact.beta", DefaultBeta)
	v.SetDefault("impact.retrograde", false)
	v.SetDefault("batch.workers", 0)
	v.SetDefault("metrics.textfile", "")
	v.SetEnvPrefix("deflect")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadConfig reads deflect.toml from the provided directory, or from $DEFLECT_CONFIG if dir is empty.
// A missing directory setting is not an error: the defaults are kept.
func ReadConfig(v *viper.Viper, dir string) error {
	if dir == "" {
		dir = os.Getenv(ConfigEnv)
	}
	if dir == "" {
		return nil
	}
	v.SetConfigName("deflect")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("%s/deflect.toml not found", dir)
		}
		return fmt.Errorf("reading %s/deflect.toml: %w", dir, err)
	}
	return nil
}

// ConfigFrom extracts and validates the configuration.
func ConfigFrom(v *viper.Viper) (Config, error) {
	conf := Config{
		OutputDir:  v.GetString("general.output_path"),
		LogLevel:   strings.ToLower(v.GetString("log.level")),
		Step:       v.GetDuration("trajectory.step"),
		ApproachKm: v.GetFloat64("trajectory.approach_km"),
		Impact: ImpactParameters{
			ImpactorMass:   v.GetFloat64("impact.mass_kg"),
			ImpactVelocity: v.GetFloat64("impact.velocity_kms"),
			Beta:           v.GetFloat64("impact.beta"),
			Retrograde:     v.GetBool("impact.retrograde"),
		},
		Workers:         v.GetInt("batch.workers"),
		MetricsTextfile: v.GetString("metrics.textfile"),
	}
	return conf, conf.Validate()
}

// Validate returns the first invalid setting.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Step <= 0 {
		return fmt.Errorf("%w: trajectory step %s", ErrInvalidTimeRange, c.Step)
	}
	if c.ApproachKm <= 0 {
		return fmt.Errorf("approach distance %f km is not positive", c.ApproachKm)
	}
	if c.Workers < 0 {
		return fmt.Errorf("negative worker count %d", c.Workers)
	}
	return c.Impact.Validate()
}
