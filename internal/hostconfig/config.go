// Package hostconfig is the host's three-tier settings layer: built-in
// defaults, an optional YAML file, and CLI flags, in increasing
// precedence. The detector core never imports this package; cmd/tunacore
// translates a loaded Config into a dsp.Config before constructing an
// Orchestrator.
package hostconfig

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the host's merged settings record.
type Config struct {
	SampleRate      float64 `yaml:"sample_rate" validate:"required,gt=0"`
	Tuning          float64 `yaml:"tuning" validate:"required,gte=220,lte=880"`
	Variant         string  `yaml:"variant" validate:"required,oneof=tuner fft-only midi"`
	Channels        int     `yaml:"channels" validate:"required,gte=1,lte=2"`
	DeviceIndex     int     `yaml:"device_index"`
	FramesPerBuffer int     `yaml:"frames_per_buffer" validate:"required,gt=0"`
	EdgesPerPeriod  int     `yaml:"edges_per_period" validate:"oneof=1 2"`
	LogLevel        string  `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// SpectrumAddr is read from the environment (.env via godotenv), not
	// the YAML file, keeping deployment-local values out of version
	// control.
	SpectrumAddr string `yaml:"-"`
}

// Default returns the built-in baseline config, the lowest-precedence
// tier.
func Default() Config {
	return Config{
		SampleRate:      44100,
		Tuning:          440,
		Variant:         "tuner",
		Channels:        1,
		DeviceIndex:     -1,
		FramesPerBuffer: 1024,
		EdgesPerPeriod:  2,
		LogLevel:        "info",
		SpectrumAddr:    ":8080",
	}
}

// Load builds a Config from Default, then (if path is non-empty and
// exists) a YAML file, then a .env-supplied spectrum listen address, and
// validates the result. It never mutates its inputs with flag values;
// cmd/tunacore applies flag overrides to the returned Config afterward.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("hostconfig: parse %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// no config file is not an error; defaults stand.
		default:
			return Config{}, fmt.Errorf("hostconfig: read %s: %w", path, err)
		}
	}

	if env, err := godotenv.Read(); err == nil {
		if addr, ok := env["WS_LISTEN_ADDR"]; ok && addr != "" {
			cfg.SpectrumAddr = addr
		}
	}

	return cfg, Validate(cfg)
}

// Validate checks struct-tag constraints on cfg, rejecting a bad config
// before any Orchestrator is constructed from it.
func Validate(cfg Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("hostconfig: invalid config: %w", err)
	}
	return nil
}
