package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "LIBRARY"

type Log struct {
	Level zapcore.Level `envconfig:"LEVEL" default:"info"`
}

type Export struct {
	DBPath string `envconfig:"DB" default:"library.db"`
}

type Config struct {
	Log      Log
	Export   Export
	SeedFile string `envconfig:"SEED_FILE" default:"books.csv"`
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) { c.Log.Level = level }
}

func WithExportDB(path string) Option {
	return func(c *Config) { c.Export.DBPath = path }
}

// NewConfig reads config from LIBRARY_* environment variables. Options are
// applied afterwards and win over the environment.
func NewConfig(ops ...Option) (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env")
	}
	for _, op := range ops {
		op(&cfg)
	}
	return cfg, nil
}
