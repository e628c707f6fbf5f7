package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

type (
	// Env holds the values of environment variable based configuration
	Env struct {
		Host           string   `envconfig:"HOST" default:"127.0.0.1"`
		Port           int      `envconfig:"PORT" default:"8080"`
		MockRoot       string   `envconfig:"GNOCK_MOCK_ROOT" default:"."`
		ConfigBasePath string   `envconfig:"GNOCK_BASE_PATH" default:"/gnockconfig"`
		Ignore         []string `envconfig:"GNOCK_IGNORE" default:"**/.*"`
		Format         string   `envconfig:"GNOCK_FORMAT" default:"json"`
		LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	}
)

// New returns a new Env config
func New() *Env {
	cfg := &Env{}

	envconfig.MustProcess("", cfg)

	return cfg
}

// Level returns the configured log level, falling back to info when it can't be parsed
func (e *Env) Level() logrus.Level {
	level, err := logrus.ParseLevel(e.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}

	return level
}
