package config

import (
	"github.com/kiosk404/pixelmind/internal/pixelmind/options"
)

// Config is the running configuration structure of the pixelmind server.
type Config struct {
	*options.Options
}

// CreateConfigFromOptions creates a running configuration instance based
// on the given options.
func CreateConfigFromOptions(opts *options.Options) (*Config, error) {
	return &Config{opts}, nil
}
