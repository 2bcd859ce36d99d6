package options

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/kiosk404/pixelmind/pkg/logger"
)

type LogOptions struct {
	logger.Options `mapstructure:",squash"`
}

func NewLogOptions() *LogOptions {
	return &LogOptions{Options: logger.Options{
		Level:      "info",
		MaxSizeMB:  50,
		MaxBackups: 3,
		MaxAgeDays: 7,
		Compress:   true,
	}}
}

func (o *LogOptions) Validate() []error {
	var errs []error
	if _, err := logrus.ParseLevel(o.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if o.MaxSizeMB < 0 || o.MaxBackups < 0 || o.MaxAgeDays < 0 {
		errs = append(errs, fmt.Errorf("log rotation limits must not be negative"))
	}
	return errs
}

func (o *LogOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Minimum log level: debug, info, warn or error.")
	fs.StringVar(&o.File, "log.file", o.File, "Also write logs to this file, rotated by size.")
	fs.IntVar(&o.MaxSizeMB, "log.max-size", o.MaxSizeMB, "Size in megabytes at which the log file is rotated.")
	fs.IntVar(&o.MaxBackups, "log.max-backups", o.MaxBackups, "Number of rotated log files to keep.")
	fs.IntVar(&o.MaxAgeDays, "log.max-age", o.MaxAgeDays, "Days to keep rotated log files.")
	fs.BoolVar(&o.Compress, "log.compress", o.Compress, "Gzip rotated log files.")
	fs.BoolVar(&o.Quiet, "log.quiet", o.Quiet, "Do not log to stderr.")
}
