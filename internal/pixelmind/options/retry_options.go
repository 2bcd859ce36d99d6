package options

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/kiosk404/pixelmind/internal/pkg/retry"
)

// RetryOptions controls how rate-limited API calls are retried.
type RetryOptions struct {
	MaxRetries uint          `json:"max-retries" mapstructure:"max-retries"`
	BaseDelay  time.Duration `json:"base-delay"  mapstructure:"base-delay"`
	Multiplier float64       `json:"multiplier"  mapstructure:"multiplier"`
	MaxDelay   time.Duration `json:"max-delay"   mapstructure:"max-delay"`
}

func NewRetryOptions() *RetryOptions {
	p := retry.DefaultPolicy()
	return &RetryOptions{
		MaxRetries: p.MaxRetries,
		BaseDelay:  p.BaseDelay,
		Multiplier: p.Multiplier,
		MaxDelay:   p.MaxDelay,
	}
}

func (o *RetryOptions) Validate() []error {
	if err := o.Policy().Validate(); err != nil {
		return []error{err}
	}
	return nil
}

func (o *RetryOptions) AddFlags(fs *pflag.FlagSet) {
	fs.UintVar(&o.MaxRetries, "retry.max-retries", o.MaxRetries, "Retries of a rate-limited call; 0 disables retrying.")
	fs.DurationVar(&o.BaseDelay, "retry.base-delay", o.BaseDelay, "Wait before the first retry.")
	fs.Float64Var(&o.Multiplier, "retry.multiplier", o.Multiplier, "Growth factor of the wait between retries, in [1.5, 2.0].")
	fs.DurationVar(&o.MaxDelay, "retry.max-delay", o.MaxDelay, "Upper bound of a single wait; 0 means unbounded.")
}

// Policy converts the options into a retry policy.
func (o *RetryOptions) Policy() retry.Policy {
	return retry.Policy{
		MaxRetries: o.MaxRetries,
		BaseDelay:  o.BaseDelay,
		Multiplier: o.Multiplier,
		MaxDelay:   o.MaxDelay,
	}
}
