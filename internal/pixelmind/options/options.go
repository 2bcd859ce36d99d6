package options

import (
	"github.com/spf13/pflag"

	"github.com/kiosk404/pixelmind/pkg/utils/json"
)

type Options struct {
	APIOptions    *APIOptions    `json:"api"    mapstructure:"api"`
	ServerOptions *ServerOptions `json:"server" mapstructure:"server"`
	RetryOptions  *RetryOptions  `json:"retry"  mapstructure:"retry"`
	LogOptions    *LogOptions    `json:"log"    mapstructure:"log"`
}

func NewOptions() *Options {
	return &Options{
		APIOptions:    NewAPIOptions(),
		ServerOptions: NewServerOptions(),
		RetryOptions:  NewRetryOptions(),
		LogOptions:    NewLogOptions(),
	}
}

// AddFlags registers every option group on fs.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	o.APIOptions.AddFlags(fs)
	o.ServerOptions.AddFlags(fs)
	o.RetryOptions.AddFlags(fs)
	o.LogOptions.AddFlags(fs)
}

// Validate checks all option groups and returns every problem found.
func (o *Options) Validate() []error {
	var errs []error
	errs = append(errs, o.APIOptions.Validate()...)
	errs = append(errs, o.ServerOptions.Validate()...)
	errs = append(errs, o.RetryOptions.Validate()...)
	errs = append(errs, o.LogOptions.Validate()...)
	return errs
}

// Complete set default Options.
func (o *Options) Complete() error {
	o.APIOptions.Complete()
	o.ServerOptions.Complete()
	return nil
}

// String renders the options as JSON with credentials masked.
func (o *Options) String() string {
	masked := *o
	if o.APIOptions != nil {
		api := *o.APIOptions
		if api.Secret != "" {
			api.Secret = "******"
		}
		masked.APIOptions = &api
	}
	if o.ServerOptions != nil && o.ServerOptions.AuthToken != "" {
		srv := *o.ServerOptions
		srv.AuthToken = "******"
		masked.ServerOptions = &srv
	}
	data, _ := json.Marshal(masked)

	return string(data)
}
