package options

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kiosk404/pixelmind/internal/pixelmind/service/pixellab"
)

// APIOptions configures access to the PixelLab API.
type APIOptions struct {
	BaseURL string        `json:"base-url" mapstructure:"base-url"`
	Secret  string        `json:"secret"   mapstructure:"secret"`
	Timeout time.Duration `json:"timeout"  mapstructure:"timeout"`
}

func NewAPIOptions() *APIOptions {
	return &APIOptions{
		BaseURL: pixellab.DefaultBaseURL,
		Timeout: pixellab.DefaultTimeout,
	}
}

func (o *APIOptions) Validate() []error {
	var errs []error
	if strings.TrimSpace(o.Secret) == "" {
		errs = append(errs, errors.New("api.secret is required (set --api.secret or PIXELLAB_SECRET)"))
	}
	if u, err := url.Parse(o.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base-url %q is not an absolute URL", o.BaseURL))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %s", o.Timeout))
	}
	return errs
}

func (o *APIOptions) Complete() {
	o.Secret = strings.TrimSpace(o.Secret)
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
}

func (o *APIOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BaseURL, "api.base-url", o.BaseURL, "Base URL of the PixelLab API.")
	fs.StringVar(&o.Secret, "api.secret", o.Secret, "PixelLab API secret. Prefer the PIXELLAB_SECRET environment variable.")
	fs.DurationVar(&o.Timeout, "api.timeout", o.Timeout, "Timeout of a single PixelLab API request.")
}

// ClientConfig converts the options into a client configuration.
func (o *APIOptions) ClientConfig(userAgent string) pixellab.Config {
	return pixellab.Config{
		BaseURL:   o.BaseURL,
		Secret:    o.Secret,
		Timeout:   o.Timeout,
		UserAgent: userAgent,
	}
}
