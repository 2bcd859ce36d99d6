package options

import (
	"fmt"
	"net"

	"github.com/spf13/pflag"
)

// Supported MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
	TransportHTTP  = "http"
)

// ServerOptions selects how the MCP server talks to its host.
type ServerOptions struct {
	// Transport is one of "stdio", "sse" or "http". Default: "stdio".
	Transport string `json:"transport" mapstructure:"transport"`

	// Address is the listen address of the sse and http transports.
	Address string `json:"address" mapstructure:"address"`

	// BaseURL is the externally visible URL advertised by the sse transport.
	// Derived from Address when empty.
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// AuthToken, when set, is required as a bearer token by the sse and
	// http transports.
	AuthToken string `json:"auth-token" mapstructure:"auth-token"`

	// AllowLocal lets loopback clients skip the bearer token check.
	AllowLocal bool `json:"allow-local" mapstructure:"allow-local"`

	// EnablePprof mounts /debug/pprof on the sse and http transports.
	EnablePprof bool `json:"enable-pprof" mapstructure:"enable-pprof"`
}

func NewServerOptions() *ServerOptions {
	return &ServerOptions{
		Transport: TransportStdio,
		Address:   "127.0.0.1:8087",
	}
}

func (o *ServerOptions) Validate() []error {
	var errs []error
	switch o.Transport {
	case TransportStdio:
	case TransportSSE, TransportHTTP:
		if _, _, err := net.SplitHostPort(o.Address); err != nil {
			errs = append(errs, fmt.Errorf("server.address %q is invalid for %s transport: %w", o.Address, o.Transport, err))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported server.transport %q (must be 'stdio', 'sse' or 'http')", o.Transport))
	}
	return errs
}

func (o *ServerOptions) Complete() {
	if o.Transport == "" {
		o.Transport = TransportStdio
	}
	if o.BaseURL == "" && o.Transport == TransportSSE {
		o.BaseURL = "http://" + o.Address
	}
}

func (o *ServerOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Transport, "server.transport", o.Transport, "MCP transport: 'stdio', 'sse' or 'http'.")
	fs.StringVar(&o.Address, "server.address", o.Address, "Listen address of the sse and http transports.")
	fs.StringVar(&o.BaseURL, "server.base-url", o.BaseURL, "Public base URL advertised by the sse transport.")
	fs.StringVar(&o.AuthToken, "server.auth-token", o.AuthToken, "Bearer token required by the sse and http transports.")
	fs.BoolVar(&o.AllowLocal, "server.allow-local", o.AllowLocal, "Let loopback clients skip the bearer token check.")
	fs.BoolVar(&o.EnablePprof, "server.enable-pprof", o.EnablePprof, "Expose /debug/pprof on the sse and http transports.")
}
