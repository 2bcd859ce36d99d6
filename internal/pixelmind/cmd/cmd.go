// Package cmd implements the pixelmind command line.
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"

	"github.com/kiosk404/pixelmind/internal/pixelmind/config"
	"github.com/kiosk404/pixelmind/internal/pixelmind/options"
	"github.com/kiosk404/pixelmind/pkg/logger"
)

const (
	flagConfig = "config"
	envPrefix  = "PIXELMIND"
)

// IOStreams are the standard streams of a command.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// runtime carries state shared by the subcommands of one invocation.
type runtime struct {
	IOStreams
	opts  *options.Options
	viper *viper.Viper
}

// NewDefaultPixelmindCommand creates the `pixelmind` command with default arguments.
func NewDefaultPixelmindCommand() *cobra.Command {
	return NewPixelmindCommand(os.Stdin, os.Stdout, os.Stderr)
}

func NewPixelmindCommand(in io.Reader, out, errOut io.Writer) *cobra.Command {
	rt := &runtime{
		IOStreams: IOStreams{In: in, Out: out, ErrOut: errOut},
		opts:      options.NewOptions(),
		viper:     viper.New(),
	}

	cmds := &cobra.Command{
		Use:   "pixelmind",
		Short: "pixelmind serves the PixelLab pixel art API as MCP tools",
		Long: heredoc.Doc(`
			pixelmind is an MCP server that lets an assistant generate, rotate,
			inpaint and animate pixel art through the PixelLab API.

			Configuration is read from flags, from PIXELMIND_* environment variables
			(for example PIXELMIND_SERVER_TRANSPORT) and from an optional YAML file
			given with --config. The API secret may also be set with PIXELLAB_SECRET.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(c *cobra.Command, _ []string) {
			_ = c.Help()
		},
		// Load configuration and start logging before any subcommand runs;
		// close the log file afterwards.
		PersistentPreRunE: func(c *cobra.Command, _ []string) error {
			return rt.load(c)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			logger.FlushLog()
			return nil
		},
	}
	cmds.SetIn(in)
	cmds.SetOut(out)
	cmds.SetErr(errOut)

	flags := cmds.PersistentFlags()
	flags.String(flagConfig, "", "Path to a YAML configuration file.")
	rt.opts.AddFlags(flags)

	cmds.AddGroup(
		&cobra.Group{ID: "basic", Title: "Basic Commands:"},
		&cobra.Group{ID: "other", Title: "Other Commands:"},
	)
	for _, c := range []*cobra.Command{newCmdServe(rt), newCmdBalance(rt), newCmdTools(rt)} {
		c.GroupID = "basic"
		cmds.AddCommand(c)
	}
	version := newCmdVersion(rt)
	version.GroupID = "other"
	cmds.AddCommand(version)

	return cmds
}

// load merges config file, environment and flags into rt.opts and
// initializes logging.
func (rt *runtime) load(c *cobra.Command) error {
	v := rt.viper
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.secret", "PIXELMIND_API_SECRET", "PIXELLAB_SECRET"); err != nil {
		return err
	}
	if err := v.BindPFlags(c.Flags()); err != nil {
		return err
	}

	if path := v.GetString(flagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if err := v.Unmarshal(rt.opts); err != nil {
		return fmt.Errorf("decode configuration: %w", err)
	}
	if err := rt.opts.Complete(); err != nil {
		return err
	}

	return logger.Init(rt.opts.LogOptions.Options)
}

// config validates the loaded options and returns the running configuration.
func (rt *runtime) config() (*config.Config, error) {
	if err := multierr.Combine(rt.opts.Validate()...); err != nil {
		return nil, err
	}
	return config.CreateConfigFromOptions(rt.opts)
}
