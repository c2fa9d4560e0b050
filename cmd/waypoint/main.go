package main

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/style"
	"github.com/vango-dev/waypoint/pkg/manifest"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	config    string
	manifest  string
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ve *manifest.ValidationError
		if stderrors.As(err, &ve) {
			for _, p := range ve.Problems {
				errors.PrintError(p)
			}
		} else {
			errors.PrintError(err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "waypoint",
		Short: "Resolve request paths against a route manifest",
		Long: `Waypoint resolves request paths against the route manifest a build step
emits, loading the layout, page and endpoint chunks each route needs.

  • First-match routing with params, optional and rest segments
  • Named matchers, builtin or declared in the manifest
  • Chunks loaded lazily, once, from disk or S3
  • HTTP and WebSocket resolve API with Prometheus metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "", "Config file (default: waypoint.{json,yaml,toml} in the working directory)")
	pf.StringVarP(&flags.manifest, "manifest", "m", "", "Route manifest path or store key")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		resolveCmd(flags),
		routesCmd(flags),
		checkCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// usageError reports bad arguments with the W140 code.
func usageError(cmd *cobra.Command, format string, args ...any) error {
	return errors.New("W140").
		WithMessage(format, args...).
		WithExample(cmd.UseLine())
}

// minArgs and noArgs replace cobra's validators so usage errors are coded.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usageError(cmd, "%s requires at least %d argument(s), got %d", cmd.Name(), n, len(args))
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(cmd, "%s takes no arguments, got %q", cmd.Name(), args)
	}
	return nil
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", style.Success.Render("✓"), fmt.Sprintf(format, args...))
}

func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", style.Warn.Render("⚠"), fmt.Sprintf(format, args...))
}

func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", style.Error.Render("✗"), fmt.Sprintf(format, args...))
}
