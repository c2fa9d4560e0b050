package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/style"
	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/router"
)

func routesCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the manifest routes in precedence order",
		Long: `List every route in the order resolution tries them, with its params
and the chunks behind it.

Examples:
  waypoint routes
  waypoint routes --json -m build/manifest.json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, nil)
			if err != nil {
				return err
			}
			b, err := a.build()
			if err != nil {
				return err
			}

			routes := b.Routes()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(routes)
			}
			printRoutes(cmd.OutOrStdout(), routes)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print routes as JSON")

	return cmd
}

func printRoutes(w io.Writer, routes []manifest.RouteInfo) {
	fmt.Fprintf(w, "%s\n\n", style.Header.Render(fmt.Sprintf("%d route(s)", len(routes))))
	for i, r := range routes {
		fmt.Fprintf(w, "%s %s %s\n",
			style.Muted.Render(fmt.Sprintf("%3d", i+1)),
			style.Route.Render(r.ID),
			style.Muted.Render(r.Kind))
		if len(r.Params) > 0 {
			info(w, "params    %s", formatParams(r.Params))
		}
		if r.Endpoint != "" {
			info(w, "endpoint  %s", r.Endpoint)
			continue
		}
		if len(r.Layouts) > 0 {
			info(w, "layouts   %s", joinNodes(r.Layouts))
		}
		if len(r.Errors) > 0 {
			info(w, "errors    %s", joinNodes(r.Errors))
		}
		info(w, "leaf      %s", r.Leaf)
	}
}

func formatParams(params []router.ParamSpec) string {
	parts := make([]string, len(params))
	for i, p := range params {
		s := p.Name
		switch {
		case p.Rest:
			s = "..." + s
		case p.Optional:
			s += "?"
		}
		if p.Matcher != "" {
			s += "=" + p.Matcher
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func joinNodes(names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		if n == "" {
			n = style.Muted.Render("-")
		}
		out[i] = n
	}
	return strings.Join(out, ", ")
}
