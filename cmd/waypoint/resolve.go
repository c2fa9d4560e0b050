package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/style"
	"github.com/vango-dev/waypoint/pkg/manifest"
	"github.com/vango-dev/waypoint/pkg/modules"
	"github.com/vango-dev/waypoint/pkg/router"
)

// resolveResult is one line of `waypoint resolve --json` output.
type resolveResult struct {
	Path       string             `json:"path"`
	Found      bool               `json:"found"`
	Resolution *router.Resolution `json:"resolution,omitempty"`
	ErrorPage  *modules.Module    `json:"errorPage,omitempty"`
	Error      string             `json:"error,omitempty"`
}

func resolveCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON     bool
		errorDepth int
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve request paths against the manifest",
		Long: `Resolve each path and print the selected route, its params and the
chunks it loads.

The command fails when any path does not resolve or its chunks fail to load.

Examples:
  waypoint resolve /docs/getting-started
  waypoint resolve / /blog/hello --json
  waypoint resolve /broken --error-page 0`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, nil)
			if err != nil {
				return err
			}
			b, err := a.build()
			if err != nil {
				return err
			}
			return runResolve(cmd, b, args, asJSON, errorDepth)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one JSON object per path")
	cmd.Flags().IntVar(&errorDepth, "error-page", -1, "Also load the error page at this layout depth")

	return cmd
}

func runResolve(cmd *cobra.Command, b *manifest.Bundle, paths []string, asJSON bool, errorDepth int) error {
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	failed := 0

	for _, p := range paths {
		r := resolveResult{Path: p}
		res, ok, err := b.Resolver.Resolve(cmd.Context(), p)
		switch {
		case err != nil:
			r.Error = err.Error()
		case ok:
			r.Found = true
			r.Resolution = res
			if errorDepth >= 0 {
				mod, found, err := b.Resolver.LoadErrorPage(cmd.Context(), res, errorDepth)
				if err != nil {
					r.Error = err.Error()
				} else if found {
					r.ErrorPage = mod
				}
			}
		}
		if !r.Found || r.Error != "" {
			failed++
		}

		if asJSON {
			if err := enc.Encode(r); err != nil {
				return err
			}
			continue
		}
		printResolution(out, b, r)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d path(s) did not resolve", failed, len(paths))
	}
	return nil
}

func printResolution(w io.Writer, b *manifest.Bundle, r resolveResult) {
	switch {
	case r.Error != "":
		errorMsg(w, "%s", style.Route.Render(r.Path))
		info(w, "%s", style.Error.Render(r.Error))
	case !r.Found:
		warn(w, "%s %s", style.Route.Render(r.Path), style.Muted.Render("no route"))
		if s := router.Suggest(r.Path, staticRoutes(b)); s != "" {
			info(w, "%s", style.Muted.Render(fmt.Sprintf("did you mean %s?", s)))
		}
	default:
		res := r.Resolution
		success(w, "%s %s %s", style.Route.Render(r.Path), style.Muted.Render("→"), res.RouteID)
		printParams(w, res.Params)
		if res.Page != nil {
			for i, l := range res.Page.Layouts {
				if l == nil {
					info(w, "layout %d  %s", i, style.Muted.Render("(none)"))
					continue
				}
				info(w, "layout %d  %s", i, describeModule(l))
			}
			info(w, "leaf      %s", describeModule(res.Page.Leaf))
		}
		if res.Endpoint != nil {
			info(w, "endpoint  %s", describeModule(res.Endpoint))
		}
		if r.ErrorPage != nil {
			info(w, "error     %s", describeModule(r.ErrorPage))
		}
	}
	fmt.Fprintln(w)
}

func printParams(w io.Writer, params map[string]string) {
	if len(params) == 0 {
		return
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		info(w, "%s = %q", style.Header.Render(name), params[name])
	}
}

func describeModule(m *modules.Module) string {
	name := m.Name
	if m.Export != "" {
		name += "#" + m.Export
	}
	return fmt.Sprintf("%s %s", name, style.Muted.Render(fmt.Sprintf("(%d bytes, %s)", m.Size, m.Digest[:12])))
}

// staticRoutes returns the ids of routes without params, the only ones a
// typo suggestion can sensibly point at.
func staticRoutes(b *manifest.Bundle) []string {
	var ids []string
	for _, r := range b.Table.Routes() {
		if len(r.Params) == 0 && !strings.Contains(r.ID, "(") {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
