package main

import (
	stderrors "errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/manifest"
)

func checkCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the manifest",
		Long: `Validate route ids, params, node references and matchers, and report
every problem found.

Examples:
  waypoint check
  waypoint check -m build/manifest.json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, flags, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = a.man.Validate()
			var ve *manifest.ValidationError
			if stderrors.As(err, &ve) {
				for _, p := range ve.Problems {
					errors.Fprint(out, p)
				}
				return fmt.Errorf("manifest has %d problem(s)", len(ve.Problems))
			}
			if err != nil {
				return err
			}

			success(out, "%d route(s), %d node(s), %d matcher(s)",
				len(a.man.Routes), len(a.man.Nodes), len(a.man.Matchers))
			return nil
		},
	}
	return cmd
}
