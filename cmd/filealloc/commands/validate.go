package commands

import (
	"fmt"

	"github.com/DrSkyle/filealloc/pkg/engine"
	"github.com/spf13/cobra"
)

func newValidateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate",
		Short:   "Check that the file and node lists parse",
		Example: "  filealloc validate -f files.txt -n nodes.txt",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}

			eng, err := engine.New(cmd.Context(),
				engine.WithConfig(cfg),
				engine.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
			)
			if err != nil {
				return err
			}
			defer closeEngine(cmd, eng)

			res, err := eng.Validate(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found a total of %d Nodes (capacity %d)\n", res.Summary.Nodes, res.Summary.TotalCapacity)
			fmt.Fprintf(out, "Found a total of %d Files (size %d)\n", res.Summary.Files, res.Summary.TotalSize)
			return nil
		},
	}

	addInputFlags(cmd)
	return cmd
}
