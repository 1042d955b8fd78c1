package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/DrSkyle/filealloc/pkg/config"
	"github.com/DrSkyle/filealloc/pkg/engine"
	"github.com/spf13/cobra"
)

// closeTimeout bounds the telemetry flush after a command finishes.
const closeTimeout = 5 * time.Second

func newAllocateCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Assign files to nodes and write the placement",
		Long: `Assign every file to a node and write one "<file> <node>" line per file,
with NULL for files no node can hold. Output goes to stdout unless --output is set.`,
		Example: `  filealloc allocate -f files.txt -n nodes.txt
  filealloc allocate -f files.txt -n nodes.txt -o result.txt --summary
  filealloc allocate -f s3://plans/files.txt -n s3://plans/nodes.txt -o s3://plans/result.json --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			return runAllocate(cmd, cfg)
		},
	}

	addInputFlags(cmd)
	cmd.Flags().StringP(config.KeyOutput, "o", "", "Output: local path, s3://bucket/key, or - for stdout")
	cmd.Flags().String(config.KeyFormat, config.DefaultFormat, "Output format: "+formatNames())
	cmd.Flags().Bool(config.KeySummary, false, "Print the file and node listing after allocating")
	cmd.Flags().String(config.KeyHistory, "", "Append a run snapshot to this ledger (path or s3://bucket/key)")
	return cmd
}

func runAllocate(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()

	eng, err := engine.New(ctx,
		engine.WithConfig(cfg),
		engine.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}
	defer closeEngine(cmd, eng)

	res, err := eng.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.OutputPath != "" && cfg.OutputPath != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Placed %d of %d files on %d nodes -> %s\n",
			res.Summary.Assigned, res.Summary.Files, res.Summary.Nodes, cfg.OutputPath)
	}
	return nil
}

// closeEngine flushes telemetry on a fresh context, since the command's own
// context may already be cancelled by a signal.
func closeEngine(cmd *cobra.Command, eng *engine.Engine) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := eng.Close(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning: failed to flush telemetry:", err)
	}
}
