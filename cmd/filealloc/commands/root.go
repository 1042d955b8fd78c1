package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/DrSkyle/filealloc/pkg/config"
	"github.com/DrSkyle/filealloc/pkg/engine/report"
	"github.com/DrSkyle/filealloc/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// options is shared by every command of one root.
type options struct {
	cfgFile string
	v       *viper.Viper
}

// load binds the command's flags and resolves flags > env > config file > defaults.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	if err := o.v.BindPFlags(cmd.Flags()); err != nil {
		return config.Config{}, fmt.Errorf("failed to bind flags: %w", err)
	}
	return config.Load(o.v), nil
}

// NewRootCmd builds the filealloc command tree.
func NewRootCmd() *cobra.Command {
	o := &options{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "filealloc",
		Short: "Place sized files on capacity-limited nodes",
		Long: `filealloc - Best-fit-decreasing file placement

Reads a list of files and a list of nodes ("name size" per line) and assigns
every file to the least loaded node that can still hold it.`,
		Version:       version.Current,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(o.v, o.cfgFile); err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			return nil
		},
		// Run: nil (Forces help output).
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&o.cfgFile, "config", "", "Config file (default $HOME/.filealloc.yaml)")
	pf.BoolP(config.KeyVerbose, "v", false, "Enable debug logging")
	pf.Bool(config.KeyJSONLogs, false, "Emit logs as JSON")
	pf.String(config.KeyOtelEndpoint, "", "OTLP HTTP endpoint for traces")
	pf.Bool(config.KeySkipTelemetry, false, "Disable tracing")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(newAllocateCmd(o))
	rootCmd.AddCommand(newValidateCmd(o))
	return rootCmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

// addInputFlags registers the -f/-n pair used by every command that loads inputs.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(config.KeyFiles, "f", "", "File list: local path or s3://bucket/key (required)")
	cmd.Flags().StringP(config.KeyNodes, "n", "", "Node list: local path or s3://bucket/key (required)")
}

func formatNames() string {
	names := make([]string, len(report.Formats))
	for i, f := range report.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	out := cmd.OutOrStdout()

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("FILEALLOC %s", version.Current)))
	fmt.Fprintln(out, cmd.Short+".")

	fmt.Fprintln(out, titleStyle.Render("USAGE"))
	fmt.Fprintf(out, "  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(out, titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Fprintf(out, "  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Fprintln(out, "")
	}

	if cmd.Example != "" {
		fmt.Fprintln(out, titleStyle.Render("EXAMPLES"))
		fmt.Fprintln(out, cmd.Example)
		fmt.Fprintln(out, "")
	}

	fmt.Fprintln(out, titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.Shorthand != "" {
			output = fmt.Sprintf("  -%s, --%-11s %s", f.Shorthand, f.Name, f.Usage)
		}
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Fprintln(out, flagStyle.Render(output))
	})
	fmt.Fprintln(out, "")
}
