package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	"github.com/Aman-CERP/artifactindex/internal/output"
)

type listOptions struct {
	count  bool
	format string
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every indexed artifact",
		Long: `List every indexed artifact in the order it was last written.

With --count only index statistics are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd.Context(), cmd, a, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.count, "count", false, "Print index statistics instead of records")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, a *app, opts listOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	out := output.New(cmd.OutOrStdout())

	if opts.count {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		if opts.format == "json" {
			return out.JSON(stats)
		}
		out.Statusf("📁", "Index: %s", stats.Path)
		out.Statusf("", "Documents: %d", stats.DocumentCount)
		out.Statusf("", "Last sequence: %d", stats.LastSequence)
		return nil
	}

	records, err := svc.ListAll(ctx)
	if err != nil {
		return err
	}
	if opts.format == "json" {
		if records == nil {
			records = []artifact.Artifact{}
		}
		return out.JSON(records)
	}
	out.Artifacts(records)
	return nil
}
