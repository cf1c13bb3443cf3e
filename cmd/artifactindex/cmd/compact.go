package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/artifactindex/internal/output"
)

func newCompactCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Merge the index into a single segment",
		Long: `Merge the index into a single segment.

Deleted and replaced records keep occupying space until segments merge.
Compacting after a large import or clear reclaims it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			out := output.New(cmd.OutOrStdout())
			out.Status("🗜️ ", "Compacting index...")
			start := time.Now()
			if err := svc.Compact(cmd.Context()); err != nil {
				return err
			}
			out.Successf("Compacted in %s", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
