package cmd

import (
	"github.com/spf13/cobra"

	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/output"
)

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every artifact from the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			if !svc.ClearAll(cmd.Context()) {
				return apperrors.New(apperrors.ErrCodeIndexFailed, "failed to clear index", nil).
					WithDetail("index", svc.Path()).
					WithSuggestion("see the log file for the cause")
			}

			output.New(cmd.OutOrStdout()).Success("Index cleared")
			return nil
		},
	}
}
