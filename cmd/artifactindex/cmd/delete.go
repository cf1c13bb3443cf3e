package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/output"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Remove artifacts by ID",
		Long:  `Remove artifacts by ID. Unknown IDs are ignored.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int, 0, len(args))
			for _, arg := range args {
				id, err := strconv.Atoi(arg)
				if err != nil {
					return apperrors.New(apperrors.ErrCodeInvalidInput,
						fmt.Sprintf("invalid artifact id %q", arg), err)
				}
				ids = append(ids, id)
			}

			svc, err := a.openService()
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			for _, id := range ids {
				if err := svc.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}

			output.New(cmd.OutOrStdout()).Successf("Deleted %d artifact(s)", len(ids))
			return nil
		},
	}
}
