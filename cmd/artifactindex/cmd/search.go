package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/artifactindex/internal/artifact"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	field  string
	format string // "text", "json"
}

func newSearchCmd(a *app) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed artifacts",
		Long: `Search indexed artifacts across all fields, or one field with --field.

Every word is matched as a prefix and a record matches when any word does;
prefix a word with + to require it. Hyphens split words, so "pre-columbian"
searches for "pre" and "columbian". Other query syntax such as quotes and
field:value is honored when it parses.

Fields: ` + strings.Join(artifact.FieldNames(), ", "),
		Example: `  artifactindex search ceremonial mask
  artifactindex search +yoruba +crown
  artifactindex search yoruba --field culture
  artifactindex search bronze --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, a, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.field, "field", "F", "", "Restrict the search to one field")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, a *app, query string, opts searchOptions) error {
	if err := checkFormat(opts.format); err != nil {
		return err
	}
	if opts.field != "" && !artifact.IsField(opts.field) {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown field %q", opts.field), nil).
			WithSuggestion("use one of: " + strings.Join(artifact.FieldNames(), ", "))
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	slog.InfoContext(ctx, "search_started", slog.String("query", query), slog.String("field", opts.field))
	results, err := svc.Search(ctx, query, opts.field)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "search_completed", slog.Int("results", len(results)))

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		if results == nil {
			results = []artifact.Artifact{}
		}
		return out.JSON(results)
	}

	out.Artifacts(results)
	if len(results) > 0 {
		out.Newline()
		out.Statusf("", "%d result(s)", len(results))
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown format %q", format), nil).
			WithSuggestion("use text or json")
	}
}
