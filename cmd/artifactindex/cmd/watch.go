package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/artifactindex/internal/output"
	"github.com/Aman-CERP/artifactindex/internal/watcher"
)

type watchOptions struct {
	rebuild  bool
	table    string
	debounce time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <source>",
		Short: "Re-import a source file whenever it changes",
		Long: `Import a source file, then keep the index in sync with it.

Every time the file is saved it is imported again. With --rebuild each
import replaces the index contents, so records removed from the file are
removed from the index too. Stop with Ctrl+C.`,
		Example: `  artifactindex watch artifacts.json
  artifactindex watch collection.db --rebuild`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, a, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.rebuild, "rebuild", false, "Replace the index contents on every change")
	cmd.Flags().StringVar(&opts.table, "table", "", "SQLite table to read (default from config)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watcher.DefaultOptions().DebounceWindow, "Quiet period before re-importing")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, a *app, path string, opts watchOptions) error {
	out := output.New(cmd.OutOrStdout())

	src, err := resolveSource(a, path, opts.table)
	if err != nil {
		return err
	}

	svc, err := a.openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	w, err := watcher.New([]string{path}, watcher.Options{DebounceWindow: opts.debounce}, a.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	reimport := func() {
		result, err := importSource(ctx, svc, src, opts.rebuild)
		if err != nil {
			slog.WarnContext(ctx, "watch_import_failed", slog.String("source", src.Name()), slog.String("error", err.Error()))
			out.Errorf("Import failed: %v", err)
			return
		}
		out.Successf("Indexed %d artifacts from %s", result.Indexed, result.Source)
	}

	reimport()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	out.Statusf("👀", "Watching %s (Ctrl+C to stop)", path)
	for {
		select {
		case <-ctx.Done():
			out.Newline()
			out.Status("", "Stopped")
			return nil
		case err := <-errCh:
			return err
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			removed, changed := splitBatch(batch)
			for _, p := range removed {
				out.Warningf("%s was removed; waiting for it to come back", p)
			}
			if changed {
				reimport()
			}
		}
	}
}

// splitBatch returns the removed paths of a batch and whether any other
// event in it calls for a re-import. One re-import covers the whole batch.
func splitBatch(batch []watcher.FileEvent) (removed []string, changed bool) {
	for _, ev := range batch {
		if ev.Operation == watcher.OpDelete {
			removed = append(removed, ev.Path)
			continue
		}
		changed = true
	}
	return removed, changed
}
