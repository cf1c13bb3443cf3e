// Package cmd provides the CLI commands for artifactindex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/artifactindex/internal/config"
	apperrors "github.com/Aman-CERP/artifactindex/internal/errors"
	"github.com/Aman-CERP/artifactindex/internal/logging"
	"github.com/Aman-CERP/artifactindex/internal/profiling"
	"github.com/Aman-CERP/artifactindex/pkg/artifactindex"
	"github.com/Aman-CERP/artifactindex/pkg/version"
)

// app carries state shared by the commands of one root command.
type app struct {
	debug     bool
	configDir string
	indexPath string
	profile   profiling.Options

	cfg            *config.Config
	logger         *slog.Logger
	loggingCleanup func()
	profiler       *profiling.Session
}

// NewRootCmd creates the root command for the artifactindex CLI.
func NewRootCmd() *cobra.Command {
	a := &app{logger: slog.Default()}

	cmd := &cobra.Command{
		Use:   "artifactindex",
		Short: "Full-text index over museum artifact records",
		Long: `artifactindex keeps a local full-text index of artifact records.

Records are imported from JSON, YAML or SQLite sources and can be searched
across every field or within a single one. Queries are prefix matched, so
"mask" finds "masks" and "masquerade".`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("artifactindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging to ~/.artifactindex/logs/")
	cmd.PersistentFlags().StringVar(&a.configDir, "dir", ".", "Directory holding .artifactindex.yaml")
	cmd.PersistentFlags().StringVar(&a.indexPath, "index", "", "Index directory (overrides config)")
	cmd.PersistentFlags().StringVar(&a.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&a.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = a.start
	cmd.PersistentPostRunE = a.stop

	cmd.AddCommand(newIndexCmd(a))
	cmd.AddCommand(newSearchCmd(a))
	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newDeleteCmd(a))
	cmd.AddCommand(newClearCmd(a))
	cmd.AddCommand(newCompactCmd(a))
	cmd.AddCommand(newWatchCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprint(os.Stderr, apperrors.FormatForCLI(err))
	}
	return err
}

// start loads configuration, sets up file logging and starts any requested
// profiles.
func (a *app) start(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return apperrors.ConfigError("failed to load configuration", err)
	}
	if a.indexPath != "" {
		abs, err := filepath.Abs(a.indexPath)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err)
		}
		cfg.Index.Path = abs
	}
	a.cfg = cfg

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.Logging.File
	if logCfg.FilePath == "" {
		logCfg.FilePath = logging.DefaultLogPath()
	}
	if a.debug {
		logCfg.Level = logging.DebugConfig().Level
	}
	logCfg.WriteToStderr = false

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging is best effort; commands still work without a log file.
		logger = logging.Discard()
		cleanup = func() {}
	}
	a.logger = logger
	a.loggingCleanup = cleanup
	slog.SetDefault(logger)

	if a.debug {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()))
	}

	if a.profile.Enabled() {
		session, err := profiling.Start(a.profile)
		if err != nil {
			return err
		}
		a.profiler = session
	}
	return nil
}

func (a *app) stop(_ *cobra.Command, _ []string) error {
	var err error
	if a.profiler != nil {
		err = a.profiler.Stop()
		a.profiler = nil
	}
	if a.loggingCleanup != nil {
		a.loggingCleanup()
		a.loggingCleanup = nil
	}
	return err
}

// openService opens the index named by the loaded configuration.
func (a *app) openService() (*artifactindex.Service, error) {
	return artifactindex.Open(a.cfg, artifactindex.WithLogger(a.logger))
}
