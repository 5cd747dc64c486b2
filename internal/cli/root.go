package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"icsfix/internal/config"
	appLog "icsfix/internal/log"
)

var (
	version = "dev"

	// Persistent flags.
	configPath    string
	verbose       int
	debugPatterns []string
	lenient       bool

	// conf is the effective configuration, set before any command runs.
	conf *config.Config
)

// errFailures is returned when at least one file could not be processed.
var errFailures = errors.New("some files failed")

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "icsfix",
	Short: "Repair iCalendar files for CalDAV sync",
	Long: `icsfix rewrites iCalendar (.ics) files so CalDAV sync tools accept them.

It makes UID and X-RADICALE-NAME values unique and well-formed across all
files of a run, drops annotations such as X-LIC-ERROR, and simplifies
DTSTAMP and alarm TRIGGER properties. Files are only rewritten when the
result differs from the original.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string for the CLI.
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to YAML config file (created with defaults if missing)")
	flags.CountVarP(&verbose, "verbose", "v", "lower the log level one step per -v (e.g. info -> debug)")
	flags.StringArrayVarP(&debugPatterns, "debug", "d", nil, "log every input line containing `PATTERN` (repeatable)")
	flags.BoolVar(&lenient, "lenient", false, "accept files with junk before BEGIN:VCALENDAR")

	rootCmd.AddCommand(fixCmd, splitCmd, lintCmd, watchCmd)
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI flags override the config file.
	if cmd.Flags().Changed("lenient") {
		cfg.Lenient = lenient
	}
	cfg.DebugPatterns = append(cfg.DebugPatterns, debugPatterns...)

	level, err := appLog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	level = raiseVerbosity(level, verbose)
	appLog.SetLevel(level)

	appLog.Debug("effective config",
		"config_path", configPath,
		"log_level", level,
		"lenient", cfg.Lenient,
		"debug_patterns", len(cfg.DebugPatterns),
		"side_suffix", cfg.SideSuffix,
		"replace", cfg.Replace,
		"lint", cfg.Lint,
	)
	conf = cfg
	return nil
}

// verbosity lists levels from quietest to most verbose.
var verbosity = []appLog.Level{appLog.LevelError, appLog.LevelWarn, appLog.LevelInfo, appLog.LevelDebug}

// raiseVerbosity moves l steps towards debug.
func raiseVerbosity(l appLog.Level, steps int) appLog.Level {
	i := slices.Index(verbosity, l)
	if i < 0 {
		return l
	}
	return verbosity[min(i+steps, len(verbosity)-1)]
}
