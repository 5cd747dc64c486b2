package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"icsfix/internal/batch"
)

// Flags for fix.
var (
	noReplace bool
	fixLint   bool
)

// Flags for split.
var splitOut string

var fixCmd = &cobra.Command{
	Use:   "fix [path...]",
	Short: "Fix identifiers and incompatible properties in place",
	Long: `Fix every file under the given paths (default: current directory).

Identifiers are kept unique across all files of one invocation, so the
result depends on file order; files are processed in sorted order.

Examples:
  icsfix fix ~/.local/share/radicale/collections
  icsfix fix --no-replace -v calendar.ics`,
	RunE: runFix,
}

var splitCmd = &cobra.Command{
	Use:   "split [path...]",
	Short: "Split multi-entry calendars into one file per entry",
	Long: `Write one calendar per VEVENT/VTODO, named <UID>.ics, next to the
source file or into --out. Calendar properties and time zones are copied
into every part. Single-entry files are skipped.`,
	RunE: runSplit,
}

var lintCmd = &cobra.Command{
	Use:   "lint [path...]",
	Short: "Report problems a strict iCalendar parser finds",
	RunE:  runLint,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run fix on the configured paths on a schedule",
	Long: `Run fix over watch.paths from the config file now and then on the
cron schedule in watch.schedule, until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	fixCmd.Flags().BoolVar(&noReplace, "no-replace", false, "leave changed output next to the original instead of replacing it")
	fixCmd.Flags().BoolVar(&fixLint, "lint", false, "lint the fixed output")
	splitCmd.Flags().StringVarP(&splitOut, "out", "o", "", "directory for split parts")
}

func runFix(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("no-replace") {
		conf.Replace = !noReplace
	}
	if cmd.Flags().Changed("lint") {
		conf.Lint = fixLint
	}
	sum, errs := batch.NewRunner(conf).FixAll(cmd.Context(), pathsOrCwd(args))
	fmt.Fprintf(cmd.OutOrStdout(), "%d files: %d modified, %d unchanged, %d skipped, %d failed\n",
		sum.Scanned, sum.Modified, sum.Unchanged, sum.Skipped, sum.Failed)
	return summarize(errs)
}

func runSplit(cmd *cobra.Command, args []string) error {
	if splitOut != "" {
		conf.SplitDir = splitOut
	}
	sum, errs := batch.NewRunner(conf).SplitAll(cmd.Context(), pathsOrCwd(args))
	fmt.Fprintf(cmd.OutOrStdout(), "%d files: %d split, %d skipped, %d failed\n",
		sum.Scanned, sum.Modified, sum.Skipped, sum.Failed)
	return summarize(errs)
}

func runLint(cmd *cobra.Command, args []string) error {
	sum, errs := batch.NewRunner(conf).LintAll(cmd.Context(), pathsOrCwd(args))
	fmt.Fprintf(cmd.OutOrStdout(), "%d files: %d problems, %d failed\n",
		sum.Scanned, sum.Findings, sum.Failed)
	if err := summarize(errs); err != nil {
		return err
	}
	if sum.Findings > 0 {
		return fmt.Errorf("%d problems found", sum.Findings)
	}
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if len(conf.Watch.Paths) == 0 {
		return errors.New("watch.paths is empty in the config file")
	}
	return batch.NewRunner(conf).Watch(cmd.Context(), conf.Watch.Schedule, conf.Watch.Paths)
}

func pathsOrCwd(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

func summarize(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errFailures, errors.Join(errs...))
}
