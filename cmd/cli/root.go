// Package cli provides the command-line interface for nmapxlsx.
// The root command loads nmap XML reports and writes them to an xlsx
// workbook ready for review.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anstrom/nmapxlsx/internal/config"
	"github.com/anstrom/nmapxlsx/internal/errors"
	"github.com/anstrom/nmapxlsx/internal/logging"
	"github.com/anstrom/nmapxlsx/internal/metrics"
	"github.com/anstrom/nmapxlsx/internal/report"
	"github.com/anstrom/nmapxlsx/internal/workbook"
)

const (
	defaultConfigFile = "nmapxlsx.yaml"
	envPrefix         = "NMAPXLSX"
)

// Viper keys, shared with the flag names.
const (
	keyOutput       = "output"
	keyConfig       = "config"
	keyVerbose      = "verbose"
	keyLogFormat    = "log-format"
	keyLogLevel     = "log-level"
	keyMetricsFile  = "metrics-file"
	keyPrintSummary = "print-summary"
)

// Build information - these will be set by ldflags during build.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// rootCmd represents the base command.
var rootCmd = newRootCmd()

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// getVersion returns the version string.
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime)
}

// SetVersion sets the version information (called from main).
func SetVersion(v, c, bt string) {
	version = v
	commit = c
	buildTime = bt
	rootCmd.Version = getVersion()
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "nmapxlsx -o <output.xlsx> <report.xml>...",
		Short: "Convert nmap XML reports to an xlsx workbook",
		Long: `nmapxlsx converts one or more nmap XML reports into a workbook with a
Summary sheet (one row per report) and a Results sheet (one row per host and
service). The Results sheet is filterable, keeps its header visible and offers
a review dropdown on the Flagged and Notes columns.

Reports cut short by an interrupted scan are recovered where possible.`,
		Example: `  nmapxlsx -o scan.xlsx scan.xml
  nmapxlsx -o weekly.xlsx dmz.xml internal.xml --print-summary
  nmapxlsx -o scan.xlsx --metrics-file /var/lib/node_exporter/nmapxlsx.prom scan.xml`,
		Version: getVersion(),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Flags parsed fine; from here on failures are not usage problems.
			cmd.SilenceUsage = true
			return runConvert(cmd, v, args)
		},
	}

	flags := cmd.Flags()
	flags.StringP(keyOutput, "o", "", "path to xlsx output")
	flags.String(keyConfig, "", "config file (default is ./"+defaultConfigFile+")")
	flags.BoolP(keyVerbose, "v", false, "verbose output")
	flags.String(keyLogFormat, "", "log format: text or json")
	flags.String(keyLogLevel, "", "log level: debug, info, warn or error")
	flags.String(keyMetricsFile, "", "write run metrics to this node_exporter textfile")
	flags.Bool(keyPrintSummary, false, "print the Summary sheet as a table when done")

	if err := cmd.MarkFlagRequired(keyOutput); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to mark output flag required: %v\n", err)
	}

	for _, key := range []string{keyConfig, keyVerbose, keyLogFormat, keyLogLevel, keyMetricsFile, keyPrintSummary} {
		if err := v.BindPFlag(key, flags.Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to bind %s flag: %v\n", key, err)
		}
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return cmd
}

func runConvert(cmd *cobra.Command, v *viper.Viper, args []string) (err error) {
	start := time.Now()

	output, _ := cmd.Flags().GetString(keyOutput)
	if output == "" {
		return errors.ErrUsage("Output must be specified")
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := initLogging(cfg, v).WithRunID(runID)
	logging.SetDefault(logger)

	m := metrics.GetGlobalMetrics()
	defer func() {
		m.RecordRun(time.Since(start), err == nil)
		if cfg.Metrics.Textfile == "" {
			return
		}
		if werr := m.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
			logger.Warn("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", werr)
		}
	}()

	logger.Debug("Starting conversion", "inputs", len(args), "output", output)

	reports, err := report.Load(args)
	if err != nil {
		return err
	}

	w, err := workbook.Create(output, workbook.Options{
		Author:       cfg.Workbook.CommentAuthor,
		CommentWidth: cfg.Workbook.CommentWidth,
		ReviewValues: cfg.Workbook.ReviewValues,
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Discard() }()

	if err := workbook.Project(reports, w); err != nil {
		return err
	}

	logger.Info("Conversion complete",
		"reports", len(reports),
		"output", output,
		"duration", time.Since(start).Round(time.Millisecond))

	if v.GetBool(keyPrintSummary) {
		printSummary(cmd.OutOrStdout(), reports)
	}
	return nil
}

// loadConfig reads the config file and applies flag and environment
// overrides on top of it.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString(keyConfig)
	if path == "" {
		path = defaultConfigFile
	} else if _, err := os.Stat(path); err != nil {
		return nil, errors.WrapConfigError(errors.CodeFileNotFound,
			fmt.Sprintf("config file %s is not accessible", path), err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if v.IsSet(keyLogLevel) {
		cfg.Logging.Level = v.GetString(keyLogLevel)
	}
	if v.GetBool(keyVerbose) {
		cfg.Logging.Level = string(logging.LevelDebug)
	}
	if v.IsSet(keyLogFormat) {
		cfg.Logging.Format = v.GetString(keyLogFormat)
	}
	if v.IsSet(keyMetricsFile) {
		cfg.Metrics.Textfile = v.GetString(keyMetricsFile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// initLogging builds the run's logger from configuration.
func initLogging(cfg *config.Config, v *viper.Viper) *logging.Logger {
	logConfig := logging.Config{
		Level:     logging.LogLevel(cfg.Logging.Level),
		Format:    logging.LogFormat(cfg.Logging.Format),
		Output:    cfg.Logging.Output,
		AddSource: cfg.Logging.Level == string(logging.LevelDebug),
	}

	logger, err := logging.New(logConfig)
	if err != nil {
		logger = logging.NewDefault()
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	if v.GetBool(keyVerbose) {
		logger.Info("Structured logging initialized", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	}
	return logger
}

// printSummary renders the Summary sheet rows as a console table.
func printSummary(out io.Writer, reports []*report.Report) {
	headers := make([]any, len(workbook.SummaryColumns))
	for i, col := range workbook.SummaryColumns {
		headers[i] = col.Name
	}

	table := tablewriter.NewWriter(out)
	table.Header(headers...)

	for _, rep := range reports {
		row := make([]string, len(workbook.SummaryColumns))
		for i, col := range workbook.SummaryColumns {
			row[i] = fmt.Sprint(col.Value(rep))
		}
		_ = table.Append(row)
	}

	_ = table.Render()
}
