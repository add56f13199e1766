package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sstiscan/internal/config"
	"github.com/nao1215/sstiscan/internal/database"
	"github.com/nao1215/sstiscan/internal/log"
	"github.com/nao1215/sstiscan/internal/model"
	"github.com/nao1215/sstiscan/internal/probe"
	"github.com/nao1215/sstiscan/internal/report"
	"github.com/nao1215/sstiscan/internal/scanner"
)

// fileOverridableFlags are the flags a config file may set when they are not
// given on the command line.
var fileOverridableFlags = []string{"data", "method", "user-agent", "timeout"}

// addScanFlags registers the scan flags on the root command.
func addScanFlags(cmd *cobra.Command) {
	// Request flags
	cmd.Flags().StringP("data", "d", "",
		"Form body for POST (appended to the URL query for GET)")
	cmd.Flags().StringArrayP("header", "H", nil,
		`Request header as "Name: Value" (repeatable)`)
	cmd.Flags().StringP("method", "m", config.DefaultMethod,
		"HTTP method: GET or POST")
	cmd.Flags().Int("timeout", int(config.DefaultTimeout/time.Second),
		"Per-request timeout in seconds")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Pacing and limits
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum delay between requests (e.g. 500ms)")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum number of response bytes to inspect")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sstiscan in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not record this scan in the history database")

	// Logging flags
	cmd.Flags().BoolP("quiet", "q", false,
		"Only log warnings and errors")
	cmd.Flags().Bool("log-json", false,
		"Write logs as JSON")
}

// runScanCmd executes a scan of the single positional URL.
func runScanCmd(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) > 0 {
		target = args[0]
	}

	// Nothing touches the network before the URL is known to be usable.
	if err := config.ValidateTargetURL(target); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	cfg, err := buildConfig(cmd, target)
	if err != nil {
		return err
	}

	logger, err := setupLogger(cmd, cfg)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	headerErr, err := applyConfigFile(cmd, cfg, logger)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	var result *model.ScanResult
	if headerErr != nil {
		result = scanner.Aborted(cfg.Target, cfg.Method, headerErr)
	} else {
		result = runScan(ctx, cfg, logger)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Verdict())

	if err := outputReport(cmd.OutOrStdout(), cfg, result); err != nil {
		logger.Error("report failed", "target", cfg.Target, "error", err)
	}

	if cfg.SaveToDB {
		if err := saveScanResult(ctx, cfg.DBDir, result, logger); err != nil {
			logger.Error("failed to save scan result", "target", cfg.Target, "error", err)
		}
	}

	return nil
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, target string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Target = target

	var err error

	cfg.Data, err = cmd.Flags().GetString("data")
	if err != nil {
		return nil, err
	}

	cfg.Headers, err = cmd.Flags().GetStringArray("header")
	if err != nil {
		return nil, err
	}

	method, err := cmd.Flags().GetString("method")
	if err != nil {
		return nil, err
	}
	cfg.Method = config.NormalizeMethod(method)

	timeoutSeconds, err := cmd.Flags().GetInt("timeout")
	if err != nil {
		return nil, err
	}
	cfg.Timeout = time.Duration(timeoutSeconds) * time.Second

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory
	cfg.DBDir = getDataDir(cmd)

	cfg.Verbose, err = cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}

	cfg.Quiet, err = cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger creates the secret-redacting logger on the command's stderr.
func setupLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	jsonLogs, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, err
	}

	level := log.LevelFor(cfg.Verbose, cfg.Quiet)
	if jsonLogs {
		return log.NewSecureJSONLogger(cmd.ErrOrStderr(), level), nil
	}
	return log.NewSecureLogger(cmd.ErrOrStderr(), level), nil
}

// applyConfigFile merges the matching config file section into cfg.
//
// A malformed header list does not stop the command: it is returned as
// headerErr so that the scan can be reported as aborted. Any other problem
// with the file is returned as err.
func applyConfigFile(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (headerErr, err error) {
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently continue without a file.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath == "" {
		if cfg.ConfigFilePath != "" {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil, nil
	}

	file, err := config.LoadConfigFile(configPath)
	if errors.Is(err, config.ErrInvalidHeaderList) {
		logger.Error("invalid header list in config file", "path", configPath, "error", err)
		return err, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}

	explicit := make(map[string]bool, len(fileOverridableFlags))
	for _, name := range fileOverridableFlags {
		explicit[name] = cmd.Flags().Changed(name)
	}

	cfg.Apply(file.GetTargetConfig(cfg.Target), explicit)
	logger.Debug("config file loaded", "path", configPath)

	return nil, nil
}

// runScan runs the scanner against cfg.Target.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) *model.ScanResult {
	logger.Info("starting scan",
		"target", cfg.Target,
		"method", cfg.Method,
		"timeout", cfg.Timeout,
	)

	sender := probe.NewSender(
		probe.WithMaxBodySize(cfg.EffectiveMaxBodySize()),
		probe.WithDelay(cfg.Delay),
		probe.WithLogger(logger),
	)

	result := scanner.New(sender, scanner.WithLogger(logger)).Scan(ctx, scanner.Request{
		Target:    cfg.Target,
		Method:    cfg.Method,
		Data:      cfg.Data,
		Headers:   cfg.Headers,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
	})

	logger.Info("scan finished",
		"vulnerable", result.Vulnerable,
		"aborted", result.Aborted,
		"duration", result.Duration().Round(time.Millisecond),
	)

	return result
}

// outputReport writes the structured report requested by --json, --markdown
// or --output. Without any of them it does nothing.
func outputReport(stdout io.Writer, cfg *config.Config, result *model.ScanResult) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	output := stdout
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports may contain request headers and tokens, so only the owner may read them.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	format := report.FormatText
	switch {
	case cfg.JSONReport:
		format = report.FormatJSON
	case cfg.MarkdownReport:
		format = report.FormatMarkdown
	}

	_, err := report.New(format, output).Write(result)
	return err
}

// saveScanResult records result in the history database under dbDir.
func saveScanResult(ctx context.Context, dbDir string, result *model.ScanResult, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// An interrupted scan is still worth recording.
	if err := db.SaveScanResult(context.WithoutCancel(ctx), result); err != nil {
		return err
	}

	logger.Debug("scan result saved to database", "id", result.ID, "path", db.Path())
	return nil
}
