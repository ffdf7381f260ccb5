package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stackscan/internal/binstrings"
	"github.com/ternarybob/stackscan/internal/common"
	"github.com/ternarybob/stackscan/internal/detection"
	"github.com/ternarybob/stackscan/internal/interfaces"
	"github.com/ternarybob/stackscan/internal/refdata"
	"github.com/ternarybob/stackscan/internal/scanner"
	badgerstorage "github.com/ternarybob/stackscan/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths
	rulesPath    = flag.String("rules", "", "Detection rule document path (overrides config)")
	schedule     = flag.String("schedule", "", "Cron schedule for watch mode (overrides config)")
	outPath      = flag.String("out", "", "Write the scan report JSON to this file instead of stdout")
	reportID     = flag.String("report", "", "Print a stored scan report by run ID and exit")
	listReports  = flag.Bool("list", false, "List recent scan reports and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	defer common.RecoverWithCrashFile()
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Stackscan version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file(s) -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("stackscan.toml"); err == nil {
			configFiles = append(configFiles, "stackscan.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *rulesPath, *schedule)

	logger = common.InitLogger(config)
	common.InstallCrashHandler("./logs")
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Strs("config_files", configFiles).
		Str("rules_path", config.Scan.RulesPath).
		Str("log_level", config.Logging.Level).
		Msg("Application configuration loaded")

	// Report storage
	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open report storage")
		os.Exit(1)
	}
	defer db.Close()
	reports := badgerstorage.NewReportStorage(db, logger)

	ctx := context.Background()

	if *listReports {
		printReportList(ctx, reports)
		return
	}
	if *reportID != "" {
		printStoredReport(ctx, reports, *reportID)
		return
	}

	root := flag.Arg(0)
	if root == "" {
		fmt.Fprintln(os.Stderr, "Usage: stackscan [flags] <extracted-archive-dir>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Wire the detection engine: reference data, string extraction,
	// extractor registry, rules
	ref, err := refdata.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load reference data")
		os.Exit(1)
	}

	registry := detection.NewExtractorRegistry(binstrings.New(config.Scan.StringMinLength), ref, logger)

	engine, err := detection.NewEngine(detection.Options{
		RulesPath:       config.Scan.RulesPath,
		RuleConcurrency: config.Scan.RuleConcurrency,
		Registry:        registry,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize detection engine")
		os.Exit(1)
	}

	fileScanner := scanner.New(config.Scan.MaxContentBytes, logger)

	runScan := func() {
		if err := executeScan(ctx, fileScanner, engine, reports, root); err != nil {
			logger.Error().Err(err).Str("root", root).Msg("Scan failed")
		}
	}

	if config.Scan.Schedule == "" {
		if err := executeScan(ctx, fileScanner, engine, reports, root); err != nil {
			logger.Fatal().Err(err).Str("root", root).Msg("Scan failed")
			os.Exit(1)
		}
		return
	}

	// Watch mode: re-run the scan on the configured cron schedule
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(config.Scan.Schedule, func() {
		common.SafeGo(logger, "scheduledScan", runScan)
	}); err != nil {
		logger.Fatal().Err(err).Str("schedule", config.Scan.Schedule).Msg("Invalid scan schedule")
		os.Exit(1)
	}

	runScan()
	scheduler.Start()
	logger.Info().Str("schedule", config.Scan.Schedule).Msg("Watch mode started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Stop()
	logger.Info().Msg("Shutting down")
}

// executeScan runs one full scan: walk the archive, detect, adapt,
// persist and emit the report.
func executeScan(ctx context.Context, fileScanner *scanner.Scanner, engine interfaces.DetectionService, reports interfaces.ReportStorage, root string) error {
	files, err := fileScanner.Scan(root)
	if err != nil {
		return err
	}
	logger.Info().Str("root", root).Int("files", len(files)).Msg("Archive scan complete")

	results := engine.DetectFiles(ctx, files)
	report := detection.AdaptResults(root, results)

	if err := reports.SaveReport(ctx, report); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist scan report")
	}

	logger.Info().
		Str("report_id", report.ID).
		Int("detected", report.DetectedCount).
		Int("frameworks", len(report.Frameworks)).
		Msg("Detection complete")

	return emitReport(report)
}

func emitReport(report any) error {
	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func printReportList(ctx context.Context, reports interfaces.ReportStorage) {
	list, err := reports.ListReports(ctx, 20)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to list scan reports")
		os.Exit(1)
	}
	for _, r := range list {
		fmt.Printf("%s  %s  files=%d detected=%d  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.FileCount, r.DetectedCount, r.Root)
	}
}

func printStoredReport(ctx context.Context, reports interfaces.ReportStorage, id string) {
	report, err := reports.GetReport(ctx, id)
	if err != nil {
		logger.Fatal().Err(err).Str("report_id", id).Msg("Failed to load scan report")
		os.Exit(1)
	}
	if err := emitReport(report); err != nil {
		logger.Fatal().Err(err).Msg("Failed to emit scan report")
		os.Exit(1)
	}
}
