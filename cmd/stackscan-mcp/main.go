package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/stackscan/internal/binstrings"
	"github.com/ternarybob/stackscan/internal/common"
	"github.com/ternarybob/stackscan/internal/detection"
	"github.com/ternarybob/stackscan/internal/refdata"
	"github.com/ternarybob/stackscan/internal/scanner"
	badgerstorage "github.com/ternarybob/stackscan/internal/storage/badger"
)

func main() {
	// Load configuration
	configPath := os.Getenv("STACKSCAN_CONFIG")
	if configPath == "" {
		configPath = "stackscan.toml"
	}
	if _, err := os.Stat(configPath); err != nil {
		configPath = ""
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logger for the MCP server (console only, warn level, to
	// avoid cluttering MCP stdio)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	// Report storage
	db, err := badgerstorage.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open report storage")
	}
	defer db.Close()
	reports := badgerstorage.NewReportStorage(db, logger)

	// Detection engine
	ref, err := refdata.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load reference data")
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
	}

	fileScanner := scanner.New(config.Scan.MaxContentBytes, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"stackscan",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createScanArchiveTool(), handleScanArchive(fileScanner, engine, reports, logger))
	mcpServer.AddTool(createDetectFileTool(), handleDetectFile(fileScanner, engine, logger))
	mcpServer.AddTool(createListRulesTool(), handleListRules(engine))
	mcpServer.AddTool(createGetScanReportTool(), handleGetScanReport(reports, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
