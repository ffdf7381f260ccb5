package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/stackscan/internal/detection"
	"github.com/ternarybob/stackscan/internal/interfaces"
	"github.com/ternarybob/stackscan/internal/scanner"
)

// handleScanArchive implements the scan_archive tool
func handleScanArchive(fileScanner *scanner.Scanner, engine interfaces.DetectionService, reports interfaces.ReportStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return textResult("Error: path parameter is required"), nil
		}

		files, err := fileScanner.Scan(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Archive scan failed")
			return textResult(fmt.Sprintf("Scan error: %v", err)), nil
		}

		results := engine.DetectFiles(ctx, files)
		report := detection.AdaptResults(path, results)

		if err := reports.SaveReport(ctx, report); err != nil {
			logger.Warn().Err(err).Msg("Failed to persist scan report")
		}

		return textResult(formatReport(report)), nil
	}
}

// handleDetectFile implements the detect_file tool
func handleDetectFile(fileScanner *scanner.Scanner, engine interfaces.DetectionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := request.RequireString("path")
		if err != nil || path == "" {
			return textResult("Error: path parameter is required"), nil
		}

		file, err := fileScanner.ScanFile(path)
		if err != nil {
			logger.Error().Err(err).Str("path", path).Msg("File scan failed")
			return textResult(fmt.Sprintf("Scan error: %v", err)), nil
		}

		result := engine.DetectFile(ctx, file)
		return textResult(formatFileResult(result)), nil
	}
}

// handleListRules implements the list_rules tool
func handleListRules(engine interfaces.DetectionService) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return textResult(formatRules(engine.Rules())), nil
	}
}

// handleGetScanReport implements the get_scan_report tool
func handleGetScanReport(reports interfaces.ReportStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		reportID, err := request.RequireString("report_id")
		if err != nil || reportID == "" {
			return textResult("Error: report_id parameter is required"), nil
		}

		report, err := reports.GetReport(ctx, reportID)
		if err != nil {
			logger.Error().Err(err).Str("report_id", reportID).Msg("GetReport failed")
			return textResult(fmt.Sprintf("Report not found: %v", err)), nil
		}

		return textResult(formatReport(report)), nil
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}
