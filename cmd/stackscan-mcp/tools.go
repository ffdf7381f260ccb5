package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createScanArchiveTool returns the scan_archive tool definition
func createScanArchiveTool() mcp.Tool {
	return mcp.NewTool("scan_archive",
		mcp.WithDescription("Detect embedded application frameworks in an extracted mobile app archive directory"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the extracted archive directory"),
		),
	)
}

// createDetectFileTool returns the detect_file tool definition
func createDetectFileTool() mcp.Tool {
	return mcp.NewTool("detect_file",
		mcp.WithDescription("Evaluate every detection rule against a single file and return its detections"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the file to evaluate"),
		),
	)
}

// createListRulesTool returns the list_rules tool definition
func createListRulesTool() mcp.Tool {
	return mcp.NewTool("list_rules",
		mcp.WithDescription("List the loaded detection rules (id, framework type, base confidence)"),
	)
}

// createGetScanReportTool returns the get_scan_report tool definition
func createGetScanReportTool() mcp.Tool {
	return mcp.NewTool("get_scan_report",
		mcp.WithDescription("Retrieve a stored scan report by run ID"),
		mcp.WithString("report_id",
			mcp.Required(),
			mcp.Description("Scan report run ID (uuid)"),
		),
	)
}
