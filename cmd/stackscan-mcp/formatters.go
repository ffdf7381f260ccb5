package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/stackscan/internal/models"
)

// formatReport formats a scan report as markdown
func formatReport(report *models.ScanReport) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Scan Report %s\n\n", report.ID))
	sb.WriteString(fmt.Sprintf("**Root:** %s\n", report.Root))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", report.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("**Files:** %d scanned, %d with detections\n\n", report.FileCount, report.DetectedCount))

	if len(report.Frameworks) > 0 {
		sb.WriteString("## Frameworks\n\n")
		for _, stat := range report.Frameworks {
			sb.WriteString(fmt.Sprintf("- **%s**: %d file(s), %d bytes\n", stat.Type, stat.FileCount, stat.TotalSize))
		}
		sb.WriteString("\n")
	}

	if len(report.Files) == 0 {
		sb.WriteString("No frameworks detected.\n")
		return sb.String()
	}

	sb.WriteString("## Files\n\n")
	for i, file := range report.Files {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, file.Name))
		sb.WriteString(fmt.Sprintf("**Framework:** %s (confidence %.2f)\n", file.Framework, file.Confidence))
		sb.WriteString(fmt.Sprintf("**Folder:** %s  **Size:** %d bytes\n", file.Folder, file.Size))
		sb.WriteString(fmt.Sprintf("**Rules:** %s\n", strings.Join(file.RuleIDs, ", ")))
		if len(file.Metadata) > 0 {
			metadataJSON, _ := json.MarshalIndent(file.Metadata, "", "  ")
			sb.WriteString(fmt.Sprintf("**Metadata:** %s\n", string(metadataJSON)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatFileResult formats a single file's detections as markdown
func formatFileResult(result *models.FileDetectionResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Detections for %s\n\n", result.Name))
	sb.WriteString(fmt.Sprintf("**Folder:** %s  **Size:** %d bytes\n\n", result.Folder, result.Size))

	if len(result.Detections) == 0 {
		sb.WriteString("No rules matched.\n")
		return sb.String()
	}

	for i, detection := range result.Detections {
		sb.WriteString(fmt.Sprintf("### %d. %s\n", i+1, detection.RuleName))
		sb.WriteString(fmt.Sprintf("**Type:** %s  **Confidence:** %.2f  **Rule:** %s\n", detection.Type, detection.Confidence, detection.RuleID))
		if len(detection.Metadata) > 0 {
			metadataJSON, _ := json.MarshalIndent(detection.Metadata, "", "  ")
			sb.WriteString(fmt.Sprintf("**Metadata:** %s\n", string(metadataJSON)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRules formats the loaded detection rules as markdown
func formatRules(rules []models.DetectionRule) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Detection Rules (%d)\n\n", len(rules)))
	for _, rule := range rules {
		sb.WriteString(fmt.Sprintf("- **%s** (%s): type %s, confidence %.2f, %d file rule(s), %d metadata rule(s)\n",
			rule.ID, rule.Name, rule.Type, rule.Confidence, len(rule.FileRules), len(rule.MetadataRules)))
	}
	return sb.String()
}
