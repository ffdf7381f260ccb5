// -----------------------------------------------------------------------
// Result Adapter - Boundary to report generation
// Merges a file's detections into one canonical record and aggregates
// per-framework statistics
// -----------------------------------------------------------------------

package detection

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/stackscan/internal/models"
)

// AdaptResults folds per-file detection lists into a scan report: the
// highest-confidence detection names the file's primary framework, the
// metadata of every matched rule is merged (higher confidence wins on
// key conflicts), and framework aggregates are computed.
func AdaptResults(root string, results []*models.FileDetectionResult) *models.ScanReport {
	report := &models.ScanReport{
		ID:        uuid.New().String(),
		Root:      root,
		CreatedAt: time.Now().UTC(),
		FileCount: len(results),
	}

	stats := make(map[string]*models.FrameworkStat)

	for _, result := range results {
		if len(result.Detections) == 0 {
			continue
		}
		report.DetectedCount++

		primary := result.Detections[0]
		record := models.FileRecord{
			Folder:     result.Folder,
			Name:       result.Name,
			Size:       result.Size,
			Framework:  primary.Type,
			Confidence: primary.Confidence,
		}

		merged := make(map[string]any)
		for _, detection := range result.Detections {
			record.RuleIDs = append(record.RuleIDs, detection.RuleID)
			for k, v := range detection.Metadata {
				if _, exists := merged[k]; !exists {
					merged[k] = v
				}
			}
		}
		if len(merged) > 0 {
			record.Metadata = merged
		}
		report.Files = append(report.Files, record)

		stat, ok := stats[primary.Type]
		if !ok {
			stat = &models.FrameworkStat{Type: primary.Type}
			stats[primary.Type] = stat
		}
		stat.FileCount++
		stat.TotalSize += result.Size
	}

	for _, stat := range stats {
		report.Frameworks = append(report.Frameworks, *stat)
	}
	sort.Slice(report.Frameworks, func(i, j int) bool {
		if report.Frameworks[i].FileCount != report.Frameworks[j].FileCount {
			return report.Frameworks[i].FileCount > report.Frameworks[j].FileCount
		}
		return report.Frameworks[i].Type < report.Frameworks[j].Type
	})

	return report
}
