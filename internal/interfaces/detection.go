package interfaces

import (
	"context"

	"github.com/ternarybob/stackscan/internal/models"
)

// DetectionService evaluates candidate files against the loaded rule set.
// Implemented by detection.Engine.
type DetectionService interface {
	// DetectFile evaluates every detection rule against one file and
	// returns its detections sorted by descending confidence.
	DetectFile(ctx context.Context, file *models.CandidateFile) *models.FileDetectionResult

	// DetectFiles maps DetectFile over the input, preserving input order.
	DetectFiles(ctx context.Context, files []*models.CandidateFile) []*models.FileDetectionResult

	// Rules returns the loaded detection rules.
	Rules() []models.DetectionRule
}
