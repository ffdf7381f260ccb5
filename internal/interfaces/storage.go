package interfaces

import (
	"context"

	"github.com/ternarybob/stackscan/internal/models"
)

// ReportStorage persists adapted scan reports.
type ReportStorage interface {
	// SaveReport stores a scan report keyed by its run ID.
	SaveReport(ctx context.Context, report *models.ScanReport) error

	// GetReport retrieves a scan report by run ID.
	GetReport(ctx context.Context, id string) (*models.ScanReport, error)

	// ListReports returns the most recent reports, newest first.
	ListReports(ctx context.Context, limit int) ([]*models.ScanReport, error)
}
