package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/stackscan/internal/interfaces"
	"github.com/ternarybob/stackscan/internal/models"
)

// ReportStorage implements the ReportStorage interface for Badger
type ReportStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReportStorage creates a new ReportStorage instance
func NewReportStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReportStorage {
	return &ReportStorage{
		db:     db,
		logger: logger,
	}
}

// SaveReport stores a scan report keyed by its run ID.
func (s *ReportStorage) SaveReport(ctx context.Context, report *models.ScanReport) error {
	if report.ID == "" {
		return fmt.Errorf("report ID is required")
	}
	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}
	s.logger.Debug().Str("report_id", report.ID).Int("files", report.FileCount).Msg("Scan report saved")
	return nil
}

// GetReport retrieves a scan report by run ID.
func (s *ReportStorage) GetReport(ctx context.Context, id string) (*models.ScanReport, error) {
	var report models.ScanReport
	if err := s.db.Store().Get(id, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("scan report not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return &report, nil
}

// ListReports returns the most recent scan reports, newest first.
func (s *ReportStorage) ListReports(ctx context.Context, limit int) ([]*models.ScanReport, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []*models.ScanReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list scan reports: %w", err)
	}
	return reports, nil
}
