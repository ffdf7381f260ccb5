package badger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/stackscan/internal/common"
	"github.com/ternarybob/stackscan/internal/interfaces"
	"github.com/ternarybob/stackscan/internal/models"
)

func newTestStorage(t *testing.T) interfaces.ReportStorage {
	t.Helper()

	logger := common.GetLogger()
	db, err := NewBadgerDB(logger, &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewReportStorage(db, logger)
}

func sampleReport(createdAt time.Time) *models.ScanReport {
	return &models.ScanReport{
		ID:            uuid.New().String(),
		Root:          "/apps/demo.apk",
		CreatedAt:     createdAt,
		FileCount:     3,
		DetectedCount: 1,
		Files: []models.FileRecord{{
			Folder:     "lib/arm64-v8a",
			Name:       "libflutter.so",
			Size:       4096,
			Framework:  "Flutter",
			Confidence: 0.9,
			RuleIDs:    []string{"flutter-engine"},
			Metadata:   map[string]any{"dartVersion": "2.19.6"},
		}},
		Frameworks: []models.FrameworkStat{{Type: "Flutter", FileCount: 1, TotalSize: 4096}},
	}
}

func TestReportStorage_SaveAndGet(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	report := sampleReport(time.Now().UTC())
	require.NoError(t, storage.SaveReport(ctx, report))

	loaded, err := storage.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, report.Root, loaded.Root)
	assert.Equal(t, report.FileCount, loaded.FileCount)
	require.Len(t, loaded.Files, 1)
	assert.Equal(t, "Flutter", loaded.Files[0].Framework)
	assert.Equal(t, "2.19.6", loaded.Files[0].Metadata["dartVersion"])
}

func TestReportStorage_SaveRequiresID(t *testing.T) {
	storage := newTestStorage(t)

	report := sampleReport(time.Now().UTC())
	report.ID = ""
	require.Error(t, storage.SaveReport(context.Background(), report))
}

func TestReportStorage_SaveIsUpsert(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	report := sampleReport(time.Now().UTC())
	require.NoError(t, storage.SaveReport(ctx, report))

	report.DetectedCount = 2
	require.NoError(t, storage.SaveReport(ctx, report))

	loaded, err := storage.GetReport(ctx, report.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.DetectedCount)

	reports, err := storage.ListReports(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestReportStorage_GetMissing(t *testing.T) {
	storage := newTestStorage(t)

	_, err := storage.GetReport(context.Background(), "no-such-report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReportStorage_ListReports(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		report := sampleReport(base.Add(time.Duration(i) * time.Hour))
		ids = append(ids, report.ID)
		require.NoError(t, storage.SaveReport(ctx, report))
	}

	t.Run("newest first", func(t *testing.T) {
		reports, err := storage.ListReports(ctx, 0)
		require.NoError(t, err)
		require.Len(t, reports, 3)
		assert.Equal(t, ids[2], reports[0].ID)
		assert.Equal(t, ids[0], reports[2].ID)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		reports, err := storage.ListReports(ctx, 2)
		require.NoError(t, err)
		require.Len(t, reports, 2)
		assert.Equal(t, ids[2], reports[0].ID)
	})
}
