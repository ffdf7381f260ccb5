package models

import "time"

// DetectionResult is one matching rule's verdict for one file.
// A file may carry zero, one or many of these; a file can legitimately
// sit in more than one framework's signature space.
type DetectionResult struct {
	Type       string         `json:"type"`
	Confidence float64        `json:"confidence"`
	RuleID     string         `json:"rule_id"`
	RuleName   string         `json:"rule_name"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// FileDetectionResult pairs a candidate file with its detections,
// ordered by descending confidence.
type FileDetectionResult struct {
	Folder     string            `json:"folder"`
	Name       string            `json:"name"`
	Size       int64             `json:"size"`
	Detections []DetectionResult `json:"detections"`
}

// FileRecord is the adapted, report-facing view of one detected file:
// a single primary framework plus the merged metadata of every rule
// that matched.
type FileRecord struct {
	Folder     string         `json:"folder"`
	Name       string         `json:"name"`
	Size       int64          `json:"size"`
	Framework  string         `json:"framework"`
	Confidence float64        `json:"confidence"`
	RuleIDs    []string       `json:"rule_ids"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// FrameworkStat aggregates files attributed to one framework.
type FrameworkStat struct {
	Type      string `json:"type"`
	FileCount int    `json:"file_count"`
	TotalSize int64  `json:"total_size"`
}

// ScanReport is the persisted outcome of one analysis run.
type ScanReport struct {
	ID            string          `json:"id" badgerhold:"key"`
	Root          string          `json:"root"`
	CreatedAt     time.Time       `json:"created_at"`
	FileCount     int             `json:"file_count"`
	DetectedCount int             `json:"detected_count"`
	Files         []FileRecord    `json:"files"`
	Frameworks    []FrameworkStat `json:"frameworks"`
}
