package models

import "time"

// CandidateFile is one file extracted from a scanned application archive.
// Content may be nil when the scanner skipped loading it (large files);
// matchers and extractors must treat absent content as a non-match.
type CandidateFile struct {
	Folder     string     `json:"folder"`
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Size       int64      `json:"size"`
	Content    []byte     `json:"-"`
	ModifiedAt *time.Time `json:"modified_at,omitempty"`
}

// HasContent reports whether the file content was loaded into memory.
func (f *CandidateFile) HasContent() bool {
	return len(f.Content) > 0
}

// Text returns the file content as a string for regex matching.
// Binary content is matched as-is; callers decide whether that is meaningful.
func (f *CandidateFile) Text() string {
	if f.Content == nil {
		return ""
	}
	return string(f.Content)
}
