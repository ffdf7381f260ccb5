// Package scanner walks an extracted application archive directory and
// produces the candidate files handed to the detection engine. Archive
// unpacking itself is the caller's concern.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stackscan/internal/models"
)

// DefaultMaxContentBytes bounds how much file content is loaded into
// memory for matching. Larger files still get filename, path, extension
// and metadata passthrough treatment; content matchers degrade to
// non-matches.
const DefaultMaxContentBytes = 32 * 1024 * 1024

// Scanner produces candidate files from an extracted archive directory.
type Scanner struct {
	maxContentBytes int64
	logger          arbor.ILogger
}

// New creates a scanner. maxContentBytes <= 0 falls back to
// DefaultMaxContentBytes.
func New(maxContentBytes int64, logger arbor.ILogger) *Scanner {
	if maxContentBytes <= 0 {
		maxContentBytes = DefaultMaxContentBytes
	}
	return &Scanner{maxContentBytes: maxContentBytes, logger: logger}
}

// ScanFile builds a single candidate file from path, with content loaded
// up to the size bound. The file's own directory becomes its folder.
func (s *Scanner) ScanFile(path string) (*models.CandidateFile, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	file := &models.CandidateFile{
		Folder: filepath.ToSlash(filepath.Dir(path)),
		Name:   filepath.Base(path),
		Path:   filepath.ToSlash(path),
		Size:   fi.Size(),
	}
	modified := fi.ModTime()
	file.ModifiedAt = &modified

	if fi.Size() <= s.maxContentBytes {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		file.Content = content
	}

	return file, nil
}

// Scan walks root and returns one candidate file per regular file, in
// walk order. Content is loaded for files up to the size bound.
func (s *Scanner) Scan(root string) ([]*models.CandidateFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	var files []*models.CandidateFile
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if s.logger != nil {
				s.logger.Warn().Err(walkErr).Str("path", path).Msg("Skipping unreadable entry")
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		fi, err := entry.Info()
		if err != nil {
			if s.logger != nil {
				s.logger.Warn().Err(err).Str("path", path).Msg("Skipping file without stat info")
			}
			return nil
		}

		file := &models.CandidateFile{
			Folder: filepath.ToSlash(filepath.Dir(rel)),
			Name:   entry.Name(),
			Path:   rel,
			Size:   fi.Size(),
		}
		modified := fi.ModTime()
		file.ModifiedAt = &modified

		if fi.Size() <= s.maxContentBytes {
			content, err := os.ReadFile(path)
			if err != nil {
				if s.logger != nil {
					s.logger.Warn().Err(err).Str("path", path).Msg("Failed to read file content, matching on name only")
				}
			} else {
				file.Content = content
			}
		} else if s.logger != nil {
			s.logger.Debug().Str("path", rel).Int64("size", fi.Size()).Msg("Content not loaded, file exceeds size bound")
		}

		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk scan root %s: %w", root, err)
	}

	return files, nil
}
