// -----------------------------------------------------------------------
// Built-in Extractors - Framework-specific metadata from binary strings
// -----------------------------------------------------------------------

package detection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/stackscan/internal/models"
)

var (
	// Version triplet immediately followed by a stability marker, the way
	// the Dart runtime embeds its version string.
	dartVersionPattern = regexp.MustCompile(`(\d+\.\d+\.\d+)\s*\((stable|beta|dev)\)`)

	// Dart package references embedded as "package:<name>" strings.
	dartPackagePattern = regexp.MustCompile(`package:([A-Za-z0-9_]+)`)

	// 40-hex-digit build identifiers.
	hex40Pattern = regexp.MustCompile(`\b[0-9a-f]{40}\b`)
)

// symbolMarkers are runtime-specific mangling markers collected by the
// symbol signature extractor.
var symbolMarkers = []string{
	"_ZN",
	"Java_",
	"JNI_OnLoad",
	"kDartVmSnapshot",
	"kDartIsolateSnapshot",
}

// binaryStrings stages the file's in-memory content into a uniquely named
// scratch file, runs the string extractor over it, and removes the scratch
// file whether or not extraction succeeded. The extractor operates on a
// path, not a buffer, so staging is unavoidable.
func (r *ExtractorRegistry) binaryStrings(file *models.CandidateFile) ([]string, error) {
	if !file.HasContent() {
		return nil, nil
	}
	if r.strings == nil {
		return nil, fmt.Errorf("no string extractor configured")
	}

	scratch := filepath.Join(os.TempDir(), fmt.Sprintf("stackscan-%s.bin", uuid.New().String()))
	if err := os.WriteFile(scratch, file.Content, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	defer func() {
		if err := os.Remove(scratch); err != nil && r.logger != nil {
			r.logger.Warn().Err(err).Str("path", scratch).Msg("Failed to remove scratch file")
		}
	}()

	extracted, err := r.strings.Strings(scratch)
	if err != nil {
		return nil, fmt.Errorf("string extraction failed: %w", err)
	}
	return extracted, nil
}

// extractDartVersion scans binary strings for a version triplet followed
// by a stability marker and returns the triplet.
func (r *ExtractorRegistry) extractDartVersion(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	extracted, err := r.binaryStrings(file)
	if err != nil {
		return nil, err
	}
	for _, s := range extracted {
		if m := dartVersionPattern.FindStringSubmatch(s); m != nil {
			return m[1], nil
		}
	}
	return nil, nil
}

// scanPackages collects the unique package names referenced by
// "package:<name>" strings, partitioned into published and private using
// the bundled package list. Both package extractors share this scan.
func (r *ExtractorRegistry) scanPackages(file *models.CandidateFile) (published, private []string, err error) {
	extracted, err := r.binaryStrings(file)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool)
	for _, s := range extracted {
		for _, m := range dartPackagePattern.FindAllStringSubmatch(s, -1) {
			name := m[1]
			if seen[name] {
				continue
			}
			seen[name] = true
			if r.ref != nil && r.ref.IsPublishedPackage(name) {
				published = append(published, name)
			} else {
				private = append(private, name)
			}
		}
	}
	return published, private, nil
}

// extractPublishedPackages returns package names present in the bundled
// published package list.
func (r *ExtractorRegistry) extractPublishedPackages(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	published, _, err := r.scanPackages(file)
	if err != nil {
		return nil, err
	}
	if len(published) == 0 {
		return nil, nil
	}
	return published, nil
}

// extractPrivatePackages returns package names absent from the bundled
// published package list.
func (r *ExtractorRegistry) extractPrivatePackages(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	_, private, err := r.scanPackages(file)
	if err != nil {
		return nil, err
	}
	if len(private) == 0 {
		return nil, nil
	}
	return private, nil
}

// findBuildID collects every 40-hex-digit string and prefers the one
// present in the bundled build identifier table, falling back to the
// first candidate when none match.
func (r *ExtractorRegistry) findBuildID(file *models.CandidateFile) (string, error) {
	extracted, err := r.binaryStrings(file)
	if err != nil {
		return "", err
	}

	var first string
	for _, s := range extracted {
		for _, candidate := range hex40Pattern.FindAllString(s, -1) {
			if first == "" {
				first = candidate
			}
			if r.ref != nil {
				if _, ok := r.ref.BuildInfo(candidate); ok {
					return candidate, nil
				}
			}
		}
	}
	return first, nil
}

// extractBuildID returns the engine build identifier embedded in the file.
func (r *ExtractorRegistry) extractBuildID(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	id, err := r.findBuildID(file)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return id, nil
}

// extractBuildTimestamp looks up the build identifier's release timestamp
// in the bundled table. Nothing is returned when the identifier or its
// table entry is absent.
func (r *ExtractorRegistry) extractBuildTimestamp(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	id, err := r.findBuildID(file)
	if err != nil {
		return nil, err
	}
	if id == "" || r.ref == nil {
		return nil, nil
	}
	info, ok := r.ref.BuildInfo(id)
	if !ok || info.Timestamp == "" {
		return nil, nil
	}
	return info.Timestamp, nil
}

// extractSymbolSignatures collects binary strings containing any of the
// runtime mangling markers.
func (r *ExtractorRegistry) extractSymbolSignatures(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	extracted, err := r.binaryStrings(file)
	if err != nil {
		return nil, err
	}

	var hits []string
	for _, s := range extracted {
		for _, marker := range symbolMarkers {
			if strings.Contains(s, marker) {
				hits = append(hits, s)
				break
			}
		}
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return hits, nil
}

// extractLastModified passes through the candidate file's modification
// timestamp, when the scanner recorded one.
func (r *ExtractorRegistry) extractLastModified(ctx context.Context, file *models.CandidateFile, _ *models.MetadataPattern) (any, error) {
	if file.ModifiedAt == nil {
		return nil, nil
	}
	return file.ModifiedAt.UTC().Format(time.RFC3339), nil
}
