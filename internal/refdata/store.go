// -----------------------------------------------------------------------
// Reference Data Store - Bundled lookup tables for built-in extractors
// Embedded defaults, with optional on-disk overrides resolved from the
// working directory or its parent
// -----------------------------------------------------------------------

package refdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
)

//go:embed data/flutter_build_ids.json
var embeddedBuildIDs []byte

//go:embed data/dart_packages.json
var embeddedPackages []byte

const (
	buildIDsFileName = "flutter_build_ids.json"
	packagesFileName = "dart_packages.json"
)

// BuildInfo is the metadata recorded for one engine build identifier.
type BuildInfo struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

// Store holds the bundled reference tables consumed by the built-in
// custom extractors: the build-identifier lookup and the published
// package name list. Read-only after Load.
type Store struct {
	buildIDs  map[string]BuildInfo
	published map[string]struct{}
}

// Load builds a store from the embedded tables. If a file with the same
// name exists in the working directory or its parent, it overrides the
// embedded copy.
func Load(logger arbor.ILogger) (*Store, error) {
	s := &Store{
		buildIDs:  make(map[string]BuildInfo),
		published: make(map[string]struct{}),
	}

	buildData := resolveOverride(buildIDsFileName, embeddedBuildIDs, logger)
	if err := json.Unmarshal(buildData, &s.buildIDs); err != nil {
		return nil, fmt.Errorf("failed to parse build identifier table: %w", err)
	}

	var packages []string
	packageData := resolveOverride(packagesFileName, embeddedPackages, logger)
	if err := json.Unmarshal(packageData, &packages); err != nil {
		return nil, fmt.Errorf("failed to parse published package list: %w", err)
	}
	for _, name := range packages {
		s.published[name] = struct{}{}
	}

	return s, nil
}

// resolveOverride returns the on-disk file content if name exists in the
// working directory or its parent, otherwise the embedded fallback.
// Both reference tables share this resolver.
func resolveOverride(name string, fallback []byte, logger arbor.ILogger) []byte {
	for _, dir := range []string{".", ".."} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if logger != nil {
			logger.Debug().Str("path", path).Msg("Using on-disk reference data override")
		}
		return data
	}
	return fallback
}

// BuildInfo looks up the metadata for a 40-hex build identifier.
func (s *Store) BuildInfo(id string) (BuildInfo, bool) {
	info, ok := s.buildIDs[id]
	return info, ok
}

// IsPublishedPackage reports whether name appears in the bundled
// published package list.
func (s *Store) IsPublishedPackage(name string) bool {
	_, ok := s.published[name]
	return ok
}
