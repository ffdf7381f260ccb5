// -----------------------------------------------------------------------
// Custom Extractor Registry - Named metadata extraction functions
// Append-only after construction; built-ins registered up front
// -----------------------------------------------------------------------

package detection

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stackscan/internal/interfaces"
	"github.com/ternarybob/stackscan/internal/models"
	"github.com/ternarybob/stackscan/internal/refdata"
)

// Built-in extractor names referenced by rule documents.
const (
	ExtractorDartVersion           = "dart_version"
	ExtractorDartPackagesPublished = "dart_packages_published"
	ExtractorDartPackagesPrivate   = "dart_packages_private"
	ExtractorFlutterBuildID        = "flutter_build_id"
	ExtractorFlutterBuildTimestamp = "flutter_build_timestamp"
	ExtractorSymbolSignatures      = "symbol_signatures"
	ExtractorFileLastModified      = "file_last_modified"
)

// ExtractorFunc produces a metadata value for one candidate file. A nil
// value means the field is omitted. The pattern argument carries the
// metadata pattern when the extractor was invoked as a pattern-level
// override, and is nil otherwise.
type ExtractorFunc func(ctx context.Context, file *models.CandidateFile, pattern *models.MetadataPattern) (any, error)

// ExtractorRegistry maps extractor names to extraction functions.
// Registration is append-only; there is no unregistration.
type ExtractorRegistry struct {
	mu         sync.RWMutex
	extractors map[string]ExtractorFunc

	strings interfaces.StringExtractor
	ref     *refdata.Store
	logger  arbor.ILogger
}

// NewExtractorRegistry builds a registry with every built-in extractor
// pre-registered. The string extractor and reference data store are
// injected rather than reached through globals.
func NewExtractorRegistry(stringExtractor interfaces.StringExtractor, ref *refdata.Store, logger arbor.ILogger) *ExtractorRegistry {
	r := &ExtractorRegistry{
		extractors: make(map[string]ExtractorFunc),
		strings:    stringExtractor,
		ref:        ref,
		logger:     logger,
	}

	r.extractors[ExtractorDartVersion] = r.extractDartVersion
	r.extractors[ExtractorDartPackagesPublished] = r.extractPublishedPackages
	r.extractors[ExtractorDartPackagesPrivate] = r.extractPrivatePackages
	r.extractors[ExtractorFlutterBuildID] = r.extractBuildID
	r.extractors[ExtractorFlutterBuildTimestamp] = r.extractBuildTimestamp
	r.extractors[ExtractorSymbolSignatures] = r.extractSymbolSignatures
	r.extractors[ExtractorFileLastModified] = r.extractLastModified

	return r
}

// Register adds a named extractor. Re-registering an existing name is
// rejected: the registry is append-only for the process lifetime.
func (r *ExtractorRegistry) Register(name string, fn ExtractorFunc) error {
	if name == "" {
		return fmt.Errorf("extractor name is required")
	}
	if fn == nil {
		return fmt.Errorf("extractor function is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extractors[name]; exists {
		return fmt.Errorf("extractor %q is already registered", name)
	}
	r.extractors[name] = fn
	return nil
}

// Get returns the extractor registered under name.
func (r *ExtractorRegistry) Get(name string) (ExtractorFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.extractors[name]
	return fn, ok
}

// Names returns the registered extractor names, sorted.
func (r *ExtractorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
