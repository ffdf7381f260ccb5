// -----------------------------------------------------------------------
// Metadata Extractor - Fills a field map from a matched rule's metadata
// rules, via named custom extractors or declarative regex patterns
// -----------------------------------------------------------------------

package detection

import (
	"context"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stackscan/internal/models"
)

// MetadataExtractor resolves metadata rules against candidate files.
type MetadataExtractor struct {
	registry *ExtractorRegistry
	logger   arbor.ILogger
}

// NewMetadataExtractor creates a metadata extractor backed by the given
// custom extractor registry.
func NewMetadataExtractor(registry *ExtractorRegistry, logger arbor.ILogger) *MetadataExtractor {
	return &MetadataExtractor{registry: registry, logger: logger}
}

// Extract applies every metadata rule to the file and returns the field
// map. Nil extractor results and zero-match patterns omit the field
// rather than storing a null. Failures are logged and degrade to an
// omitted field, never an error for the caller.
func (e *MetadataExtractor) Extract(ctx context.Context, rules []models.MetadataRule, file *models.CandidateFile) map[string]any {
	if len(rules) == 0 {
		return nil
	}

	fields := make(map[string]any)
	for i := range rules {
		rule := &rules[i]

		if rule.Extractor != "" {
			if value := e.invoke(ctx, rule.Extractor, file, nil); value != nil {
				fields[rule.Field] = value
			}
			continue
		}

		if value := e.applyPatterns(ctx, rule, file); value != nil {
			fields[rule.Field] = value
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// invoke runs a named custom extractor. An unregistered name is a
// configuration warning, not a fault.
func (e *MetadataExtractor) invoke(ctx context.Context, name string, file *models.CandidateFile, pattern *models.MetadataPattern) any {
	fn, ok := e.registry.Get(name)
	if !ok {
		if e.logger != nil {
			e.logger.Warn().Str("extractor", name).Msg("Unregistered custom extractor referenced by metadata rule, omitting field")
		}
		return nil
	}

	value, err := fn(ctx, file, pattern)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn().Err(err).Str("extractor", name).Str("file", file.Name).Msg("Custom extractor failed, omitting field")
		}
		return nil
	}
	return value
}

// applyPatterns runs each metadata pattern and coalesces the collected
// capture-group values: none omits the field, one yields a scalar, more
// yield a slice. A pattern-level extractor override takes precedence
// over the pattern's own regex.
func (e *MetadataExtractor) applyPatterns(ctx context.Context, rule *models.MetadataRule, file *models.CandidateFile) any {
	var values []string

	for i := range rule.Patterns {
		pattern := &rule.Patterns[i]

		if pattern.Extractor != "" {
			if value := e.invoke(ctx, pattern.Extractor, file, pattern); value != nil {
				return value
			}
			continue
		}

		if pattern.Regex == "" {
			continue
		}
		re, err := regexp.Compile(pattern.Regex)
		if err != nil {
			if e.logger != nil {
				e.logger.Warn().Err(err).Str("field", rule.Field).Msg("Invalid metadata pattern regex, skipping")
			}
			continue
		}

		subject := patternSource(pattern, file)
		for _, m := range re.FindAllStringSubmatch(subject, -1) {
			if pattern.Group >= len(m) {
				continue
			}
			values = append(values, transform(m[pattern.Group], pattern.Transform))
		}
	}

	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}

// patternSource selects the string the pattern matches against.
func patternSource(pattern *models.MetadataPattern, file *models.CandidateFile) string {
	switch pattern.Source {
	case models.SourcePath:
		return file.Path
	case models.SourceFilename:
		return file.Name
	default:
		return file.Text()
	}
}

// transform applies the pattern's optional value transform.
func transform(value, kind string) string {
	switch kind {
	case "trim":
		return strings.TrimSpace(value)
	case "upper":
		return strings.ToUpper(value)
	case "lower":
		return strings.ToLower(value)
	default:
		return value
	}
}
