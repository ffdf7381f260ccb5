// -----------------------------------------------------------------------
// Detection Engine - Loads the rule document once and evaluates files
// Explicitly constructed and injected; an Engine value that exists is
// initialized, so there is no runtime lifecycle check
// -----------------------------------------------------------------------

package detection

import (
	"context"
	"regexp"
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stackscan/internal/models"
)

// Options configures engine construction.
type Options struct {
	// RulesPath is the detection rule document; empty uses the embedded
	// default rules.
	RulesPath string

	// RuleConcurrency bounds concurrent rule evaluations per file.
	RuleConcurrency int

	// Registry supplies custom extractors. Required.
	Registry *ExtractorRegistry

	Logger arbor.ILogger
}

// compiledExclude pairs an exclude rule with its compiled pattern.
type compiledExclude struct {
	kind    string
	pattern *regexp.Regexp
}

// Engine is the technology-stack detection engine. Configuration is
// parsed once at construction and read-only afterwards.
type Engine struct {
	cfg      *models.RuleConfig
	excludes []compiledExclude
	executor *RuleExecutor
	logger   arbor.ILogger
}

// NewEngine loads and validates the rule document, compiles the exclude
// rules and wires the matcher set, metadata extractor and executor.
// A structurally invalid document fails construction.
func NewEngine(opts Options) (*Engine, error) {
	cfg, err := LoadRuleConfig(opts.RulesPath)
	if err != nil {
		return nil, err
	}

	matchers := NewMatcherSet(opts.Logger)
	metadata := NewMetadataExtractor(opts.Registry, opts.Logger)

	engine := &Engine{
		cfg:      cfg,
		executor: NewRuleExecutor(matchers, metadata, opts.RuleConcurrency, opts.Logger),
		logger:   opts.Logger,
	}

	for _, exclude := range cfg.Excludes {
		re, err := regexp.Compile(exclude.Pattern)
		if err != nil {
			if opts.Logger != nil {
				opts.Logger.Warn().Err(err).Str("pattern", exclude.Pattern).Msg("Invalid exclude pattern, skipping")
			}
			continue
		}
		engine.excludes = append(engine.excludes, compiledExclude{kind: exclude.Kind, pattern: re})
	}

	if opts.Logger != nil {
		opts.Logger.Info().
			Str("version", cfg.Version).
			Int("detections", len(cfg.Detections)).
			Int("excludes", len(engine.excludes)).
			Msg("Detection rule configuration loaded")
	}

	return engine, nil
}

// Rules returns the loaded detection rules.
func (e *Engine) Rules() []models.DetectionRule {
	return e.cfg.Detections
}

// DetectFile evaluates every detection rule against one file. A file
// matching any exclude rule returns an empty detections list immediately,
// skipping all rule evaluation. Detections are stable-sorted by
// descending confidence, so declaration order breaks ties.
func (e *Engine) DetectFile(ctx context.Context, file *models.CandidateFile) *models.FileDetectionResult {
	result := &models.FileDetectionResult{
		Folder: file.Folder,
		Name:   file.Name,
		Size:   file.Size,
	}

	if e.isExcluded(file) {
		return result
	}

	detections := e.executor.ExecuteRules(ctx, e.cfg.Detections, file)
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].Confidence > detections[j].Confidence
	})
	result.Detections = detections
	return result
}

// DetectFiles maps DetectFile over the input. Files are independent;
// results come back in input order.
func (e *Engine) DetectFiles(ctx context.Context, files []*models.CandidateFile) []*models.FileDetectionResult {
	results := make([]*models.FileDetectionResult, len(files))
	for i, file := range files {
		results[i] = e.DetectFile(ctx, file)
	}
	return results
}

// isExcluded reports whether any exclude rule matches the file.
func (e *Engine) isExcluded(file *models.CandidateFile) bool {
	for _, exclude := range e.excludes {
		subject := file.Path
		if exclude.kind == models.MatcherKindFilename {
			subject = file.Name
		}
		if exclude.pattern.MatchString(subject) {
			return true
		}
	}
	return false
}
