// -----------------------------------------------------------------------
// Rule Config - Declarative detection rule document model
// Loaded once at engine construction, read-only afterwards
// -----------------------------------------------------------------------

package models

// Matcher kind names accepted in a FileRule.
const (
	MatcherKindFilename  = "filename"
	MatcherKindPath      = "path"
	MatcherKindExtension = "extension"
	MatcherKindMagic     = "magic"
	MatcherKindContent   = "content"
	MatcherKindCombined  = "combined"
)

// Boolean operators for the combined matcher.
const (
	OperatorAnd = "and"
	OperatorOr  = "or"
)

// Metadata pattern source selectors.
const (
	SourceContent  = "content"
	SourcePath     = "path"
	SourceFilename = "filename"
)

// RuleConfig is the root of the detection rule document.
type RuleConfig struct {
	Version    string          `yaml:"version" validate:"required"`
	Detections []DetectionRule `yaml:"detections" validate:"required,min=1"`
	Excludes   []ExcludeRule   `yaml:"excludes" validate:"omitempty,dive"`
}

// DetectionRule is a named, weighted specification of how to recognize
// one framework in one file. Immutable once loaded.
type DetectionRule struct {
	ID            string         `yaml:"id" validate:"required"`
	Name          string         `yaml:"name" validate:"required"`
	Type          string         `yaml:"type" validate:"required"`
	Confidence    float64        `yaml:"confidence" validate:"gte=0,lte=1"`
	FileRules     []FileRule     `yaml:"fileRules" validate:"required,min=1,dive"`
	MetadataRules []MetadataRule `yaml:"metadataRules" validate:"omitempty,dive"`
}

// FileRule selects a matcher kind plus its kind-specific parameters.
// Declarative only; evaluation lives in the detection package.
type FileRule struct {
	Kind string `yaml:"kind" validate:"required"`

	// Patterns are regular expressions for the filename, path and content
	// kinds. The content kind may pair them with per-pattern Weights.
	Patterns []string  `yaml:"patterns,omitempty"`
	Weights  []float64 `yaml:"weights,omitempty" validate:"omitempty,dive,gte=0,lte=1"`

	// Extensions is the suffix list for the extension kind.
	Extensions []string `yaml:"extensions,omitempty"`

	// Signature is a hex-encoded byte signature for the magic kind,
	// tested at Offset into the file content.
	Signature string `yaml:"signature,omitempty"`
	Offset    int    `yaml:"offset,omitempty" validate:"gte=0"`

	// Operator and Rules drive the combined kind.
	Operator string     `yaml:"operator,omitempty" validate:"omitempty,oneof=and or"`
	Rules    []FileRule `yaml:"rules,omitempty"`
}

// MetadataRule names a target field and how to fill it: either a named
// custom extractor or one or more declarative patterns.
type MetadataRule struct {
	Field     string            `yaml:"field" validate:"required"`
	Extractor string            `yaml:"extractor,omitempty"`
	Patterns  []MetadataPattern `yaml:"patterns,omitempty" validate:"omitempty,dive"`
}

// MetadataPattern is one declarative extraction: a regex with a capture
// group over a selected source string, with an optional value transform.
// An Extractor override takes precedence over the regex.
type MetadataPattern struct {
	Regex     string `yaml:"regex,omitempty"`
	Group     int    `yaml:"group,omitempty" validate:"gte=0"`
	Source    string `yaml:"source,omitempty" validate:"omitempty,oneof=content path filename"`
	Transform string `yaml:"transform,omitempty" validate:"omitempty,oneof=trim upper lower"`
	Extractor string `yaml:"extractor,omitempty"`
}

// ExcludeRule skips a file entirely before any rule evaluation.
type ExcludeRule struct {
	Kind    string `yaml:"kind" validate:"required,oneof=path filename"`
	Pattern string `yaml:"pattern" validate:"required"`
}
