// -----------------------------------------------------------------------
// Matcher Set - Pure predicates evaluating one FileRule against one file
// Dispatch is a kind->func table built at construction; new kinds can be
// registered without touching callers
// -----------------------------------------------------------------------

package detection

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stackscan/internal/models"
)

// MatchResult is the outcome of one matcher evaluation. Graded is true
// only when the matcher produced a non-boolean confidence (content kind);
// ungraded matches report confidence 1.0.
type MatchResult struct {
	Matched    bool
	Confidence float64
	Graded     bool
}

// MatcherFunc evaluates one file rule against one candidate file.
// Errors signal a malformed rule (bad regex, bad signature); they are
// caught per detection rule at the executor boundary.
type MatcherFunc func(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error)

// MatcherSet dispatches file rules to matcher functions by kind name.
type MatcherSet struct {
	kinds  map[string]MatcherFunc
	logger arbor.ILogger
}

// NewMatcherSet builds a matcher set with the six built-in kinds registered.
func NewMatcherSet(logger arbor.ILogger) *MatcherSet {
	m := &MatcherSet{
		kinds:  make(map[string]MatcherFunc),
		logger: logger,
	}
	m.Register(models.MatcherKindFilename, matchFilename)
	m.Register(models.MatcherKindPath, matchPath)
	m.Register(models.MatcherKindExtension, matchExtension)
	m.Register(models.MatcherKindMagic, matchMagic)
	m.Register(models.MatcherKindContent, matchContent)
	m.Register(models.MatcherKindCombined, m.matchCombined)
	return m
}

// Register adds a matcher kind. Registering an existing kind replaces it.
func (m *MatcherSet) Register(kind string, fn MatcherFunc) {
	m.kinds[kind] = fn
}

// Match dispatches a file rule to its matcher kind. An unknown kind is a
// configuration warning and resolves to a non-match, never a fault.
func (m *MatcherSet) Match(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	fn, ok := m.kinds[rule.Kind]
	if !ok {
		if m.logger != nil {
			m.logger.Warn().Str("kind", rule.Kind).Msg("Unknown matcher kind in rule configuration, treating as non-match")
		}
		return MatchResult{}, nil
	}
	return fn(rule, file)
}

// matchFilename tests the rule's patterns against the bare filename.
func matchFilename(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	return matchRegexList(rule.Patterns, file.Name)
}

// matchPath tests the rule's patterns against the full relative path.
func matchPath(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	return matchRegexList(rule.Patterns, file.Path)
}

func matchRegexList(patterns []string, subject string) (MatchResult, error) {
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return MatchResult{}, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if re.MatchString(subject) {
			return MatchResult{Matched: true, Confidence: 1.0}, nil
		}
	}
	return MatchResult{}, nil
}

// matchExtension does an exact case-insensitive suffix match against the
// declared extension list.
func matchExtension(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	name := strings.ToLower(file.Name)
	for _, ext := range rule.Extensions {
		if strings.HasSuffix(name, strings.ToLower(ext)) {
			return MatchResult{Matched: true, Confidence: 1.0}, nil
		}
	}
	return MatchResult{}, nil
}

// matchMagic tests whether the file content begins with the declared byte
// signature at the rule's offset. Absent or short content is a non-match.
func matchMagic(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	sig, err := hex.DecodeString(strings.ReplaceAll(rule.Signature, " ", ""))
	if err != nil {
		return MatchResult{}, fmt.Errorf("invalid magic signature %q: %w", rule.Signature, err)
	}
	if len(sig) == 0 {
		return MatchResult{}, nil
	}
	if !file.HasContent() || len(file.Content) < rule.Offset+len(sig) {
		return MatchResult{}, nil
	}
	if bytes.Equal(file.Content[rule.Offset:rule.Offset+len(sig)], sig) {
		return MatchResult{Matched: true, Confidence: 1.0}, nil
	}
	return MatchResult{}, nil
}

// matchContent applies the rule's patterns against the file content and
// grades the confidence: sum of declared per-pattern weights (clamped to
// [0,1]) when weights are present, otherwise the ratio of matched patterns.
// The only matcher whose confidence is not simply 1.0.
func matchContent(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	if len(rule.Patterns) == 0 || !file.HasContent() {
		return MatchResult{}, nil
	}

	text := file.Text()
	weighted := len(rule.Weights) == len(rule.Patterns)

	matched := 0
	weight := 0.0
	for i, p := range rule.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return MatchResult{}, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		if re.MatchString(text) {
			matched++
			if weighted {
				weight += rule.Weights[i]
			}
		}
	}

	if matched == 0 {
		return MatchResult{}, nil
	}

	confidence := float64(matched) / float64(len(rule.Patterns))
	if weighted {
		confidence = weight
		if confidence > 1.0 {
			confidence = 1.0
		}
	}
	return MatchResult{Matched: true, Confidence: confidence, Graded: true}, nil
}

// matchCombined recursively evaluates child rules through the same
// dispatch. AND requires all children and takes the minimum confidence;
// OR takes the first matching child.
func (m *MatcherSet) matchCombined(rule *models.FileRule, file *models.CandidateFile) (MatchResult, error) {
	if len(rule.Rules) == 0 {
		return MatchResult{}, nil
	}

	switch rule.Operator {
	case models.OperatorAnd:
		combined := MatchResult{Matched: true, Confidence: 1.0}
		for i := range rule.Rules {
			child, err := m.Match(&rule.Rules[i], file)
			if err != nil {
				return MatchResult{}, err
			}
			if !child.Matched {
				return MatchResult{}, nil
			}
			if child.Confidence < combined.Confidence {
				combined.Confidence = child.Confidence
			}
			combined.Graded = combined.Graded || child.Graded
		}
		return combined, nil

	case models.OperatorOr, "":
		for i := range rule.Rules {
			child, err := m.Match(&rule.Rules[i], file)
			if err != nil {
				return MatchResult{}, err
			}
			if child.Matched {
				return child, nil
			}
		}
		return MatchResult{}, nil

	default:
		return MatchResult{}, fmt.Errorf("invalid combined operator %q", rule.Operator)
	}
}
