// -----------------------------------------------------------------------
// Rule Executor - Evaluates every detection rule against one file
// Rules run concurrently under a bounded semaphore; a failing rule is
// logged and treated as a non-match so it cannot abort the file
// -----------------------------------------------------------------------

package detection

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/stackscan/internal/models"
)

// DefaultRuleConcurrency bounds concurrent rule evaluations per file.
// The workload is I/O-bound (scratch-file staging for string extraction),
// so a small multiple of the CPU count is plenty.
const DefaultRuleConcurrency = 8

// RuleExecutor runs detection rules concurrently for one file at a time.
// There is no shared mutable state across rule evaluations, so no locks
// are needed beyond the completion barrier.
type RuleExecutor struct {
	matchers    *MatcherSet
	metadata    *MetadataExtractor
	concurrency int
	logger      arbor.ILogger
}

// NewRuleExecutor creates an executor. concurrency <= 0 falls back to
// DefaultRuleConcurrency.
func NewRuleExecutor(matchers *MatcherSet, metadata *MetadataExtractor, concurrency int, logger arbor.ILogger) *RuleExecutor {
	if concurrency <= 0 {
		concurrency = DefaultRuleConcurrency
	}
	return &RuleExecutor{
		matchers:    matchers,
		metadata:    metadata,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ExecuteRules evaluates every detection rule against the file: match,
// then extract metadata, then combine the rule's declared confidence with
// the matcher's graded confidence. Non-matches are filtered out. Results
// keep rule declaration order; completion order never leaks into output.
func (x *RuleExecutor) ExecuteRules(ctx context.Context, rules []models.DetectionRule, file *models.CandidateFile) []models.DetectionResult {
	slots := make([]*models.DetectionResult, len(rules))
	sem := make(chan struct{}, x.concurrency)
	done := make(chan struct{})

	for i := range rules {
		sem <- struct{}{}
		go func(idx int, rule *models.DetectionRule) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4096)
					n := runtime.Stack(buf, false)
					if x.logger != nil {
						x.logger.Warn().
							Str("rule_id", rule.ID).
							Str("panic", fmt.Sprintf("%v", r)).
							Str("stack", string(buf[:n])).
							Msg("Recovered from panic during rule evaluation, treating as non-match")
					}
				}
				<-sem
				done <- struct{}{}
			}()
			slots[idx] = x.executeRule(ctx, rule, file)
		}(i, &rules[i])
	}

	for range rules {
		<-done
	}

	results := make([]models.DetectionResult, 0, len(rules))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	return results
}

// executeRule evaluates one rule. Errors are contained here: a malformed
// rule is logged with its id and resolves to a non-match for this file.
func (x *RuleExecutor) executeRule(ctx context.Context, rule *models.DetectionRule, file *models.CandidateFile) *models.DetectionResult {
	match, err := x.matchers.MatchRules(rule.FileRules, file)
	if err != nil {
		if x.logger != nil {
			x.logger.Warn().Err(err).Str("rule_id", rule.ID).Str("file", file.Name).Msg("Rule matching failed, treating as non-match")
		}
		return nil
	}
	if !match.Matched {
		return nil
	}

	confidence := rule.Confidence
	if match.Graded {
		confidence = rule.Confidence * match.Confidence
	}

	return &models.DetectionResult{
		Type:       rule.Type,
		Confidence: confidence,
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Metadata:   x.metadata.Extract(ctx, rule.MetadataRules, file),
	}
}
