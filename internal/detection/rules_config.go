// -----------------------------------------------------------------------
// Rule Config Loader - Parses and validates the detection rule document
// Structural errors fail fast, naming the offending rule id
// -----------------------------------------------------------------------

package detection

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/stackscan/internal/models"
)

//go:embed rules.yaml
var defaultRules []byte

// LoadRuleConfig parses the rule document at path, or the embedded
// default document when path is empty, and validates it structurally.
func LoadRuleConfig(path string) (*models.RuleConfig, error) {
	data := defaultRules
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rule configuration %s: %w", path, err)
		}
		data = fileData
	}
	return ParseRuleConfig(data)
}

// ParseRuleConfig unmarshals and validates a rule document.
func ParseRuleConfig(data []byte) (*models.RuleConfig, error) {
	var cfg models.RuleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse rule configuration: %w", err)
	}
	if err := ValidateRuleConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidateRuleConfig checks the document structure. Detection rules are
// validated individually so failures can name the offending rule id.
func ValidateRuleConfig(cfg *models.RuleConfig) error {
	validate := validator.New()

	if cfg.Version == "" {
		return fmt.Errorf("rule configuration is missing required field: version")
	}
	if len(cfg.Detections) == 0 {
		return fmt.Errorf("rule configuration has no detection rules")
	}

	for i := range cfg.Detections {
		rule := &cfg.Detections[i]
		if rule.ID == "" {
			return fmt.Errorf("detection rule at index %d is missing required field: id", i)
		}
		if err := validate.Struct(rule); err != nil {
			return fmt.Errorf("detection rule %q is invalid: %w", rule.ID, err)
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return fmt.Errorf("detection rule %q has confidence %v outside [0,1]", rule.ID, rule.Confidence)
		}
	}

	for i := range cfg.Excludes {
		if err := validate.Struct(&cfg.Excludes[i]); err != nil {
			return fmt.Errorf("exclude rule at index %d is invalid: %w", i, err)
		}
	}

	return nil
}
