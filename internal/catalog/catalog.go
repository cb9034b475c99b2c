package catalog

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// GlobalRuleSet is the reserved resource-type key whose rules apply to every
// resource type unless overridden by a type-specific rule with the same tag key.
const GlobalRuleSet = "global"

// Rule describes one tag requirement. Rules are immutable once the catalog
// is constructed.
type Rule struct {
	Key             string   `yaml:"key"`
	AllowedValues   []string `yaml:"allowed_values,omitempty"`
	ValueRegex      string   `yaml:"value_regex,omitempty"`
	KeyRegex        string   `yaml:"key_regex,omitempty"`
	CaseInsensitive bool     `yaml:"case_insensitive,omitempty"`
	Suggestion      string   `yaml:"suggestion,omitempty"`
	Description     string   `yaml:"description,omitempty"`
}

// TagCondition is one side of a cross-tag rule: a tag key with a required value.
type TagCondition struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// CrossTagRule is a conditional constraint within one resource type: when the
// resource carries IfTag with the matching value, ThenTag must also match.
type CrossTagRule struct {
	IfTag   TagCondition `yaml:"if_tag"`
	ThenTag TagCondition `yaml:"then_tag"`
	Message string       `yaml:"message"`
}

// ExclusionRule skips a resource type from evaluation entirely, optionally
// narrowed to instances whose local name matches NameRegex.
type ExclusionRule struct {
	Type      string `yaml:"type"`
	NameRegex string `yaml:"name_regex,omitempty"`
}

// EnvProfile holds the Environment tag settings for one deployment mode.
type EnvProfile struct {
	AllowedValues []string `yaml:"allowed_values"`
	Suggestion    string   `yaml:"suggestion"`
}

// Catalog is the resolved, read-only rule set for a run. Construct it once at
// startup with New; it is never mutated afterwards.
type Catalog struct {
	mandatory         map[string][]Rule
	optional          []Rule
	exclusions        []ExclusionRule
	exclusionPatterns []*regexp.Regexp
	crossTag          map[string][]CrossTagRule
	mode              string
}

// ModeFromEnv resolves the deployment mode from the DEPLOYMENT_ENV environment
// variable. PROD selects the production Environment-tag profile; anything else
// (including unset) is treated as NPE.
func ModeFromEnv() string {
	mode := strings.ToUpper(os.Getenv("DEPLOYMENT_ENV"))
	if mode != "PROD" {
		return "NPE"
	}
	return mode
}

// New builds a Catalog from a configuration and a deployment mode. The
// Environment rule in the global set is rewritten with the mode's allowed
// values and suggestion. Exclusion name patterns are compiled up front; an
// invalid pattern is a configuration error.
func New(cfg Config, mode string) (*Catalog, error) {
	if mode != "PROD" {
		mode = "NPE"
	}

	profile, ok := cfg.Environment[mode]
	if !ok {
		profile = cfg.Environment["NPE"]
	}

	mandatory := make(map[string][]Rule, len(cfg.Mandatory))
	for resourceType, rules := range cfg.Mandatory {
		resolved := make([]Rule, len(rules))
		copy(resolved, rules)
		if resourceType == GlobalRuleSet {
			for i, rule := range resolved {
				if rule.Key == "Environment" && len(profile.AllowedValues) > 0 {
					resolved[i].AllowedValues = append([]string(nil), profile.AllowedValues...)
					resolved[i].Suggestion = profile.Suggestion
				}
			}
		}
		mandatory[resourceType] = resolved
	}

	patterns := make([]*regexp.Regexp, len(cfg.Exclusions))
	for i, exclusion := range cfg.Exclusions {
		if exclusion.NameRegex == "" {
			continue
		}
		pattern, err := regexp.Compile(exclusion.NameRegex)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern in exclusions[%d]: %w", i, err)
		}
		patterns[i] = pattern
	}

	crossTag := make(map[string][]CrossTagRule, len(cfg.CrossTag))
	for resourceType, rules := range cfg.CrossTag {
		crossTag[resourceType] = append([]CrossTagRule(nil), rules...)
	}

	return &Catalog{
		mandatory:         mandatory,
		optional:          append([]Rule(nil), cfg.Optional...),
		exclusions:        append([]ExclusionRule(nil), cfg.Exclusions...),
		exclusionPatterns: patterns,
		crossTag:          crossTag,
		mode:              mode,
	}, nil
}

// Mode returns the deployment mode the catalog was resolved for.
func (c *Catalog) Mode() string {
	return c.mode
}

// ResolveMandatoryRules merges the global rules with the resource-type-specific
// rules. On a tag-key collision the type-specific rule wins. The result
// contains exactly one rule per key and is a copy the caller may keep.
func (c *Catalog) ResolveMandatoryRules(resourceType string) []Rule {
	globalRules := c.mandatory[GlobalRuleSet]
	typeRules := c.mandatory[resourceType]

	merged := make([]Rule, 0, len(globalRules)+len(typeRules))
	index := make(map[string]int, len(globalRules)+len(typeRules))

	for _, rule := range globalRules {
		if i, seen := index[rule.Key]; seen {
			merged[i] = rule
			continue
		}
		index[rule.Key] = len(merged)
		merged = append(merged, rule)
	}
	for _, rule := range typeRules {
		if i, seen := index[rule.Key]; seen {
			merged[i] = rule
			continue
		}
		index[rule.Key] = len(merged)
		merged = append(merged, rule)
	}

	return merged
}

// ResolveOptionalRules returns a copy of the optional rules. Optional rules
// are global only.
func (c *Catalog) ResolveOptionalRules() []Rule {
	return append([]Rule(nil), c.optional...)
}

// CrossTagRules returns the cross-tag rules registered for a resource type.
func (c *Catalog) CrossTagRules(resourceType string) []CrossTagRule {
	return append([]CrossTagRule(nil), c.crossTag[resourceType]...)
}

// IsExcluded reports whether a resource should be skipped entirely. A resource
// is excluded when its type matches an exclusion rule and the rule either has
// no name pattern or the pattern matches the resource's local name.
func (c *Catalog) IsExcluded(resourceType, resourceName string) bool {
	for i, exclusion := range c.exclusions {
		if exclusion.Type != resourceType {
			continue
		}
		if exclusion.NameRegex == "" {
			return true
		}
		if c.exclusionPatterns[i] != nil && c.exclusionPatterns[i].MatchString(resourceName) {
			return true
		}
	}
	return false
}
