// Package evaluate applies the rule catalog to extracted resource tags and
// accumulates per-resource compliance results.
package evaluate

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"terraform-tag-compliance/internal/catalog"
)

// Violation is one missing-tag or invalid-tag finding with enough context for
// an actionable report entry.
type Violation struct {
	Key             string   `json:"key"`
	Value           string   `json:"value,omitempty"`
	Reason          string   `json:"reason,omitempty"`
	Allowed         []string `json:"allowed,omitempty"`
	CaseInsensitive bool     `json:"case_insensitive,omitempty"`
	Regex           string   `json:"regex,omitempty"`
	KeyRegex        string   `json:"key_regex,omitempty"`
	Suggestion      string   `json:"suggestion,omitempty"`
	Description     string   `json:"description,omitempty"`
}

// Result is the compliance outcome for one resource.
type Result struct {
	Address          string
	Type             string
	MissingMandatory []Violation
	Invalid          []Violation
	CrossTagErrors   []string
	MissingOptional  []Violation
	AnalysisError    string
	// TagsUnknown marks a resource whose tags are only known at apply time;
	// it is analyzed but never violating.
	TagsUnknown bool
}

// HasViolations reports whether the resource counts as violating. Missing
// optional tags never do; an analysis error always does.
func (r Result) HasViolations() bool {
	return len(r.MissingMandatory) > 0 || len(r.Invalid) > 0 ||
		len(r.CrossTagErrors) > 0 || r.AnalysisError != ""
}

// HasSuggestions reports whether the resource has optional-tag gaps.
func (r Result) HasSuggestions() bool {
	return len(r.MissingOptional) > 0
}

// Evaluator applies a read-only catalog to resource tags. It caches compiled
// rule patterns and warns once per invalid pattern; a pattern that does not
// compile is treated as a non-match (fail-closed).
type Evaluator struct {
	catalog  *catalog.Catalog
	patterns map[string]*regexp.Regexp
	warned   map[string]bool
}

// New creates an Evaluator over a resolved catalog.
func New(c *catalog.Catalog) *Evaluator {
	return &Evaluator{
		catalog:  c,
		patterns: make(map[string]*regexp.Regexp),
		warned:   make(map[string]bool),
	}
}

// Evaluate checks one resource's tags against the mandatory, optional, and
// cross-tag rules for its type. Exclusion filtering is the caller's job; an
// excluded resource must never reach Evaluate.
func (e *Evaluator) Evaluate(tags map[string]string, resourceType, address string) Result {
	result := Result{Address: address, Type: resourceType}

	for _, rule := range e.catalog.ResolveMandatoryRules(resourceType) {
		value, present := tags[rule.Key]
		if !present {
			result.MissingMandatory = append(result.MissingMandatory, Violation{
				Key:         rule.Key,
				Suggestion:  rule.Suggestion,
				Description: rule.Description,
			})
			continue
		}

		if rule.KeyRegex != "" && !e.matchStart(rule.KeyRegex, rule.Key, "key") {
			result.Invalid = append(result.Invalid, Violation{
				Key:        rule.Key,
				Value:      value,
				Reason:     "Invalid key format",
				KeyRegex:   rule.KeyRegex,
				Suggestion: rule.Suggestion,
			})
			continue
		}

		if !e.validValue(value, rule) {
			violation := Violation{
				Key:        rule.Key,
				Value:      value,
				Reason:     "Invalid value",
				Suggestion: rule.Suggestion,
			}
			if len(rule.AllowedValues) > 0 {
				violation.Allowed = rule.AllowedValues
				violation.CaseInsensitive = rule.CaseInsensitive
			}
			if rule.ValueRegex != "" {
				violation.Regex = rule.ValueRegex
			}
			result.Invalid = append(result.Invalid, violation)
		}
	}

	for _, rule := range e.catalog.ResolveOptionalRules() {
		value, present := lookupTag(tags, rule.Key, rule.CaseInsensitive)
		if !present {
			result.MissingOptional = append(result.MissingOptional, Violation{
				Key:         rule.Key,
				Suggestion:  rule.Suggestion,
				Description: rule.Description,
			})
			continue
		}
		// An optional tag with an invalid value is informational only and
		// never affects the compliant/violating classification.
		if !e.validValue(value, rule) {
			fmt.Fprintf(os.Stderr, "Warning [%s]: optional tag %q has invalid value %q\n", address, rule.Key, value)
		}
	}

	for _, rule := range e.catalog.CrossTagRules(resourceType) {
		ifValue, present := tags[rule.IfTag.Key]
		if !present || ifValue != rule.IfTag.Value {
			// Rule is inapplicable when the trigger tag is absent or different.
			continue
		}
		if thenValue, ok := tags[rule.ThenTag.Key]; !ok || thenValue != rule.ThenTag.Value {
			result.CrossTagErrors = append(result.CrossTagErrors,
				fmt.Sprintf("%s (Expected '%s=%s')", rule.Message, rule.ThenTag.Key, rule.ThenTag.Value))
		}
	}

	return result
}

// lookupTag finds a tag by key, case-folding the comparison when the rule
// asks for it.
func lookupTag(tags map[string]string, key string, caseInsensitive bool) (string, bool) {
	if value, ok := tags[key]; ok {
		return value, true
	}
	if !caseInsensitive {
		return "", false
	}
	folded := strings.ToLower(key)
	for k, value := range tags {
		if strings.ToLower(k) == folded {
			return value, true
		}
	}
	return "", false
}

// validValue checks a tag value against the rule's allowed values and value
// regex. Both constraints apply simultaneously when both are present.
func (e *Evaluator) validValue(value string, rule catalog.Rule) bool {
	if len(rule.AllowedValues) > 0 {
		check := value
		if rule.CaseInsensitive {
			check = strings.ToLower(check)
		}
		found := false
		for _, allowed := range rule.AllowedValues {
			if rule.CaseInsensitive {
				allowed = strings.ToLower(allowed)
			}
			if check == allowed {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if rule.ValueRegex != "" && !e.matchStart(rule.ValueRegex, value, "value") {
		return false
	}

	return true
}

// matchStart reports whether the pattern matches at the beginning of the
// string. An invalid pattern is warned about once and treated as a non-match.
func (e *Evaluator) matchStart(pattern, s, kind string) bool {
	re, ok := e.patterns[pattern]
	if !ok {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			if !e.warned[pattern] {
				e.warned[pattern] = true
				fmt.Fprintf(os.Stderr, "Warning: invalid %s regex %q: %v\n", kind, pattern, err)
			}
			e.patterns[pattern] = nil
			return false
		}
		re = compiled
		e.patterns[pattern] = compiled
	}
	if re == nil {
		return false
	}
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}
