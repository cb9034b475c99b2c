// Package report renders the accumulated compliance results as a structured
// JSON document or as human-readable text. Both renderings are projections of
// the same Report value.
package report

import (
	"encoding/json"
	"sort"

	"terraform-tag-compliance/internal/evaluate"
)

// Report is the aggregate outcome of one analysis run.
type Report struct {
	Mode     string
	Total    int
	Excluded int
	Analyzed int
	// Results holds every analyzed resource, ordered by address for stable
	// output regardless of evaluation order.
	Results []evaluate.Result
}

// Build assembles a Report from a plan analysis, sorting results by resource
// address.
func Build(analysis evaluate.PlanAnalysis, mode string) *Report {
	results := make([]evaluate.Result, len(analysis.Results))
	copy(results, analysis.Results)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Address < results[j].Address
	})

	return &Report{
		Mode:     mode,
		Total:    analysis.Total,
		Excluded: analysis.Excluded,
		Analyzed: analysis.Analyzed,
		Results:  results,
	}
}

// Violating counts resources with a real violation or analysis error.
// Optional-only resources are compliant and never counted here.
func (r *Report) Violating() int {
	count := 0
	for _, result := range r.Results {
		if result.HasViolations() {
			count++
		}
	}
	return count
}

// Compliant counts analyzed resources without violations.
func (r *Report) Compliant() int {
	return r.Analyzed - r.Violating()
}

// HasViolations reports whether any resource has a real violation or analysis
// error; it decides the process exit code.
func (r *Report) HasViolations() bool {
	return r.Violating() > 0
}

// Summary is the counters section of the structured report.
type Summary struct {
	TotalResourcesInPlan      int    `json:"total_resources_in_plan"`
	ExcludedResources         int    `json:"excluded_resources"`
	AnalyzedResources         int    `json:"analyzed_resources"`
	CompliantResources        int    `json:"compliant_resources"`
	ResourcesWithViolations   int    `json:"resources_with_violations"`
	DeploymentEnvironmentMode string `json:"deployment_environment_mode"`
}

// ViolationEntry is one violating resource in the structured report.
type ViolationEntry struct {
	Resource                   string               `json:"resource"`
	MissingMandatory           []evaluate.Violation `json:"missing_mandatory"`
	InvalidTags                []evaluate.Violation `json:"invalid_tags"`
	CrossTagErrors             []string             `json:"cross_tag_errors"`
	MissingOptionalSuggestions []evaluate.Violation `json:"missing_optional_suggestions"`
	AnalysisError              string               `json:"analysis_error,omitempty"`
}

// StructuredReport is the machine-readable projection. Its violations list
// contains only resources with a real violation or analysis error;
// optional-only resources are deliberately excluded.
type StructuredReport struct {
	Summary    Summary          `json:"summary"`
	Violations []ViolationEntry `json:"violations"`
}

// Structured builds the machine-readable projection of the report.
func (r *Report) Structured() StructuredReport {
	structured := StructuredReport{
		Summary: Summary{
			TotalResourcesInPlan:      r.Total,
			ExcludedResources:         r.Excluded,
			AnalyzedResources:         r.Analyzed,
			CompliantResources:        r.Compliant(),
			ResourcesWithViolations:   r.Violating(),
			DeploymentEnvironmentMode: r.Mode,
		},
		Violations: []ViolationEntry{},
	}

	for _, result := range r.Results {
		if !result.HasViolations() {
			continue
		}
		structured.Violations = append(structured.Violations, ViolationEntry{
			Resource:                   result.Address,
			MissingMandatory:           emptyIfNil(result.MissingMandatory),
			InvalidTags:                emptyIfNil(result.Invalid),
			CrossTagErrors:             emptyStringsIfNil(result.CrossTagErrors),
			MissingOptionalSuggestions: emptyIfNil(result.MissingOptional),
			AnalysisError:              result.AnalysisError,
		})
	}

	return structured
}

// JSON renders the structured projection as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Structured(), "", "  ")
}

func emptyIfNil(violations []evaluate.Violation) []evaluate.Violation {
	if violations == nil {
		return []evaluate.Violation{}
	}
	return violations
}

func emptyStringsIfNil(messages []string) []string {
	if messages == nil {
		return []string{}
	}
	return messages
}
