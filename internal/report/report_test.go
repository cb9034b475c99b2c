package report

import (
	"encoding/json"
	"strings"
	"testing"

	"terraform-tag-compliance/internal/evaluate"
)

func sampleAnalysis() evaluate.PlanAnalysis {
	return evaluate.PlanAnalysis{
		Total:    4,
		Excluded: 1,
		Analyzed: 3,
		Results: []evaluate.Result{
			{
				// Deliberately out of address order to exercise sorting.
				Address: "aws_s3_bucket.logs",
				Type:    "aws_s3_bucket",
				MissingMandatory: []evaluate.Violation{
					{Key: "DataRetention", Suggestion: "30d", Description: "Data retention policy"},
					{Key: "Classification", Suggestion: "Internal"},
				},
				MissingOptional: []evaluate.Violation{
					{Key: "CostCenter", Description: "Financial tracking code", Suggestion: "cost-center-example"},
				},
			},
			{
				Address: "aws_instance.api",
				Type:    "aws_instance",
				MissingOptional: []evaluate.Violation{
					{Key: "Project", Suggestion: "project-name"},
				},
			},
			{
				Address: "aws_instance.web",
				Type:    "aws_instance",
				Invalid: []evaluate.Violation{
					{
						Key:             "Application",
						Value:           "OtherApp",
						Reason:          "Invalid value",
						Allowed:         []string{"MyApp", "AnotherApp", "TestApp"},
						CaseInsensitive: true,
						Suggestion:      "MyApp",
					},
				},
				CrossTagErrors: []string{"Production instances MUST have 'BackupEnabled=true' tag. (Expected 'BackupEnabled=true')"},
			},
		},
	}
}

func TestBuild_SortsByAddress(t *testing.T) {
	r := Build(sampleAnalysis(), "NPE")

	want := []string{"aws_instance.api", "aws_instance.web", "aws_s3_bucket.logs"}
	for i, address := range want {
		if r.Results[i].Address != address {
			t.Errorf("Results[%d].Address = %q, want %q", i, r.Results[i].Address, address)
		}
	}
}

func TestReportCounters(t *testing.T) {
	r := Build(sampleAnalysis(), "NPE")

	if r.Violating() != 2 {
		t.Errorf("Violating() = %d, want 2", r.Violating())
	}
	if r.Compliant() != 1 {
		t.Errorf("Compliant() = %d, want 1", r.Compliant())
	}
	if !r.HasViolations() {
		t.Error("Expected HasViolations")
	}
}

func TestReport_OptionalOnlyIsCompliant(t *testing.T) {
	analysis := evaluate.PlanAnalysis{
		Total:    1,
		Analyzed: 1,
		Results: []evaluate.Result{
			{
				Address:         "aws_instance.api",
				Type:            "aws_instance",
				MissingOptional: []evaluate.Violation{{Key: "CostCenter"}},
			},
		},
	}
	r := Build(analysis, "NPE")

	if r.HasViolations() {
		t.Error("Optional-only resource must not flip the report to violating")
	}
	if r.Compliant() != 1 {
		t.Errorf("Compliant() = %d, want 1", r.Compliant())
	}

	structured := r.Structured()
	if len(structured.Violations) != 0 {
		t.Errorf("Optional-only resource must not appear in violations: %+v", structured.Violations)
	}
}

func TestStructured(t *testing.T) {
	structured := Build(sampleAnalysis(), "PROD").Structured()

	s := structured.Summary
	if s.TotalResourcesInPlan != 4 || s.ExcludedResources != 1 || s.AnalyzedResources != 3 {
		t.Errorf("Unexpected summary: %+v", s)
	}
	if s.CompliantResources != 1 || s.ResourcesWithViolations != 2 {
		t.Errorf("Unexpected summary counters: %+v", s)
	}
	if s.DeploymentEnvironmentMode != "PROD" {
		t.Errorf("Mode = %q, want PROD", s.DeploymentEnvironmentMode)
	}

	if len(structured.Violations) != 2 {
		t.Fatalf("Expected 2 violation entries, got %d", len(structured.Violations))
	}
	if structured.Violations[0].Resource != "aws_instance.web" {
		t.Errorf("Violations[0].Resource = %q", structured.Violations[0].Resource)
	}
	// Nil slices serialize as empty arrays.
	if structured.Violations[0].MissingMandatory == nil {
		t.Error("MissingMandatory should be an empty slice, not nil")
	}
}

func TestJSON(t *testing.T) {
	data, err := Build(sampleAnalysis(), "NPE").JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	var decoded struct {
		Summary struct {
			TotalResourcesInPlan int `json:"total_resources_in_plan"`
		} `json:"summary"`
		Violations []json.RawMessage `json:"violations"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.Summary.TotalResourcesInPlan != 4 {
		t.Errorf("total_resources_in_plan = %d, want 4", decoded.Summary.TotalResourcesInPlan)
	}
	if len(decoded.Violations) != 2 {
		t.Errorf("Expected 2 violations in JSON, got %d", len(decoded.Violations))
	}
}

func TestText(t *testing.T) {
	text := Build(sampleAnalysis(), "NPE").Text(false)

	for _, want := range []string{
		"--- Terraform Tag Compliance Report ---",
		"Deployment Environment Mode: NPE",
		"Total Resources in Plan: 4",
		"Excluded Resources: 1",
		"Analyzed Resources: 3",
		"Compliant Resources: 1",
		"Resources with Violations: 2",
		"--- Violation Details ---",
		"Resource: aws_s3_bucket.logs",
		"[✗] Missing Mandatory Tags:",
		"- DataRetention (Suggestion: 30d)",
		"[✗] Invalid Tag Values/Keys:",
		"Allowed (case-insensitive): [MyApp, AnotherApp, TestApp]",
		"[✗] Cross-Tag Validation Errors:",
		"--- Optional Tag Suggestions ---",
		"Resource: aws_instance.api",
		"[!] Missing Optional Tags:",
		"- Project (Example: project-name)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Report text missing %q\n%s", want, text)
		}
	}

	if strings.Contains(text, "\033[") {
		t.Error("Color disabled but escape codes present")
	}
}

func TestText_Compliant(t *testing.T) {
	analysis := evaluate.PlanAnalysis{Total: 2, Analyzed: 2, Results: []evaluate.Result{
		{Address: "aws_instance.api", Type: "aws_instance"},
		{Address: "aws_instance.web", Type: "aws_instance"},
	}}

	text := Build(analysis, "NPE").Text(false)
	if !strings.Contains(text, "✅ All analyzed resources comply with tagging requirements.") {
		t.Errorf("Missing success banner:\n%s", text)
	}
	if strings.Contains(text, "--- Violation Details ---") {
		t.Error("Compliant report must not render violation details")
	}
}

func TestText_ColorEnabled(t *testing.T) {
	analysis := evaluate.PlanAnalysis{Total: 1, Analyzed: 1, Results: []evaluate.Result{
		{Address: "aws_instance.api", Type: "aws_instance"},
	}}

	text := Build(analysis, "NPE").Text(true)
	if !strings.Contains(text, "\033[92m") {
		t.Error("Expected green escape code in colored compliant report")
	}
	if !strings.Contains(text, reset) {
		t.Error("Expected reset escape code in colored report")
	}
}

func TestText_Deterministic(t *testing.T) {
	first := Build(sampleAnalysis(), "NPE").Text(false)
	second := Build(sampleAnalysis(), "NPE").Text(false)
	if first != second {
		t.Error("Report text is not deterministic")
	}
}
