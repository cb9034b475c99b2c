package evaluate

import (
	"strings"
	"testing"

	"terraform-tag-compliance/internal/catalog"
)

func testCatalog(t *testing.T, mode string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(catalog.Default(), mode)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	return cat
}

func compliantNPETags() map[string]string {
	return map[string]string{
		"Application": "MyApp",
		"Environment": "Non-production::DEV",
		"Owner":       "team@example.com",
	}
}

func missingKeys(violations []Violation) []string {
	keys := make([]string, len(violations))
	for i, v := range violations {
		keys[i] = v.Key
	}
	return keys
}

func TestEvaluate_CompliantResource(t *testing.T) {
	e := New(testCatalog(t, "NPE"))

	result := e.Evaluate(compliantNPETags(), "aws_sqs_queue", "aws_sqs_queue.jobs")
	if result.HasViolations() {
		t.Errorf("Expected no violations, got %+v", result)
	}
}

func TestEvaluate_MissingMandatory(t *testing.T) {
	e := New(testCatalog(t, "NPE"))

	result := e.Evaluate(map[string]string{"Application": "MyApp"}, "aws_sqs_queue", "aws_sqs_queue.jobs")
	keys := missingKeys(result.MissingMandatory)
	if len(keys) != 2 || keys[0] != "Environment" || keys[1] != "Owner" {
		t.Errorf("MissingMandatory keys = %v, want [Environment Owner]", keys)
	}

	for _, v := range result.MissingMandatory {
		if v.Key == "Owner" && v.Suggestion != "your-email@example.com" {
			t.Errorf("Owner suggestion = %q", v.Suggestion)
		}
	}
}

func TestEvaluate_CaseInsensitiveAllowedValues(t *testing.T) {
	e := New(testCatalog(t, "NPE"))

	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"exact case", "MyApp", true},
		{"lower case accepted", "myapp", true},
		{"upper case accepted", "MYAPP", true},
		{"unlisted value rejected", "OtherApp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := compliantNPETags()
			tags["Application"] = tt.value
			result := e.Evaluate(tags, "aws_sqs_queue", "aws_sqs_queue.jobs")
			if tt.valid && len(result.Invalid) != 0 {
				t.Errorf("Expected valid, got %+v", result.Invalid)
			}
			if !tt.valid {
				if len(result.Invalid) != 1 {
					t.Fatalf("Expected 1 invalid, got %+v", result.Invalid)
				}
				v := result.Invalid[0]
				if v.Key != "Application" || v.Value != tt.value || v.Reason != "Invalid value" {
					t.Errorf("Unexpected violation: %+v", v)
				}
				if !v.CaseInsensitive || len(v.Allowed) != 3 {
					t.Errorf("Violation should echo the allowed set: %+v", v)
				}
			}
		})
	}
}

func TestEvaluate_EnvironmentByMode(t *testing.T) {
	tags := compliantNPETags()

	npe := New(testCatalog(t, "NPE")).Evaluate(tags, "aws_sqs_queue", "aws_sqs_queue.jobs")
	if npe.HasViolations() {
		t.Errorf("NPE mode should accept Non-production::DEV, got %+v", npe)
	}

	prod := New(testCatalog(t, "PROD")).Evaluate(tags, "aws_sqs_queue", "aws_sqs_queue.jobs")
	if len(prod.Invalid) != 1 || prod.Invalid[0].Key != "Environment" {
		t.Fatalf("PROD mode should reject Non-production::DEV, got %+v", prod.Invalid)
	}
	if prod.Invalid[0].Suggestion != "Production::PRD" {
		t.Errorf("Suggestion = %q, want Production::PRD", prod.Invalid[0].Suggestion)
	}
}

func TestEvaluate_KeyRegex(t *testing.T) {
	cfg := catalog.Default()
	cfg.Mandatory[catalog.GlobalRuleSet] = []catalog.Rule{
		{Key: "app-name", KeyRegex: "^[a-zA-Z]+$", Suggestion: "AppName"},
	}
	cat, err := catalog.New(cfg, "NPE")
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}

	result := New(cat).Evaluate(map[string]string{"app-name": "x"}, "aws_sqs_queue", "aws_sqs_queue.jobs")
	if len(result.Invalid) != 1 {
		t.Fatalf("Expected 1 invalid, got %+v", result.Invalid)
	}
	if result.Invalid[0].Reason != "Invalid key format" || result.Invalid[0].KeyRegex != "^[a-zA-Z]+$" {
		t.Errorf("Unexpected violation: %+v", result.Invalid[0])
	}
}

func TestEvaluate_ValueRegexMatchesAtStart(t *testing.T) {
	cfg := catalog.Default()
	cfg.Mandatory[catalog.GlobalRuleSet] = []catalog.Rule{
		{Key: "Retention", ValueRegex: `\d+d`},
	}
	cat, err := catalog.New(cfg, "NPE")
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	e := New(cat)

	// The pattern is unanchored but must still match from the first character.
	ok := e.Evaluate(map[string]string{"Retention": "30days"}, "aws_sqs_queue", "a")
	if len(ok.Invalid) != 0 {
		t.Errorf("Prefix match should pass, got %+v", ok.Invalid)
	}

	bad := e.Evaluate(map[string]string{"Retention": "keep 30d"}, "aws_sqs_queue", "a")
	if len(bad.Invalid) != 1 {
		t.Errorf("Mid-string match must not pass, got %+v", bad.Invalid)
	}
}

func TestEvaluate_InvalidRegexFailsClosed(t *testing.T) {
	cfg := catalog.Default()
	cfg.Mandatory[catalog.GlobalRuleSet] = []catalog.Rule{
		{Key: "Team", ValueRegex: "("},
	}
	cat, err := catalog.New(cfg, "NPE")
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	e := New(cat)

	for i := 0; i < 2; i++ {
		result := e.Evaluate(map[string]string{"Team": "platform"}, "aws_sqs_queue", "a")
		if len(result.Invalid) != 1 {
			t.Fatalf("Invalid pattern must reject the value, got %+v", result.Invalid)
		}
	}
}

func TestEvaluate_CrossTag(t *testing.T) {
	e := New(testCatalog(t, "NPE"))

	tests := []struct {
		name      string
		tags      map[string]string
		wantError bool
	}{
		{
			name:      "trigger present and dependent missing",
			tags:      map[string]string{"sensitivity": "critical"},
			wantError: true,
		},
		{
			name:      "trigger present and dependent wrong",
			tags:      map[string]string{"sensitivity": "critical", "Classification": "Internal"},
			wantError: true,
		},
		{
			name: "trigger present and dependent correct",
			tags: map[string]string{"sensitivity": "critical", "Classification": "Strictly Confidential"},
		},
		{
			name: "trigger has different value",
			tags: map[string]string{"sensitivity": "low"},
		},
		{
			name: "trigger absent",
			tags: map[string]string{"Classification": "Internal"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := e.Evaluate(tt.tags, "aws_s3_bucket", "aws_s3_bucket.data")
			if tt.wantError {
				if len(result.CrossTagErrors) != 1 {
					t.Fatalf("Expected 1 cross-tag error, got %v", result.CrossTagErrors)
				}
				if !strings.HasSuffix(result.CrossTagErrors[0], "(Expected 'Classification=Strictly Confidential')") {
					t.Errorf("Message should carry the expected pair: %q", result.CrossTagErrors[0])
				}
			} else if len(result.CrossTagErrors) != 0 {
				t.Errorf("Expected no cross-tag errors, got %v", result.CrossTagErrors)
			}
		})
	}
}

func TestEvaluate_OptionalOnlyGapsAreNotViolations(t *testing.T) {
	e := New(testCatalog(t, "NPE"))

	result := e.Evaluate(compliantNPETags(), "aws_sqs_queue", "aws_sqs_queue.jobs")
	if result.HasViolations() {
		t.Errorf("Optional gaps must not count as violations: %+v", result)
	}
	if !result.HasSuggestions() {
		t.Error("Expected optional-tag suggestions")
	}
	keys := missingKeys(result.MissingOptional)
	if len(keys) != 3 {
		t.Errorf("MissingOptional keys = %v", keys)
	}
}

func TestEvaluate_OptionalCaseInsensitiveLookup(t *testing.T) {
	e := New(testCatalog(t, "NPE"))

	tags := compliantNPETags()
	tags["terraform"] = "true"
	result := e.Evaluate(tags, "aws_sqs_queue", "aws_sqs_queue.jobs")

	for _, v := range result.MissingOptional {
		if v.Key == "Terraform" {
			t.Error("Lowercase terraform tag should satisfy the case-insensitive Terraform rule")
		}
	}
}
