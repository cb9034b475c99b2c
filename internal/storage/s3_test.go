package storage

import (
	"encoding/json"
	"testing"
)

func TestNewS3Client_RequiresBucket(t *testing.T) {
	if _, err := NewS3Client("", "prefix", "eu-west-1"); err == nil {
		t.Error("Expected error when bucket is empty")
	}
}

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{"no prefix", "", "report.json", "report.json"},
		{"with prefix", "team-a", "report.json", "team-a/report.json"},
		{"leading slash trimmed", "team-a", "/report.json", "team-a/report.json"},
		{"nested key", "team-a", "compliance/run1/report.json", "team-a/compliance/run1/report.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewS3Client("bucket", tt.prefix, "eu-west-1")
			if err != nil {
				t.Fatalf("NewS3Client failed: %v", err)
			}
			if got := client.buildKey(tt.key); got != tt.want {
				t.Errorf("buildKey(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGetS3URI(t *testing.T) {
	client, err := NewS3Client("compliance-bucket", "team-a", "eu-west-1")
	if err != nil {
		t.Fatalf("NewS3Client failed: %v", err)
	}

	want := "s3://compliance-bucket/team-a/report.json"
	if got := client.GetS3URI("report.json"); got != want {
		t.Errorf("GetS3URI = %q, want %q", got, want)
	}
}

func TestReportManifestJSON(t *testing.T) {
	manifest := ReportManifest{
		Timestamp:               "2025-01-01T00:00:00Z",
		RunID:                   "compliance_20250101_000000",
		DeploymentEnv:           "NPE",
		TotalResourcesInPlan:    5,
		ExcludedResources:       1,
		AnalyzedResources:       4,
		ResourcesWithViolations: 2,
		SourceType:              "local",
		SourcePath:              "plan.json",
	}
	manifest.Files.Report = "compliance/run/report.json"
	manifest.Files.Manifest = "compliance/run/manifest.json"

	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if decoded["run_id"] != "compliance_20250101_000000" {
		t.Errorf("run_id = %v", decoded["run_id"])
	}
	if decoded["deployment_environment_mode"] != "NPE" {
		t.Errorf("deployment_environment_mode = %v", decoded["deployment_environment_mode"])
	}
	files, ok := decoded["files"].(map[string]interface{})
	if !ok || files["report"] != "compliance/run/report.json" {
		t.Errorf("files = %v", decoded["files"])
	}
}
