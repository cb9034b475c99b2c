package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReportUploadConfig contains configuration for uploading a compliance report.
type ReportUploadConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	RunID    string
	Manifest *ReportManifest
}

// PlanDownloadConfig contains configuration for downloading a plan JSON from S3.
type PlanDownloadConfig struct {
	Bucket string
	Prefix string
	Region string
	Key    string
}

// ReportManifest contains metadata about a compliance run.
type ReportManifest struct {
	Timestamp               string `json:"timestamp"`
	RunID                   string `json:"run_id"`
	DeploymentEnv           string `json:"deployment_environment_mode"`
	TotalResourcesInPlan    int    `json:"total_resources_in_plan"`
	ExcludedResources       int    `json:"excluded_resources"`
	AnalyzedResources       int    `json:"analyzed_resources"`
	ResourcesWithViolations int    `json:"resources_with_violations"`
	RulesConfig             string `json:"rules_config,omitempty"`
	SourceType              string `json:"source_type"`
	SourcePath              string `json:"source_path,omitempty"`
	Files                   struct {
		Report   string `json:"report"`
		Manifest string `json:"manifest"`
	} `json:"files"`
}

// UploadComplianceReport uploads the JSON report plus a run manifest under a
// per-run prefix.
func UploadComplianceReport(config ReportUploadConfig, reportJSON []byte) error {
	s3Client, err := NewS3Client(config.Bucket, config.Prefix, config.Region)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	runID := config.RunID
	if runID == "" {
		runID = fmt.Sprintf("compliance_%s", time.Now().Format("20060102_150405"))
	}

	s3Prefix := fmt.Sprintf("compliance/%s", runID)

	if config.Manifest == nil {
		config.Manifest = &ReportManifest{}
	}
	config.Manifest.RunID = runID
	if config.Manifest.Timestamp == "" {
		config.Manifest.Timestamp = time.Now().Format(time.RFC3339)
	}

	reportS3Key := fmt.Sprintf("%s/report.json", s3Prefix)
	if err := s3Client.UploadContent(reportJSON, reportS3Key); err != nil {
		return fmt.Errorf("failed to upload report: %w", err)
	}
	config.Manifest.Files.Report = reportS3Key
	fmt.Printf("Uploaded compliance report to %s\n", s3Client.GetS3URI(reportS3Key))

	manifestS3Key := fmt.Sprintf("%s/manifest.json", s3Prefix)
	config.Manifest.Files.Manifest = manifestS3Key
	manifestData, err := json.MarshalIndent(config.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := s3Client.UploadContent(manifestData, manifestS3Key); err != nil {
		return fmt.Errorf("failed to upload manifest: %w", err)
	}
	fmt.Printf("Uploaded manifest to %s\n", s3Client.GetS3URI(manifestS3Key))

	fmt.Printf("\nCompliance Package: s3://%s/%s/\n", config.Bucket, s3Prefix)
	fmt.Printf("   Run ID: %s\n", runID)
	fmt.Printf("   Timestamp: %s\n", config.Manifest.Timestamp)
	fmt.Printf("   Analyzed Resources: %d\n", config.Manifest.AnalyzedResources)
	fmt.Printf("   Resources with Violations: %d\n", config.Manifest.ResourcesWithViolations)

	return nil
}

// DownloadPlanSource downloads a plan JSON object from S3 into a temp file
// and returns the local path.
func DownloadPlanSource(config PlanDownloadConfig) (string, error) {
	s3Client, err := NewS3Client(config.Bucket, config.Prefix, config.Region)
	if err != nil {
		return "", fmt.Errorf("failed to create S3 client: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "tag-compliance-s3-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}

	localPath := filepath.Join(tmpDir, filepath.Base(config.Key))
	fmt.Printf("Downloading plan from %s\n", s3Client.GetS3URI(config.Key))
	if err := s3Client.DownloadFile(config.Key, localPath); err != nil {
		os.RemoveAll(tmpDir)
		return "", err
	}

	return localPath, nil
}
