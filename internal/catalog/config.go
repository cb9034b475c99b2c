package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the raw rule configuration, either loaded from a YAML file or
// supplied by Default. New resolves it into an immutable Catalog.
type Config struct {
	Mandatory   map[string][]Rule         `yaml:"mandatory"`
	Optional    []Rule                    `yaml:"optional"`
	Exclusions  []ExclusionRule           `yaml:"exclusions"`
	CrossTag    map[string][]CrossTagRule `yaml:"cross_tag"`
	Environment map[string]EnvProfile     `yaml:"environment"`
}

// LoadConfig reads a rule configuration from a YAML file. Sections omitted
// from the file fall back to the built-in defaults so a partial file can
// override just the rules it cares about.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal rules: %w", err)
	}

	defaults := Default()
	if cfg.Mandatory == nil {
		cfg.Mandatory = defaults.Mandatory
	}
	if cfg.Optional == nil {
		cfg.Optional = defaults.Optional
	}
	if cfg.Exclusions == nil {
		cfg.Exclusions = defaults.Exclusions
	}
	if cfg.CrossTag == nil {
		cfg.CrossTag = defaults.CrossTag
	}
	if cfg.Environment == nil {
		cfg.Environment = defaults.Environment
	}

	return cfg, nil
}

// Default returns the built-in rule configuration. It is the compiled-in
// equivalent of the shipped rules_config.yaml and is used when no rules file
// is given on the command line.
func Default() Config {
	return Config{
		Mandatory: map[string][]Rule{
			GlobalRuleSet: {
				{
					Key:             "Application",
					AllowedValues:   []string{"MyApp", "AnotherApp", "TestApp"},
					CaseInsensitive: true,
					KeyRegex:        "^[a-zA-Z]+$",
					ValueRegex:      "^(?i)(MyApp|AnotherApp|TestApp)$",
					Suggestion:      "MyApp",
				},
				{
					// AllowedValues and Suggestion are resolved per deployment
					// mode when the catalog is constructed.
					Key:      "Environment",
					KeyRegex: "^Environment$",
				},
				{
					Key:        "Owner",
					ValueRegex: `^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`,
					Suggestion: "your-email@example.com",
				},
			},
			"aws_s3_bucket": {
				{
					Key:           "DataRetention",
					AllowedValues: []string{"30d", "1y", "5y", "Indefinite"},
					Description:   "Data retention policy",
					ValueRegex:    `^(\d+[dy]|Indefinite)$`,
					Suggestion:    "30d",
				},
				{
					Key:           "Classification",
					AllowedValues: []string{"Public", "Internal", "Confidential", "Strictly Confidential"},
					Suggestion:    "Internal",
				},
			},
			"aws_instance": {
				{
					Key:         "AssetID",
					Description: "Asset identifier from CMDB",
					KeyRegex:    "^AssetID$",
					ValueRegex:  "^[a-zA-Z0-9-]+$",
					Suggestion:  "asset-id-example",
				},
			},
			"aws_rds_cluster": {
				{
					Key:           "PII",
					AllowedValues: []string{"true", "false"},
					Suggestion:    "false",
				},
			},
		},
		Optional: []Rule{
			{Key: "CostCenter", Description: "Financial tracking code", Suggestion: "cost-center-example"},
			{Key: "Project", Description: "Associated project name", Suggestion: "project-name"},
			{
				Key:             "Terraform",
				AllowedValues:   []string{"true", "false"},
				CaseInsensitive: true,
				Description:     "Indicates if the resource is managed by Terraform",
				Suggestion:      "true",
			},
		},
		Exclusions: []ExclusionRule{
			{Type: "aws_iam_role"},
			{Type: "aws_iam_policy"},
			{Type: "aws_instance", NameRegex: "^(dev|test)-"},
		},
		CrossTag: map[string][]CrossTagRule{
			"aws_instance": {
				{
					IfTag:   TagCondition{Key: "Environment", Value: "Production::PRD"},
					ThenTag: TagCondition{Key: "BackupEnabled", Value: "true"},
					Message: "Production instances MUST have 'BackupEnabled=true' tag.",
				},
			},
			"aws_s3_bucket": {
				{
					IfTag:   TagCondition{Key: "sensitivity", Value: "critical"},
					ThenTag: TagCondition{Key: "Classification", Value: "Strictly Confidential"},
					Message: "S3 Buckets with 'sensitivity=critical' MUST have 'Classification=Strictly Confidential' tag.",
				},
			},
		},
		Environment: map[string]EnvProfile{
			"PROD": {
				AllowedValues: []string{"Production::PRD"},
				Suggestion:    "Production::PRD",
			},
			"NPE": {
				AllowedValues: []string{"Non-production::DEV", "Non-production::QAT"},
				Suggestion:    "Non-production::DEV (or QAT)",
			},
		},
	}
}
