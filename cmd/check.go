package cmd

import (
	"fmt"
	"log"
	"os"

	"terraform-tag-compliance/internal/catalog"
	"terraform-tag-compliance/internal/evaluate"
	"terraform-tag-compliance/internal/plan"
	"terraform-tag-compliance/internal/report"
	"terraform-tag-compliance/internal/storage"

	"github.com/spf13/cobra"
)

var (
	rulesConfig string
	jsonOutput  bool
	jsonFile    string
	forceColor  bool
	noColor     bool

	// S3 flags
	checkS3Source bool
	checkS3Upload bool
	checkS3Bucket string
	checkS3Prefix string
	checkS3Region string
	checkS3Key    string
	checkS3RunID  string
)

var checkCmd = &cobra.Command{
	Use:   "check [plan_file]",
	Short: "Analyze a Terraform plan JSON for tag compliance",
	Long: `Analyze a Terraform plan JSON file against the tag rule catalog.

The plan must be rendered as JSON (terraform show -json <planfile>). Both the
resource_changes layout and the legacy planned_values layout are supported.

Examples:
  # Human-readable report
  tag-compliance check plan.json

  # Machine-readable report
  tag-compliance check plan.json --json

  # Custom rules file, report written to disk
  tag-compliance check plan.json --rules rules_config.yaml --json-file report.json

  # Plan stored in S3, report uploaded back
  tag-compliance check --s3-source --s3-key plans/plan.json --s3-upload`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runCheck(args)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&rulesConfig, "rules", "r", "", "Rules configuration file (YAML); built-in rules when omitted")
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output report in JSON format")
	checkCmd.Flags().StringVar(&jsonFile, "json-file", "", "Write the JSON report to a file")
	checkCmd.Flags().BoolVar(&forceColor, "color", false, "Force colored output")
	checkCmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	checkCmd.Flags().BoolVar(&checkS3Source, "s3-source", false, "Download the plan JSON from S3")
	checkCmd.Flags().BoolVar(&checkS3Upload, "s3-upload", false, "Upload the JSON report to S3")
	checkCmd.Flags().StringVar(&checkS3Bucket, "s3-bucket", "", "S3 bucket name (or use S3_BUCKET env var)")
	checkCmd.Flags().StringVar(&checkS3Prefix, "s3-prefix", "", "S3 key prefix/path (or use S3_PREFIX env var)")
	checkCmd.Flags().StringVar(&checkS3Region, "s3-region", "", "AWS region (or use AWS_REGION env var)")
	checkCmd.Flags().StringVar(&checkS3Key, "s3-key", "", "S3 object key of the plan JSON (required with --s3-source)")
	checkCmd.Flags().StringVar(&checkS3RunID, "s3-run-id", "", "Run ID for S3 organization (default: auto-generated timestamp)")
}

func runCheck(args []string) {
	mode := catalog.ModeFromEnv()
	fmt.Fprintf(os.Stderr, "Running in %q mode for Environment tag validation.\n", mode)

	cat, rulesSource := buildCatalog(mode)

	planFile := ""
	if len(args) == 1 {
		planFile = args[0]
	}

	if checkS3Source {
		if checkS3Key == "" {
			log.Fatal("Error: --s3-key is required with --s3-source")
		}
		downloaded, err := storage.DownloadPlanSource(storage.PlanDownloadConfig{
			Bucket: resolveS3Bucket(),
			Prefix: resolveS3Prefix(),
			Region: resolveS3Region(),
			Key:    checkS3Key,
		})
		if err != nil {
			log.Fatalf("Error: Failed to download plan from S3: %v", err)
		}
		planFile = downloaded
	}

	if planFile == "" {
		log.Fatal("Error: Must specify a plan file (or use --s3-source with --s3-key)")
	}

	doc, err := plan.Load(planFile)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	analysis := evaluate.AnalyzePlan(doc, cat)
	rep := report.Build(analysis, mode)

	reportJSON, err := rep.JSON()
	if err != nil {
		log.Fatalf("Error marshaling JSON report: %v", err)
	}

	if jsonOutput {
		fmt.Println(string(reportJSON))
	} else {
		fmt.Println(rep.Text(useColor()))
	}

	if jsonFile != "" {
		if err := os.WriteFile(jsonFile, reportJSON, 0600); err != nil {
			log.Fatalf("Error writing JSON file: %v", err)
		}
		fmt.Fprintf(os.Stderr, "JSON report saved to %s\n", jsonFile)
	}

	if checkS3Upload {
		manifest := &storage.ReportManifest{
			DeploymentEnv:           mode,
			TotalResourcesInPlan:    rep.Total,
			ExcludedResources:       rep.Excluded,
			AnalyzedResources:       rep.Analyzed,
			ResourcesWithViolations: rep.Violating(),
			RulesConfig:             rulesSource,
			SourceType:              "local_file",
			SourcePath:              planFile,
		}
		if checkS3Source {
			manifest.SourceType = "s3"
			manifest.SourcePath = checkS3Key
		}
		err := storage.UploadComplianceReport(storage.ReportUploadConfig{
			Bucket:   resolveS3Bucket(),
			Prefix:   resolveS3Prefix(),
			Region:   resolveS3Region(),
			RunID:    checkS3RunID,
			Manifest: manifest,
		}, reportJSON)
		if err != nil {
			log.Fatalf("Error: Failed to upload to S3: %v", err)
		}
	}

	if rep.HasViolations() {
		os.Exit(1)
	}
}

// buildCatalog loads the rule configuration (file or built-in defaults) and
// resolves it for the deployment mode. Any configuration problem is fatal.
func buildCatalog(mode string) (*catalog.Catalog, string) {
	cfg := catalog.Default()
	source := "built-in"
	if rulesConfig != "" {
		loaded, err := catalog.LoadConfig(rulesConfig)
		if err != nil {
			log.Fatalf("Error loading rules configuration: %v", err)
		}
		cfg = loaded
		source = rulesConfig
	}

	cat, err := catalog.New(cfg, mode)
	if err != nil {
		log.Fatalf("Error building rule catalog: %v", err)
	}
	return cat, source
}

// useColor decides whether the text report gets ANSI colors: explicit flags
// win, otherwise color is enabled only on an interactive terminal.
func useColor() bool {
	if noColor {
		return false
	}
	if forceColor {
		return true
	}
	return report.StdoutIsTerminal()
}

func resolveS3Bucket() string {
	if checkS3Bucket != "" {
		return checkS3Bucket
	}
	return os.Getenv("S3_BUCKET")
}

func resolveS3Prefix() string {
	if checkS3Prefix != "" {
		return checkS3Prefix
	}
	return os.Getenv("S3_PREFIX")
}

func resolveS3Region() string {
	if checkS3Region != "" {
		return checkS3Region
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		return region
	}
	return "eu-west-1"
}
