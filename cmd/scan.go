package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"terraform-tag-compliance/internal/catalog"
	"terraform-tag-compliance/internal/hclscan"

	"github.com/spf13/cobra"
)

var (
	scanRulesConfig string
	scanJSONOutput  bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <directory>",
	Short: "Statically analyze Terraform source files for tag compliance",
	Long: `Scan a directory of .tf files and validate literal tag maps against the
rule catalog.

Static analysis cannot resolve variables or function calls: resources whose
tags are built from non-literal expressions are flagged as not statically
verifiable instead of being passed or failed.

Examples:
  tag-compliance scan ./infrastructure
  tag-compliance scan ./infrastructure --json`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runScan(args[0])
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanRulesConfig, "rules", "r", "", "Rules configuration file (YAML); built-in rules when omitted")
	scanCmd.Flags().BoolVar(&scanJSONOutput, "json", false, "Output findings in JSON format")
}

func runScan(dir string) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Fatalf("Error: Directory not found: %s", dir)
	}

	mode := catalog.ModeFromEnv()
	fmt.Fprintf(os.Stderr, "Running in %q mode for Environment tag validation.\n", mode)

	cfg := catalog.Default()
	if scanRulesConfig != "" {
		loaded, err := catalog.LoadConfig(scanRulesConfig)
		if err != nil {
			log.Fatalf("Error loading rules configuration: %v", err)
		}
		cfg = loaded
	}
	cat, err := catalog.New(cfg, mode)
	if err != nil {
		log.Fatalf("Error building rule catalog: %v", err)
	}

	scanner := hclscan.New(cat)
	findings, err := scanner.ScanDir(dir)
	if err != nil {
		log.Fatalf("Error scanning directory: %v", err)
	}

	if len(findings) == 0 {
		fmt.Println("✅ Success: All validated resources conform to tagging guidelines.")
		return
	}

	if scanJSONOutput {
		data, err := json.MarshalIndent(findings, "", "  ")
		if err != nil {
			log.Fatalf("Error marshaling JSON: %v", err)
		}
		fmt.Println(string(data))
	} else {
		fmt.Printf("❌ Found %d tagging findings:\n", len(findings))
		for _, finding := range findings {
			fmt.Printf("\n[!] Finding in %s\n", finding.File)
			fmt.Printf("    Resource:   %s\n", finding.Resource)
			fmt.Printf("    Tag Key:    %s\n", finding.TagKey)
			fmt.Printf("    Issue:      %s\n", finding.Issue)
			if finding.Suggestion != "" {
				fmt.Printf("    Suggestion: %s\n", finding.Suggestion)
			}
		}
	}

	os.Exit(1)
}
