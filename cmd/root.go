package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tag-compliance",
	Short: "Validate Terraform resource tags against a layered rule catalog",
	Long: `Terraform Tag Compliance Analyzer - checks planned resources against
mandatory, optional, and cross-tag rules with resource-type overrides.

Commands:
  check       - Analyze a Terraform plan JSON (terraform show -json <planfile>)
  scan        - Statically analyze a directory of .tf source files
  completion  - Generate shell completion scripts

The DEPLOYMENT_ENV environment variable (PROD, default NPE) selects the
allowed values for the Environment tag.

Workflow:
  1. terraform plan -out=tfplan.binary
  2. terraform show -json tfplan.binary > plan.json
  3. tag-compliance check plan.json`,
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for tag-compliance.

To load completions:

Bash:
  $ source <(tag-compliance completion bash)

Zsh:
  $ tag-compliance completion zsh > "${fpath[1]}/_tag-compliance"

Fish:
  $ tag-compliance completion fish | source

PowerShell:
  PS> tag-compliance completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		switch args[0] {
		case "bash":
			err = cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			err = cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			err = cmd.Root().GenFishCompletion(os.Stdout, true)
		case "powershell":
			err = cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating completion: %v\n", err)
			os.Exit(1)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(completionCmd)
}
