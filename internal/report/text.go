package report

import (
	"fmt"
	"strings"

	"terraform-tag-compliance/internal/evaluate"
)

// Text renders the human-readable console report. Resources are already
// ordered by address, so output is deterministic for a given plan.
func (r *Report) Text(useColor bool) string {
	var lines []string

	violating := r.Violating()

	lines = append(lines, colorize(cyan, "\n--- Terraform Tag Compliance Report ---", useColor))
	lines = append(lines, fmt.Sprintf("Deployment Environment Mode: %s", r.Mode))
	lines = append(lines, fmt.Sprintf("Total Resources in Plan: %d", r.Total))
	lines = append(lines, fmt.Sprintf("Excluded Resources: %d", r.Excluded))
	lines = append(lines, fmt.Sprintf("Analyzed Resources: %d", r.Analyzed))

	compliantColor := white
	if violating == 0 {
		compliantColor = green
	}
	violatingColor := white
	if violating > 0 {
		violatingColor = red
	}
	lines = append(lines, colorize(compliantColor, fmt.Sprintf("Compliant Resources: %d", r.Compliant()), useColor))
	lines = append(lines, colorize(violatingColor, fmt.Sprintf("Resources with Violations: %d", violating), useColor))

	if violating == 0 {
		lines = append(lines, colorize(green, "\n✅ All analyzed resources comply with tagging requirements.", useColor))
	} else {
		lines = append(lines, colorize(magenta, "\n--- Violation Details ---", useColor))
		for _, result := range r.Results {
			if !result.HasViolations() {
				continue
			}

			lines = append(lines, colorize(cyan, fmt.Sprintf("\nResource: %s", result.Address), useColor))

			if len(result.MissingMandatory) > 0 {
				lines = append(lines, colorize(red, "  [✗] Missing Mandatory Tags:", useColor))
				for _, item := range result.MissingMandatory {
					lines = append(lines, fmt.Sprintf("    - %s%s", item.Key, suggestionNote(item.Suggestion)))
				}
			}

			if len(result.Invalid) > 0 {
				lines = append(lines, colorize(red, "  [✗] Invalid Tag Values/Keys:", useColor))
				for _, issue := range result.Invalid {
					msg := fmt.Sprintf("    - Key: '%s', Value: '%s' - Reason: %s", issue.Key, issue.Value, issue.Reason)
					if len(issue.Allowed) > 0 {
						caseNote := ""
						if issue.CaseInsensitive {
							caseNote = " (case-insensitive)"
						}
						msg += fmt.Sprintf(" | Allowed%s: [%s]", caseNote, strings.Join(issue.Allowed, ", "))
					}
					if issue.Regex != "" {
						msg += fmt.Sprintf(" | Regex: '%s'", issue.Regex)
					}
					if issue.KeyRegex != "" {
						msg += fmt.Sprintf(" | Key Regex: '%s'", issue.KeyRegex)
					}
					msg += suggestionNote(issue.Suggestion)
					lines = append(lines, colorize(yellow, msg, useColor))
				}
			}

			if len(result.CrossTagErrors) > 0 {
				lines = append(lines, colorize(red, "  [✗] Cross-Tag Validation Errors:", useColor))
				for _, message := range result.CrossTagErrors {
					lines = append(lines, fmt.Sprintf("    - %s", message))
				}
			}

			if result.AnalysisError != "" {
				lines = append(lines, colorize(red, fmt.Sprintf("  [✗] Analysis Error: %s", result.AnalysisError), useColor))
			}

			if len(result.MissingOptional) > 0 {
				lines = append(lines, colorize(blue, "  [!] Missing Optional Tag Suggestions:", useColor))
				lines = append(lines, optionalLines(result.MissingOptional)...)
			}
		}
	}

	// Resources whose only issue is a missing optional tag are compliant but
	// still worth a nudge; they get their own section and never appear above.
	var suggestionLines []string
	for _, result := range r.Results {
		if result.HasViolations() || !result.HasSuggestions() {
			continue
		}
		suggestionLines = append(suggestionLines, colorize(cyan, fmt.Sprintf("\nResource: %s", result.Address), useColor))
		suggestionLines = append(suggestionLines, colorize(blue, "  [!] Missing Optional Tags:", useColor))
		suggestionLines = append(suggestionLines, optionalLines(result.MissingOptional)...)
	}
	if len(suggestionLines) > 0 {
		lines = append(lines, colorize(magenta, "\n--- Optional Tag Suggestions ---", useColor))
		lines = append(lines, suggestionLines...)
	}

	return strings.Join(lines, "\n")
}

func optionalLines(missing []evaluate.Violation) []string {
	var lines []string
	for _, item := range missing {
		line := fmt.Sprintf("    - %s", item.Key)
		if item.Description != "" {
			line += fmt.Sprintf(" (%s)", item.Description)
		}
		if item.Suggestion != "" {
			line += fmt.Sprintf(" (Example: %s)", item.Suggestion)
		}
		lines = append(lines, line)
	}
	return lines
}

func suggestionNote(suggestion string) string {
	if suggestion == "" {
		return ""
	}
	return fmt.Sprintf(" (Suggestion: %s)", suggestion)
}
