// Package hclscan statically validates tag compliance for Terraform source
// files. Only literal tag maps can be checked; tags built from variables or
// function calls are flagged as not statically verifiable, never failed.
package hclscan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"terraform-tag-compliance/internal/catalog"
	"terraform-tag-compliance/internal/evaluate"
)

// Finding is one static-analysis result for a resource in a .tf file.
type Finding struct {
	File       string `json:"file"`
	Resource   string `json:"resource"`
	TagKey     string `json:"tag_key"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// Scanner walks Terraform source trees and validates literal tag maps
// against the rule catalog.
type Scanner struct {
	catalog   *catalog.Catalog
	evaluator *evaluate.Evaluator
}

// New creates a Scanner over a resolved catalog.
func New(cat *catalog.Catalog) *Scanner {
	return &Scanner{catalog: cat, evaluator: evaluate.New(cat)}
}

// ScanDir recursively scans every .tf file under dir. File-level parse
// failures become findings rather than aborting the scan.
func (s *Scanner) ScanDir(dir string) ([]Finding, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".tf") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %q: %w", dir, err)
	}

	var findings []Finding
	for _, file := range files {
		findings = append(findings, s.ScanFile(file)...)
	}
	return findings, nil
}

// ScanFile parses one Terraform file and validates each resource block.
func (s *Scanner) ScanFile(path string) []Finding {
	src, err := os.ReadFile(path)
	if err != nil {
		return []Finding{{
			File:       path,
			Resource:   "N/A",
			TagKey:     "N/A",
			Issue:      fmt.Sprintf("Failed to read file: %v", err),
			Suggestion: "Check file permissions.",
		}}
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return []Finding{{
			File:       path,
			Resource:   "N/A",
			TagKey:     "N/A",
			Issue:      fmt.Sprintf("Failed to parse file: %s", diags.Error()),
			Suggestion: "Check Terraform syntax.",
		}}
	}

	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil
	}

	var findings []Finding
	for _, block := range body.Blocks {
		if block.Type != "resource" || len(block.Labels) != 2 {
			continue
		}
		resourceType, resourceName := block.Labels[0], block.Labels[1]
		if s.catalog.IsExcluded(resourceType, resourceName) {
			continue
		}
		findings = append(findings, s.checkResource(path, resourceType, resourceName, block.Body)...)
	}
	return findings
}

func (s *Scanner) checkResource(path, resourceType, resourceName string, body *hclsyntax.Body) []Finding {
	address := resourceType + "." + resourceName

	tagMap := map[string]string{}
	if attr, ok := body.Attributes["tags"]; ok {
		literal, ok := literalTags(attr.Expr)
		if !ok {
			return []Finding{{
				File:       path,
				Resource:   address,
				TagKey:     "N/A (Block)",
				Issue:      "Tags defined using non-literal map. Static analysis cannot validate.",
				Suggestion: "Ensure the final resolved tags meet requirements. Consider using literal maps for static checks.",
			}}
		}
		tagMap = literal
	}

	result := s.evaluator.Evaluate(tagMap, resourceType, address)

	var findings []Finding
	for _, missing := range result.MissingMandatory {
		findings = append(findings, Finding{
			File:       path,
			Resource:   address,
			TagKey:     missing.Key,
			Issue:      "Missing mandatory tag.",
			Suggestion: missing.Suggestion,
		})
	}
	for _, invalid := range result.Invalid {
		issue := fmt.Sprintf("%s: '%s'.", invalid.Reason, invalid.Value)
		if len(invalid.Allowed) > 0 {
			issue += fmt.Sprintf(" Allowed: [%s].", strings.Join(invalid.Allowed, ", "))
		}
		findings = append(findings, Finding{
			File:       path,
			Resource:   address,
			TagKey:     invalid.Key,
			Issue:      issue,
			Suggestion: invalid.Suggestion,
		})
	}
	for _, message := range result.CrossTagErrors {
		findings = append(findings, Finding{
			File:       path,
			Resource:   address,
			TagKey:     "N/A (Cross-Tag)",
			Issue:      message,
			Suggestion: "Adjust the dependent tag to satisfy the rule.",
		})
	}
	return findings
}

// literalTags evaluates a tags expression without any variable context. It
// succeeds only for fully known literal maps of primitive values.
func literalTags(expr hcl.Expression) (map[string]string, bool) {
	value, diags := expr.Value(nil)
	if diags.HasErrors() || value.IsNull() || !value.IsWhollyKnown() {
		return nil, false
	}
	ty := value.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, false
	}

	tags := make(map[string]string)
	for key, v := range value.AsValueMap() {
		if v.IsNull() {
			continue
		}
		switch v.Type() {
		case cty.String:
			tags[key] = v.AsString()
		case cty.Bool:
			tags[key] = strconv.FormatBool(v.True())
		case cty.Number:
			tags[key] = v.AsBigFloat().Text('f', -1)
		default:
			return nil, false
		}
	}
	return tags, true
}
