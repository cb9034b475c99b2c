package evaluate

import (
	"fmt"

	"terraform-tag-compliance/internal/catalog"
	"terraform-tag-compliance/internal/plan"
	"terraform-tag-compliance/internal/tags"
)

// PlanAnalysis aggregates the evaluation of one plan document. Total counts
// only resources that were considered (analyzed plus excluded); resources the
// plan deletes or leaves untouched are skipped before counting.
type PlanAnalysis struct {
	Results  []Result
	Total    int
	Excluded int
	Analyzed int
}

// AnalyzePlan evaluates every create-or-update resource in the document
// against the catalog. Excluded resources are counted separately and never
// evaluated. A failure while analyzing one resource is captured on that
// resource's result and does not abort the remaining resources.
func AnalyzePlan(doc *plan.Document, cat *catalog.Catalog) PlanAnalysis {
	evaluator := New(cat)
	analysis := PlanAnalysis{}

	for _, resource := range doc.Resources {
		if !resource.IsCreateOrUpdate() {
			continue
		}

		if cat.IsExcluded(resource.Type, resource.Name) {
			analysis.Excluded++
			continue
		}

		analysis.Analyzed++
		analysis.Results = append(analysis.Results, evaluator.analyzeResource(resource))
	}

	analysis.Total = analysis.Analyzed + analysis.Excluded
	return analysis
}

// analyzeResource extracts tags and evaluates rules for one resource,
// converting any panic into an analysis error on the result so one bad
// resource cannot take down the whole run.
func (e *Evaluator) analyzeResource(resource plan.Resource) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				Address:       resource.Address,
				Type:          resource.Type,
				AnalysisError: fmt.Sprintf("%v", r),
			}
		}
	}()

	tagMap, unknown := tags.Extract(resource.Values, resource.Unknown)
	if unknown {
		// Tags resolve at apply time; the resource is analyzed but cannot be
		// validated, so it must not be reported as missing every tag.
		return Result{Address: resource.Address, Type: resource.Type, TagsUnknown: true}
	}

	return e.Evaluate(tagMap, resource.Type, resource.Address)
}
