package plan

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Shape identifies which of the two recognized top-level plan layouts a
// document used.
type Shape string

const (
	// ShapeResourceChanges is the layout produced by
	// `terraform show -json <planfile>` (format_version >= 0.1).
	ShapeResourceChanges Shape = "resource_changes"
	// ShapePlannedValues is the legacy layout carrying resources under
	// planned_values.root_module.
	ShapePlannedValues Shape = "planned_values"
	// ShapeUnknown means neither layout was present; the document yields
	// zero resources and a warning.
	ShapeUnknown Shape = "unknown"
)

// NotFoundError reports a plan file path that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("plan file not found at %q", e.Path)
}

// ParseError reports plan content that is not valid JSON.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse terraform plan %q: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Resource is one planned resource change, normalized so the evaluator never
// branches on the document shape.
type Resource struct {
	Address string
	Type    string
	Name    string
	// Actions is the plan's action list (create/update/delete/replace/no-op/
	// read). The legacy planned_values shape has no action list; its entries
	// are normalized to a single create action.
	Actions []string
	// Values is the planned attribute map ("after" for resource_changes,
	// "values" for planned_values).
	Values map[string]interface{}
	// Unknown is the after_unknown map flagging attributes whose values are
	// only known at apply time. Nil for the legacy shape.
	Unknown map[string]interface{}
}

// localName falls back to the last address segment when the document did not
// carry an explicit name field.
func localName(address, name string) string {
	if name != "" {
		return name
	}
	parts := strings.Split(address, ".")
	return parts[len(parts)-1]
}

// Document is a loaded plan: the shape it used plus its normalized resources.
type Document struct {
	Shape     Shape
	Resources []Resource
}

type resourceChangeJSON struct {
	Address string `json:"address"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Change  struct {
		Actions      []string               `json:"actions"`
		After        map[string]interface{} `json:"after"`
		AfterUnknown map[string]interface{} `json:"after_unknown"`
	} `json:"change"`
}

type plannedResourceJSON struct {
	Address string                 `json:"address"`
	Type    string                 `json:"type"`
	Name    string                 `json:"name"`
	Values  map[string]interface{} `json:"values"`
}

type plannedValuesJSON struct {
	RootModule struct {
		Resources []plannedResourceJSON `json:"resources"`
	} `json:"root_module"`
}

// Load reads and validates a Terraform plan JSON file. It fails with
// NotFoundError when the path does not exist and ParseError when the content
// is not valid JSON. A document lacking both recognized shapes is a non-fatal
// warning: analysis proceeds with zero resources.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("failed to read plan file %q: %w", path, err)
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	if raw, ok := top["resource_changes"]; ok {
		var changes []resourceChangeJSON
		if err := json.Unmarshal(raw, &changes); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		doc := &Document{Shape: ShapeResourceChanges}
		for _, change := range changes {
			doc.Resources = append(doc.Resources, Resource{
				Address: change.Address,
				Type:    change.Type,
				Name:    localName(change.Address, change.Name),
				Actions: change.Change.Actions,
				Values:  change.Change.After,
				Unknown: change.Change.AfterUnknown,
			})
		}
		return doc, nil
	}

	if raw, ok := top["planned_values"]; ok {
		var planned plannedValuesJSON
		if err := json.Unmarshal(raw, &planned); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		doc := &Document{Shape: ShapePlannedValues}
		for _, resource := range planned.RootModule.Resources {
			doc.Resources = append(doc.Resources, Resource{
				Address: resource.Address,
				Type:    resource.Type,
				Name:    localName(resource.Address, resource.Name),
				Actions: []string{"create"},
				Values:  resource.Values,
			})
		}
		return doc, nil
	}

	fmt.Fprintln(os.Stderr, "Warning: 'resource_changes' or 'planned_values' not found in the plan. Analysis might be incomplete.")
	return &Document{Shape: ShapeUnknown}, nil
}

// IsCreateOrUpdate reports whether the resource's planned actions include a
// create or an update. Replace plans carry both delete and create and are
// therefore validated like creates.
func (r Resource) IsCreateOrUpdate() bool {
	for _, action := range r.Actions {
		if action == "create" || action == "update" {
			return true
		}
	}
	return false
}
