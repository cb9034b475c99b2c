// Package tags normalizes the heterogeneous tag representations found in a
// resource's planned configuration into one canonical string-to-string map.
package tags

import (
	"fmt"
	"os"
	"strconv"
)

// Extract builds the canonical tag map from a resource's planned attribute
// map. Sources are applied in order: the "tags" map, the block-style "tag"
// list, then the provider-merged "tags_all" map. Keys set by "tags" or "tag"
// always win over "tags_all" so explicit tags are never overridden by
// provider defaults. Null values are dropped and all surviving values are
// coerced to strings.
//
// The second return value is true when the plan flags "tags" or "tags_all" as
// unknown until apply time; callers must then skip tag validation for the
// resource instead of reporting every tag missing.
func Extract(values map[string]interface{}, unknown map[string]interface{}) (map[string]string, bool) {
	if isUnknown(unknown, "tags") || isUnknown(unknown, "tags_all") {
		return nil, true
	}

	merged := make(map[string]interface{})

	if tagsMap, ok := values["tags"].(map[string]interface{}); ok {
		for key, value := range tagsMap {
			merged[key] = value
		}
	}

	if tagList, ok := values["tag"].([]interface{}); ok {
		for _, entry := range tagList {
			spec, ok := entry.(map[string]interface{})
			if !ok {
				fmt.Fprintf(os.Stderr, "Warning: skipping malformed tag item: %v\n", entry)
				continue
			}
			key, keyOK := spec["key"].(string)
			value := spec["value"]
			if !keyOK || !isPrimitive(value) {
				fmt.Fprintf(os.Stderr, "Warning: skipping malformed tag item: %v\n", entry)
				continue
			}
			merged[key] = value
		}
	}

	if tagsAll, ok := values["tags_all"].(map[string]interface{}); ok {
		for key, value := range tagsAll {
			if _, explicit := merged[key]; !explicit {
				merged[key] = value
			}
		}
	}

	result := make(map[string]string, len(merged))
	for key, value := range merged {
		if value == nil {
			continue
		}
		result[key] = coerceString(value)
	}
	return result, false
}

// isUnknown reports whether after_unknown flags the attribute as not yet
// resolvable. Terraform emits `true` for a wholly unknown map.
func isUnknown(unknown map[string]interface{}, attribute string) bool {
	flag, ok := unknown[attribute].(bool)
	return ok && flag
}

func isPrimitive(value interface{}) bool {
	switch value.(type) {
	case string, bool, float64:
		return true
	default:
		return false
	}
}

func coerceString(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
