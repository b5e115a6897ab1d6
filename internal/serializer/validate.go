package serializer

import (
	"encoding/json"
)

// ValidateJSON reports whether raw is structurally a document: an object
// with a "blocks" array whose every element carries truthy "id", "type" and
// "data" members. Payload shape and id uniqueness are not checked. It never
// panics.
func ValidateJSON(raw []byte) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return false
	}
	obj, isObj := top.(map[string]any)
	if !isObj {
		return false
	}
	list, isList := obj["blocks"].([]any)
	if !isList {
		return false
	}
	for _, item := range list {
		entry, isEntry := item.(map[string]any)
		if !isEntry {
			return false
		}
		if !truthy(entry["id"]) || !truthy(entry["type"]) || !truthy(entry["data"]) {
			return false
		}
	}
	return true
}

// truthy applies JavaScript truthiness to a decoded JSON value.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}
