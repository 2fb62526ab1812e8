package main

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// canonicalRecordField is where the API puts the ranking list when it behaves.
const canonicalRecordField = "team_ranking_data"

// recordMarkerKeys identify record-shaped objects when the list shows up
// under some other top-level field. Explicit constant, never inferred.
var recordMarkerKeys = []string{"id", "name", "team", "rank"}

// ExtractRecords pulls raw ranking records out of one page payload. The
// canonical field is tried first; then every other top-level list field whose
// first element looks record-shaped is unioned in. Matching fields are never
// checked for identity overlap, so two unrelated lists can double-feed the
// aggregate — the ingest dedup is the documented safety net for that.
func ExtractRecords(payload []byte) []json.RawMessage {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return nil
	}

	var records []json.RawMessage
	if canon := root.Get(canonicalRecordField); canon.IsArray() {
		records = append(records, objectElements(canon)...)
	}
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == canonicalRecordField || !value.IsArray() {
			return true
		}
		elems := value.Array()
		if len(elems) == 0 || !elems[0].IsObject() {
			return true
		}
		if !hasMarkerKey(elems[0]) {
			return true
		}
		records = append(records, objectElements(value)...)
		return true
	})
	return records
}

// objectElements keeps the object-shaped members of a list and drops the
// rest silently.
func objectElements(list gjson.Result) []json.RawMessage {
	var out []json.RawMessage
	for _, el := range list.Array() {
		if !el.IsObject() {
			continue
		}
		out = append(out, json.RawMessage(el.Raw))
	}
	return out
}

func hasMarkerKey(obj gjson.Result) bool {
	found := false
	obj.ForEach(func(key, _ gjson.Result) bool {
		for _, marker := range recordMarkerKeys {
			if key.String() == marker {
				found = true
				return false
			}
		}
		return true
	})
	return found
}

// totalPages reads pagination.total_pages from a page payload. Missing or
// nonsense metadata means a single page.
func totalPages(payload []byte) int {
	if v := gjson.GetBytes(payload, "pagination.total_pages"); v.Exists() && v.Int() > 0 {
		return int(v.Int())
	}
	return 1
}
