package postgres

import (
	"encoding/json"

	"github.com/rubberhq/rubber/storage"
)

// findingsToJSON converts findings to a JSON string for the JSONB column.
func findingsToJSON(findings []storage.StoredFinding) string {
	if len(findings) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(findings)
	return string(b)
}

// findingsFromJSON parses a JSON string into findings.
func findingsFromJSON(s string) []storage.StoredFinding {
	if s == "" || s == "null" || s == "[]" {
		return nil
	}
	var findings []storage.StoredFinding
	if err := json.Unmarshal([]byte(s), &findings); err != nil {
		return nil
	}
	return findings
}
