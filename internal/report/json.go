package report

import (
	"encoding/json"
	"io"
)

// WriteJSON renders the report as indented JSON, the machine-readable
// companion of the markdown report.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
