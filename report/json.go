package report

import (
	"encoding/json"
	"io"

	"github.com/cloudtrim/rightsizer/orchestrator"
)

// JSONRenderer emits the full run result for machine consumption
type JSONRenderer struct{}

// Render writes the result as indented JSON
func (r *JSONRenderer) Render(w io.Writer, result *orchestrator.RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
