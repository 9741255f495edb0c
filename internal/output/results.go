package output

import (
	"encoding/json"
	"io"
)

// SearchResult is one ranked hit in the shape the search --json flag
// emits.
type SearchResult struct {
	Path      string  `json:"path"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Score     float64 `json:"score"`
	Mode      string  `json:"mode"`
	Snippet   string  `json:"snippet"`
}

// SearchResults is the top-level search --json payload.
type SearchResults struct {
	Results []SearchResult `json:"results"`
}

// WriteJSON pretty-prints results to w.
func WriteJSON(w io.Writer, results []SearchResult) error {
	payload := SearchResults{Results: results}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// WriteHuman renders results for an interactive terminal. Rendering
// with syntax highlighting is delegated to an external renderer; this
// prints the plain spans the core controls.
func (w *Writer) WriteHuman(results []SearchResult) {
	if len(results) == 0 {
		w.Status("", "no results")
		return
	}
	for i, r := range results {
		w.Statusf("", "%d. %s:%d-%d (%s, score=%.4f)", i+1, r.Path, r.StartLine, r.EndLine, r.Mode, r.Score)
		w.Code(r.Snippet)
	}
}
