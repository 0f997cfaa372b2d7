package display

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputJSON writes v to w as indented JSON with a trailing newline,
// the shape every --json command emits.
func OutputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
