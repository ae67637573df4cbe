package recognition

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/noot-app/foodlens/internal/types"
)

// ErrParse matches every *ParseError
var ErrParse = errors.New("unparseable model response")

// ParseError describes why a model response could not be turned into a detection
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse model response: %s: %v", e.Reason, e.Err)
	}
	return "parse model response: " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// Parse extracts the detection object from raw model text. The text may be wrapped
// in Markdown fences or surrounded by prose; everything between the first '{' and
// the last '}' is decoded.
func Parse(raw string) (*types.Detection, error) {
	cleaned := stripFences(raw)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end <= start {
		return nil, &ParseError{Reason: "no JSON object found"}
	}

	var d types.Detection
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &d); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}
	if len(d.DetectedItems) == 0 {
		return nil, &ParseError{Reason: "detectedItems missing or empty"}
	}
	return &d, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
