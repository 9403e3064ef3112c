package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"visionestoque/internal/models"
)

// ErrNotObject marks model output that is valid JSON but not a JSON object
// (an array, number, string...). Callers treat it the same as malformed JSON:
// the soft-failure path.
var ErrNotObject = errors.New("model output is not a JSON object")

// ParseModelOutput decodes the model's answer into a typed document. The
// top-level value must be a JSON object; anything else fails before any field
// is touched.
func ParseModelOutput(raw string) (*models.ExtractedDocument, error) {
	clean := trimFences(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty model output: %w", ErrNotObject)
	}

	var probe any
	if err := json.Unmarshal([]byte(clean), &probe); err != nil {
		return nil, fmt.Errorf("failed to parse model output: %w", err)
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, ErrNotObject
	}

	var doc models.ExtractedDocument
	if err := json.Unmarshal([]byte(clean), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode model output: %w", err)
	}

	return &doc, nil
}

// trimFences strips the markdown code fences Gemini likes to wrap JSON in.
func trimFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
