package ner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractionPrompt instructs the model to emit a bare JSON array of
// detections. Both providers share it so swapping backends does not
// change detection semantics.
const extractionPrompt = `You are a named-entity recognition engine. Extract every named entity from the user's text and reply with ONLY a JSON array, no prose. Each element is {"text": "<exact substring from the input>", "category": "<label>"}. Labels: PERSON for people, ORG for companies and organizations, GPE for countries/cities/states, LOC for other locations, OTHER for anything else. The "text" value must appear verbatim in the input. Reply with [] if there are no entities.`

// parseDetections decodes the model's reply into detections. Models
// occasionally wrap the array in a markdown fence or leading prose, so
// the array is located by bracket scanning before unmarshalling.
func parseDetections(content string) ([]Detection, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in model reply")
	}

	var dets []Detection
	if err := json.Unmarshal([]byte(content[start:end+1]), &dets); err != nil {
		return nil, fmt.Errorf("decoding detections: %w", err)
	}

	// Drop entries with empty text; literal substitution on "" would loop.
	out := dets[:0]
	for _, d := range dets {
		if strings.TrimSpace(d.Text) == "" {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
