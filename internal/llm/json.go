package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UnmarshalResponse parses a structured JSON payload out of model output.
// Models wrap JSON in code fences or prose; this locates the outermost
// object or array and unmarshals it strictly into v. A parse failure is a
// well-defined error variant — recovery is retry-by-regeneration, never
// retry-by-reparsing.
func UnmarshalResponse(raw string, v any) error {
	payload := extractJSON(raw)
	if payload == "" {
		return fmt.Errorf("no JSON payload in model response")
	}

	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parse model response: %w", err)
	}

	return nil
}

// extractJSON returns the first balanced JSON object or array in text
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip a markdown code fence if present
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	start := -1
	var opener, closer byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			opener = text[i]
			closer = '}'
			if opener == '[' {
				closer = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	return ""
}
