package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// StripCodeFence removes a surrounding ```json or ``` markdown block
func StripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	return strings.TrimSpace(cleaned)
}

// extractObject trims prose around the outermost {...} pair
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}

// DecodeJSON unmarshals model output into v. Strict JSON is tried first, then
// a repaired version of the text, then Hjson.
func DecodeJSON(raw string, v interface{}) error {
	const op = "DecodeJSON"

	text := extractObject(StripCodeFence(raw))
	if text == "" {
		return fmt.Errorf("%s: empty model output", op)
	}

	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}

	if repaired, repairErr := jsonrepair.RepairJSON(text); repairErr == nil {
		if err = json.Unmarshal([]byte(repaired), v); err == nil {
			return nil
		}
	}

	var generic interface{}
	if hjsonErr := hjson.Unmarshal([]byte(text), &generic); hjsonErr != nil {
		return fmt.Errorf("%s: unparseable model output: %w", op, err)
	}
	normalized, marshalErr := json.Marshal(generic)
	if marshalErr != nil {
		return fmt.Errorf("%s: failed to re-encode hjson: %w", op, marshalErr)
	}
	if err := json.Unmarshal(normalized, v); err != nil {
		return fmt.Errorf("%s: hjson output does not fit target: %w", op, err)
	}
	return nil
}
