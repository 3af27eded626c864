package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateAgainstSchema validates data against schemaMap. A failure here is
// advisory for the cascade: normalization still runs, but the mismatch is
// worth logging because it usually means a provider drifted from the prompt.
func ValidateAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ParseJSONLenient decodes raw model output into a generic map. When the
// whole payload is not valid JSON it salvages the outermost {...} block,
// which is how models wrap answers in markdown fences. Returns an empty map
// when nothing parses.
func ParseJSONLenient(raw []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err == nil {
		return m
	}
	if match := jsonObjectPattern.Find(raw); match != nil {
		if err := json.Unmarshal(match, &m); err == nil {
			return m
		}
	}
	return map[string]any{}
}
