package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildDocumentJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the upsert payload: the six descriptive fields (each
// nullable), the two dates, and the derived counters.
func BuildDocumentJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	counter := map[string]any{"type": "integer", "minimum": 0}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"title":             nullableString,
			"author":            nullableString,
			"subject":           nullableString,
			"creator":           nullableString,
			"producer":          nullableString,
			"creation_date":     nullableString,
			"modification_date": nullableString,
			"num_pages":         counter,
			"total_words":       counter,
			"total_images":      counter,
			"total_attachments": counter,
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
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
