package export

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// JSONExporter renders export payloads as JSON documents or JSON Lines.
type JSONExporter struct{}

// NewJSONExporter builds a JSON exporter.
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// RenderDocument produces an indented JSON document for the value.
func (e *JSONExporter) RenderDocument(v interface{}) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json document: %w", err)
	}
	return data, nil
}

// RenderLines produces JSON Lines output: one compact object per line,
// no enclosing array.
func (e *JSONExporter) RenderLines(items []interface{}) ([]byte, error) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, fmt.Errorf("render jsonl item %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
