package store

import (
	"encoding/json"
	"fmt"
)

// EncodeDocument renders doc as a JSON object with the key field stamped in.
// SQL backends keep the whole record in one JSON column.
func EncodeDocument(key Key, doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("document must encode to a JSON object: %w", err)
	}

	keyValue, _ := json.Marshal(key.Value)
	fields[key.Field] = keyValue

	return json.Marshal(fields)
}

// EncodePatch merges field maps left to right into one JSON object.
func EncodePatch(key *Key, parts ...map[string]any) ([]byte, error) {
	merged := map[string]any{}
	for _, part := range parts {
		for k, v := range part {
			merged[k] = v
		}
	}
	if key != nil {
		merged[key.Field] = key.Value
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return out, nil
}

// DecodeDocument unmarshals a stored JSON document into out.
func DecodeDocument(raw []byte, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// ValidateKeyField guards the field names interpolated into backend queries.
func ValidateKeyField(field string) error {
	switch field {
	case "email", "linkedInUrl":
		return nil
	default:
		return fmt.Errorf("unsupported key field %q", field)
	}
}
