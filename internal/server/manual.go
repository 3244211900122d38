package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/fra-claims/internal/common"
)

// manualClaimSchema is the body contract of POST /api/claims and
// PUT /api/claims/:id. Coordinates may
// arrive as numbers or numeric strings; everything else is text.
const manualClaimSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "state":        {"type": ["string", "null"], "maxLength": 128},
    "district":     {"type": ["string", "null"], "maxLength": 128},
    "block":        {"type": ["string", "null"], "maxLength": 128},
    "village":      {"type": ["string", "null"], "maxLength": 128},
    "patta_holder": {"type": ["string", "null"], "maxLength": 256},
    "address":      {"type": ["string", "null"], "maxLength": 1024},
    "land_area":    {"type": ["string", "number", "null"]},
    "ifr_number":   {"type": ["string", "null"], "maxLength": 128},
    "status":       {"type": ["string", "null"], "maxLength": 64},
    "date":         {"type": ["string", "null"], "maxLength": 64},
    "lat":          {"type": ["number", "string", "null"]},
    "lon":          {"type": ["number", "string", "null"]}
  }
}`

type manualSchema struct {
	schema *jsonschema.Schema
}

func newManualSchema() (*manualSchema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manual_claim.json", strings.NewReader(manualClaimSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("manual_claim.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &manualSchema{schema: schema}, nil
}

// decode validates body and flattens it into the row shape mapping.FromRow
// takes. Nulls are dropped.
func (m *manualSchema) decode(body []byte) (map[string]string, error) {
	return m.flatten(body, false)
}

// decodePatch is decode for partial updates: a null becomes "" so the field
// is cleared, an absent key is left as stored.
func (m *manualSchema) decodePatch(body []byte) (map[string]string, error) {
	return m.flatten(body, true)
}

func (m *manualSchema) flatten(body []byte, keepNulls bool) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, common.InvalidArgumentErrorf("invalid JSON body: %v", err)
	}
	if err := m.schema.Validate(doc); err != nil {
		return nil, common.NewAppError("VALIDATION", err.Error(), common.ErrValidation)
	}

	fields, _ := doc.(map[string]any)
	row := make(map[string]string, len(fields))
	for k, v := range fields {
		switch x := v.(type) {
		case string:
			row[k] = x
		case json.Number:
			row[k] = x.String()
		case nil:
			if keepNulls {
				row[k] = ""
			}
		}
	}
	return row, nil
}
