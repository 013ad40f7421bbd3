package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	subSchema := compile("sub.schema.json")
	eventSchema := compile("event.schema.json")
	flipSchema := compile("flip.schema.json")
	resultSchema := compile("result.schema.json")

	var sub any
	_ = json.Unmarshal([]byte(`{
	  "type":"SUB",
	  "protocol_version":"1.0",
	  "grid":"main"
	}`), &sub)
	validate(subSchema, sub)

	var event any
	_ = json.Unmarshal([]byte(`{
	  "type":"EVENT",
	  "grid":"main",
	  "key":"c1a73d9e",
	  "value":"0xdeadbeef10a03",
	  "x":12,
	  "y":200
	}`), &event)
	validate(eventSchema, event)

	var flip any
	_ = json.Unmarshal([]byte(`{
	  "type":"FLIP",
	  "protocol_version":"1.0",
	  "id":7,
	  "grid":"main",
	  "cells":[{"x":1,"y":2,"team":3},{"x":1,"y":3,"team":3}]
	}`), &flip)
	validate(flipSchema, flip)

	var result any
	_ = json.Unmarshal([]byte(`{
	  "type":"RESULT",
	  "id":7,
	  "ok":false,
	  "err":"E_RATE_LIMIT"
	}`), &result)
	validate(resultSchema, result)
}

func TestSchemas_RejectBadSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	flipSchema := compile("flip.schema.json")
	var tooBig any
	_ = json.Unmarshal([]byte(`{
	  "type":"FLIP",
	  "protocol_version":"1.0",
	  "id":1,
	  "grid":"main",
	  "cells":[]
	}`), &tooBig)
	if err := flipSchema.Validate(tooBig); err == nil {
		t.Fatalf("expected empty cells to fail validation")
	}

	eventSchema := compile("event.schema.json")
	var badValue any
	_ = json.Unmarshal([]byte(`{
	  "type":"EVENT",
	  "grid":"main",
	  "key":"k",
	  "value":"zz-not-hex"
	}`), &badValue)
	if err := eventSchema.Validate(badValue); err == nil {
		t.Fatalf("expected non-hex value to fail validation")
	}
}
