package tooling

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// =============================================================================
// GenerateSchema tests
// =============================================================================

func TestGenerateSchema_ShouldRequireAllFields(t *testing.T) {
	schema := GenerateSchema(addTaskArgs{})

	var parsed struct {
		Required             []string       `json:"required"`
		AdditionalProperties bool           `json:"additionalProperties"`
		Properties           map[string]any `json:"properties"`
	}
	if err := json.Unmarshal([]byte(schema), &parsed); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	for _, field := range []string{"user_id", "title"} {
		if !contains(parsed.Required, field) {
			t.Errorf("schema should require %q, required = %v", field, parsed.Required)
		}
		if _, ok := parsed.Properties[field]; !ok {
			t.Errorf("schema is missing property %q", field)
		}
	}
	if parsed.AdditionalProperties {
		t.Error("schema should forbid additional properties")
	}
}

func TestGenerateSchema_ShouldReturnEmptyStringOnMarshalFailure(t *testing.T) {
	orig := marshalFunc
	defer func() { marshalFunc = orig }()
	marshalFunc = func(v interface{}) ([]byte, error) {
		return nil, errors.New("boom")
	}

	if got := GenerateSchema(addTaskArgs{}); got != "" {
		t.Errorf("expected empty schema on marshal failure, got %q", got)
	}
}

// =============================================================================
// ValidateAgainstSchema tests
// =============================================================================

func TestValidateAgainstSchema_ShouldAcceptValidArguments(t *testing.T) {
	schema := GenerateSchema(taskIDArgs{})
	input := json.RawMessage(`{"user_id": "alice", "task_id": 3}`)
	if err := ValidateAgainstSchema(input, schema); err != nil {
		t.Errorf("expected valid input to pass, got %v", err)
	}
}

func TestValidateAgainstSchema_ShouldRejectMissingField(t *testing.T) {
	schema := GenerateSchema(taskIDArgs{})
	input := json.RawMessage(`{"user_id": "alice"}`)
	err := ValidateAgainstSchema(input, schema)
	if err == nil {
		t.Fatal("expected validation failure for missing task_id")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateAgainstSchema_ShouldRejectWrongType(t *testing.T) {
	schema := GenerateSchema(taskIDArgs{})
	input := json.RawMessage(`{"user_id": "alice", "task_id": "three"}`)
	if err := ValidateAgainstSchema(input, schema); err == nil {
		t.Fatal("expected validation failure for string task_id")
	}
}

func TestValidateAgainstSchema_ShouldRejectUnknownField(t *testing.T) {
	schema := GenerateSchema(listTasksArgs{})
	input := json.RawMessage(`{"user_id": "alice", "surprise": true}`)
	if err := ValidateAgainstSchema(input, schema); err == nil {
		t.Fatal("expected validation failure for unknown field")
	}
}

func TestValidateAgainstSchema_ShouldRejectEmptyTitle(t *testing.T) {
	schema := GenerateSchema(addTaskArgs{})
	input := json.RawMessage(`{"user_id": "alice", "title": ""}`)
	if err := ValidateAgainstSchema(input, schema); err == nil {
		t.Fatal("expected validation failure for empty title")
	}
}

func TestValidateAgainstSchema_ShouldRejectMalformedJSON(t *testing.T) {
	schema := GenerateSchema(listTasksArgs{})
	if err := ValidateAgainstSchema(json.RawMessage(`{not json`), schema); err == nil {
		t.Fatal("expected error for malformed JSON input")
	}
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
