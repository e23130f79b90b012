package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"properties": {
		"target_type": {"type": ["string", "null"]},
		"keywords": {"type": ["array", "null"], "items": {"type": "string"}}
	},
	"required": ["target_type"]
}`

func TestSchema_ValidateDocument(t *testing.T) {
	schema := MustCompile(testSchema)

	tests := []struct {
		name      string
		doc       string
		wantValid bool
		wantField string
	}{
		{"valid", `{"target_type":"investor","keywords":["fintech"]}`, true, ""},
		{"nulls allowed", `{"target_type":null,"keywords":null}`, true, ""},
		{"missing required", `{"keywords":[]}`, false, "(root)"},
		{"wrong item type", `{"target_type":"investor","keywords":[1]}`, false, "keywords.0"},
		{"not an object", `["investor"]`, false, "(root)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := schema.ValidateDocument(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.Valid)
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
			}
		})
	}
}

func TestSchema_ValidateDocument_NotJSON(t *testing.T) {
	_, err := MustCompile(testSchema).ValidateDocument("INVESTOR")
	assert.Error(t, err)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}

func TestStruct(t *testing.T) {
	type request struct {
		SessionID   string `validate:"max=8"`
		UserMessage string `validate:"required"`
	}

	ok := Struct(request{SessionID: "abc", UserMessage: "hola"})
	assert.True(t, ok.Valid)

	bad := Struct(request{SessionID: "far-too-long-id"})
	assert.False(t, bad.Valid)
	assert.True(t, bad.HasErrors("request.UserMessage"))
	assert.True(t, bad.HasErrors("request.SessionID"))
	assert.Contains(t, bad.Error(), "required")
}
