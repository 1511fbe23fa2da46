package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Summary(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{
			name: "full summary",
			doc: `{"plain_summary_bullets":["This section names the Act."],"key_terms":["Act"],
				"who_it_affects":[],"evidence_quotes":["This Act may be cited as the Test Act."],"uncertainties":[]}`,
		},
		{
			name: "bullets only",
			doc:  `{"plain_summary_bullets":["One."]}`,
		},
		{
			name:    "missing bullets",
			doc:     `{"key_terms":["Act"]}`,
			wantErr: true,
		},
		{
			name:    "empty bullets",
			doc:     `{"plain_summary_bullets":[]}`,
			wantErr: true,
		},
		{
			name:    "quotes are not strings",
			doc:     `{"plain_summary_bullets":["One."],"evidence_quotes":[1,2]}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(Summary, []byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			assert.NotEmpty(t, validationErr.Errors)
		})
	}
}

func TestValidate_SummarizeRequest(t *testing.T) {
	assert.NoError(t, Validate(SummarizeRequest, []byte(`{"section_id":"6f1c1a52-8a43-4a53-9d0f-2b2b7c1d9e10"}`)))
	assert.Error(t, Validate(SummarizeRequest, []byte(`{"section_id":"not-a-uuid"}`)))
	assert.Error(t, Validate(SummarizeRequest, []byte(`{}`)))
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(Summary, []byte(`{"plain_summary_bullets": [`))
	assert.Error(t, err)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "nope.schema.json")
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "plain_summary_bullets", Message: "is required"},
			{Field: "evidence_quotes.0", Message: "Invalid type"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "plain_summary_bullets")
	assert.Contains(t, errorMsg, "evidence_quotes.0")
}
