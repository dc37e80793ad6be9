// internal/common/validation/schema_test.go
package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "school-match-workers/internal/common/errors"
	"school-match-workers/pkg/registry"
)

func newValidator(t *testing.T) *SchemaValidator {
	t.Helper()
	v, err := NewSchemaValidator(registry.Default())
	require.NoError(t, err)
	return v
}

func TestSchemaValidator_QuickMatch(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name      string
		doc       string
		valid     bool
		badFields []string
	}{
		{
			name:  "full criteria",
			doc:   `{"criteria":{"countries":["英国"],"majors":["计算机"],"degreeLevel":"master","gpa":3.5,"budgetMin":200000,"budgetMax":400000},"strategy":"balanced"}`,
			valid: true,
		},
		{
			name:  "null optionals",
			doc:   `{"criteria":{"countries":[],"majors":[],"degreeLevel":"","gpa":null,"languageScore":null}}`,
			valid: true,
		},
		{
			name:      "missing criteria",
			doc:       `{"strategy":"balanced"}`,
			badFields: []string{"criteria"},
		},
		{
			name:      "unknown strategy",
			doc:       `{"criteria":{},"strategy":"yolo"}`,
			badFields: []string{"strategy"},
		},
		{
			name:      "wrong types",
			doc:       `{"criteria":{"countries":"英国","gpa":"3.5"}}`,
			badFields: []string{"criteria.countries", "criteria.gpa"},
		},
		{
			name:      "negative weight",
			doc:       `{"criteria":{"weights":{"ranking":-5}}}`,
			badFields: []string{"criteria.weights.ranking"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate("quick-match", []byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.GetErrorMessages())
			for _, f := range tt.badFields {
				assert.NotEmpty(t, res.GetErrorsForField(f), "expected error on %s, got %v", f, res.GetErrorMessages())
			}
		})
	}
}

func TestSchemaValidator_LockResult(t *testing.T) {
	v := newValidator(t)

	res, err := v.Validate("lock-result", []byte(`{"planId":"p-1","index":-1}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorsForField("index"))

	res, err = v.Validate("lock-result", []byte(`{"index":0}`))
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "planId", res.Errors[0].Field)
	assert.Equal(t, "REQUIRED", res.Errors[0].Code)
}

func TestSchemaValidator_UnknownTaskType(t *testing.T) {
	_, err := newValidator(t).Validate("auth-signin-google", []byte(`{}`))
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestSchemaValidator_BadSchema(t *testing.T) {
	reg := &registry.ActivityRegistry{Activities: []registry.Activity{
		{TaskType: "broken", InputSchema: []byte(`{"type": 12}`)},
	}}
	_, err := NewSchemaValidator(reg)
	assert.ErrorContains(t, err, "broken")
}

func TestValidateDocument(t *testing.T) {
	res, err := ValidateDocument([]byte(`{"type":"object","required":["a"]}`), []byte(`{"b":1}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"a: a is required"}, res.GetErrorMessages())
}

func TestValidateEmailAndPhone(t *testing.T) {
	assert.True(t, ValidateEmail("student@example.com"))
	assert.False(t, ValidateEmail("student@"))
	assert.True(t, ValidatePhone("+86 138 0013 8000"))
	assert.False(t, ValidatePhone("12345"))
}

// ==========================
// Job Decoding
// ==========================

func TestSchemaValidator_DecodeJob(t *testing.T) {
	v := newValidator(t)

	var input struct {
		PlanID string `json:"planId"`
		Index  int    `json:"index"`
	}
	require.NoError(t, v.DecodeJob("lock-result", `{"planId":"p-1","index":2,"other":"ignored"}`, &input))
	assert.Equal(t, "p-1", input.PlanID)
	assert.Equal(t, 2, input.Index)

	err := v.DecodeJob("lock-result", `{"planId":"p-1","index":-1}`, &input)
	require.Error(t, err)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInputInvalid, stdErr.Code)
	assert.Contains(t, stdErr.Details, "index")
}

func TestSchemaValidator_DecodeJob_Unchecked(t *testing.T) {
	var out map[string]interface{}

	var nilValidator *SchemaValidator
	require.NoError(t, nilValidator.DecodeJob("lock-result", "", &out))
	assert.Empty(t, out)

	v := newValidator(t)
	require.NoError(t, v.DecodeJob("unregistered", `{"a":1}`, &out))
	assert.Equal(t, float64(1), out["a"])

	err := v.DecodeJob("unregistered", `{not json`, &out)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInputInvalid, stdErr.Code)
}
