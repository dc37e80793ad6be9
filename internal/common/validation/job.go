// internal/common/validation/job.go
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	apperrors "school-match-workers/internal/common/errors"
)

// DecodeJob checks the raw job variables against the input schema of
// taskType and decodes them into dest. A nil validator only decodes, and a
// task type without a registered schema is decoded unchecked.
func (v *SchemaValidator) DecodeJob(taskType, variables string, dest interface{}) error {
	if strings.TrimSpace(variables) == "" {
		variables = "{}"
	}

	if v != nil {
		result, err := v.Validate(taskType, []byte(variables))
		switch {
		case errors.Is(err, ErrNoSchema):
		case err != nil:
			return apperrors.NewInputInvalidError(taskType, err.Error())
		case !result.Valid:
			return apperrors.NewInputInvalidError(taskType, strings.Join(result.GetErrorMessages(), "; "))
		}
	}

	if err := json.Unmarshal([]byte(variables), dest); err != nil {
		return apperrors.NewInputInvalidError(taskType, fmt.Sprintf("parse input: %v", err))
	}
	return nil
}
