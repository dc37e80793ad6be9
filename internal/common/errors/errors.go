// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCriteriaInvalid ErrorCode = "CRITERIA_INVALID"
	ErrCodeStrategyInvalid ErrorCode = "STRATEGY_INVALID"
	ErrCodeInputInvalid    ErrorCode = "INPUT_INVALID"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeCatalogFetchFailed       ErrorCode = "CATALOG_FETCH_FAILED"
	ErrCodeCatalogTimeout           ErrorCode = "CATALOG_TIMEOUT"
	ErrCodeSchoolNotFound           ErrorCode = "SCHOOL_NOT_FOUND"
	ErrCodeProgramNotFound          ErrorCode = "PROGRAM_NOT_FOUND"

	ErrCodeCacheFailed    ErrorCode = "CACHE_FAILED"
	ErrCodePlanNotFound   ErrorCode = "PLAN_NOT_FOUND"
	ErrCodePlanIndexBad   ErrorCode = "PLAN_INDEX_OUT_OF_RANGE"
	ErrCodePlanSaveFailed ErrorCode = "PLAN_SAVE_FAILED"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeReportSendFailed ErrorCode = "REPORT_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandardError unwraps err looking for a StandardError.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewCriteriaInvalidError creates a non-retryable error for criteria the
// engine cannot work with, such as a missing degree level.
func NewCriteriaInvalidError(details string) *StandardError {
	return newError(ErrCodeCriteriaInvalid, "Matching criteria are invalid", details, false)
}

func NewStrategyInvalidError(strategy string) *StandardError {
	return newError(ErrCodeStrategyInvalid, "Unknown match strategy", fmt.Sprintf("strategy: %s", strategy), false)
}

// NewInputInvalidError creates a non-retryable schema validation error.
func NewInputInvalidError(taskType, details string) *StandardError {
	return newError(ErrCodeInputInvalid, "Job input failed validation", fmt.Sprintf("taskType: %s, %s", taskType, details), false)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

// NewCatalogFetchFailedError creates a retryable catalog read error.
func NewCatalogFetchFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeCatalogFetchFailed, "Catalog query failed",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewCatalogTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeCatalogTimeout, "Catalog query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewSchoolNotFoundError(schoolID string) *StandardError {
	return newError(ErrCodeSchoolNotFound, "School not found", fmt.Sprintf("schoolId: %s", schoolID), false)
}

func NewProgramNotFoundError(programID string) *StandardError {
	return newError(ErrCodeProgramNotFound, "Program not found", fmt.Sprintf("programId: %s", programID), false)
}

// NewCacheFailedError creates a retryable Redis error.
func NewCacheFailedError(op string, err error) *StandardError {
	return newError(ErrCodeCacheFailed, "Cache operation failed", fmt.Sprintf("op: %s, error: %s", op, err.Error()), true)
}

func NewPlanNotFoundError(planID string) *StandardError {
	return newError(ErrCodePlanNotFound, "Match plan not found or expired", fmt.Sprintf("planId: %s", planID), false)
}

func NewPlanIndexOutOfRangeError(planID string, index, size int) *StandardError {
	return newError(ErrCodePlanIndexBad, "Result index out of range",
		fmt.Sprintf("planId: %s, index: %d, results: %d", planID, index, size), false)
}

func NewPlanSaveFailedError(err error) *StandardError {
	return newError(ErrCodePlanSaveFailed, "Failed to store match plan", err.Error(), true)
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true)
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

// NewReportSendFailedError creates a retryable delivery error.
func NewReportSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeReportSendFailed, "Shortlist delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

// Generic constructors

func NewTimeoutError(service string, err error) *StandardError {
	return newError("TIMEOUT_ERROR", fmt.Sprintf("Service '%s' timeout", service), err.Error(), true)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the codes caught by BPMN
// boundary events. Codes not listed pass through unchanged.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeCriteriaInvalid:               "CRITERIA_INVALID",
	ErrCodeStrategyInvalid:               "CRITERIA_INVALID",
	ErrCodeInputInvalid:                  "INPUT_INVALID",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeCatalogFetchFailed:            "CATALOG_FETCH_FAILED",
	ErrCodeCatalogTimeout:                "CATALOG_TIMEOUT",
	ErrCodeSchoolNotFound:                "CATALOG_RECORD_NOT_FOUND",
	ErrCodeProgramNotFound:               "CATALOG_RECORD_NOT_FOUND",
	ErrCodeCacheFailed:                   "CACHE_FAILED",
	ErrCodePlanNotFound:                  "PLAN_NOT_FOUND",
	ErrCodePlanIndexBad:                  "PLAN_INDEX_OUT_OF_RANGE",
	ErrCodePlanSaveFailed:                "PLAN_SAVE_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeReportSendFailed:              "REPORT_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeCatalogFetchFailed,
		ErrCodeCacheFailed,
		ErrCodePlanSaveFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeReportSendFailed:
		return 3

	case ErrCodeCatalogTimeout,
		ErrCodeSearchTimeout:
		return 2

	case "TIMEOUT_ERROR":
		return 1

	default:
		return 0 // business errors are thrown, not retried
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CRITERIA") || strings.Contains(codeStr, "STRATEGY") || strings.Contains(codeStr, "INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "PLAN"):
		return "PLAN_STORE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CATALOG") ||
		strings.Contains(codeStr, "SCHOOL") || strings.Contains(codeStr, "PROGRAM"):
		return "CATALOG"
	case strings.Contains(codeStr, "REPORT"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
