package errors

import "fmt"

// Entity lookup error codes.
const (
	CodeProjectNotFound      = "PROJECT_NOT_FOUND"
	CodeSystemNotFound       = "SYSTEM_NOT_FOUND"
	CodeParentSystemNotFound = "PARENT_SYSTEM_NOT_FOUND"
	CodeFlowNotFound         = "FLOW_NOT_FOUND"
	CodeDataModelNotFound    = "DATA_MODEL_NOT_FOUND"
	CodeComponentNotFound    = "COMPONENT_NOT_FOUND"
	CodeEntryPointNotFound   = "ENTRY_POINT_NOT_FOUND"
)

// Validation error codes.
const (
	CodeValidationFailed          = "VALIDATION_FAILED"
	CodeInvalidConstraint         = "INVALID_CONSTRAINT"
	CodeSystemScopeEmpty          = "SYSTEM_SCOPE_EMPTY"
	CodeInvalidStepEndpoint       = "INVALID_STEP_ENDPOINT"
	CodeInvalidAlternateFlow      = "INVALID_ALTERNATE_FLOW"
	CodeInvalidDataModelReference = "INVALID_DATA_MODEL_REFERENCE"
)

// Structural rule error codes.
const (
	CodeRootSystemImmutable = "ROOT_SYSTEM_IMMUTABLE"
	CodeSystemMoveCycle     = "SYSTEM_MOVE_CYCLE"
	CodeSystemInUse         = "SYSTEM_IN_USE"
	CodeComponentInUse      = "COMPONENT_IN_USE"
	CodeEntryPointInUse     = "ENTRY_POINT_IN_USE"
)

// CodeIDConflict marks an id generator collision.
const CodeIDConflict = "ID_CONFLICT"

// Auth error codes.
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
)

// Convenience constructors using predefined codes.

// ErrProjectNotFoundf creates a project not found error.
func ErrProjectNotFoundf(projectID string) *AppError {
	return NotFound(CodeProjectNotFound, fmt.Sprintf("project %s not found", projectID)).
		WithParams(map[string]interface{}{"project_id": projectID})
}

// ErrRequiredField creates a bad request error for a missing or blank field.
func ErrRequiredField(field string) *AppError {
	return BadRequest(CodeValidationFailed, field+" is required").
		WithFieldErrors([]FieldError{{Field: field, Code: "REQUIRED"}})
}
