package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound         = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput     = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState     = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrNoBracketTable   = NewDomainError("NO_BRACKET_TABLE", "No published bracket table covers the run period")
	ErrUnknownEmployee  = NewDomainError("UNKNOWN_EMPLOYEE", "Row cannot be mapped to a known employee")
	ErrEmptyRunPeriod   = NewDomainError("EMPTY_RUN_PERIOD", "Run period start must not be after period end")
	ErrNoEmployees      = NewDomainError("NO_EMPLOYEES", "Run request contains no employees")
	ErrMissingTaxTable  = NewDomainError("NO_BRACKET_TABLE", "Withholding tax bracket table is required")
	ErrMissingHistory   = NewDomainError("MISSING_HISTORY", "Annualization requires at least one historical row")
	ErrNotSeparated     = NewDomainError("INVALID_STATE", "Employee has no separation date for final pay settlement")
)
