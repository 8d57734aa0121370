package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// AliasNotFound indicates an @-prefixed name matched no registered alias
	AliasNotFound ErrorCode = "ALIAS_NOT_FOUND"
	// InvalidAlias indicates a malformed alias name
	InvalidAlias ErrorCode = "INVALID_ALIAS"
	// SymbolNotFound indicates neither the class map nor an alias produced a location
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// SourceMissing indicates the resolved location is not a regular file
	SourceMissing ErrorCode = "SOURCE_MISSING"
	// UnknownSymbol indicates a file was included but did not declare the symbol
	UnknownSymbol ErrorCode = "UNKNOWN_SYMBOL"
	// UndefinedSymbol is the host's error once every hook ran and the symbol is still undefined
	UndefinedSymbol ErrorCode = "UNDEFINED_SYMBOL"
	// SymbolRedeclared indicates two source units declare the same symbol
	SymbolRedeclared ErrorCode = "SYMBOL_REDECLARED"
	// ManifestNotFound indicates a manifest file does not exist
	ManifestNotFound ErrorCode = "MANIFEST_NOT_FOUND"
	// ManifestInvalid indicates a manifest could not be decoded
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// ConfigInvalid indicates configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Error represents a coded error with message and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// FixAction represents a suggested follow-up for an error
type FixAction struct {
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`
}

// New creates a new Error with the default suggested fixes for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error with the same code, so callers can compare
// against a bare code value such as &Error{Code: AliasNotFound}.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// CodeOf returns the code of the first *Error in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &Error{Code: code})
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	AliasNotFound: {
		{Command: "symres alias list", Description: "List registered aliases"},
	},
	SymbolNotFound: {
		{Command: "symres index", Description: "Regenerate the symbol manifest"},
	},
	UnknownSymbol: {
		{Description: "Check the namespace declaration of the source file"},
	},
	ManifestNotFound: {
		{Command: "symres index --output classes.json", Description: "Generate a manifest"},
	},
	ConfigInvalid: {
		{Command: "symres config show", Description: "Inspect the effective configuration"},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
