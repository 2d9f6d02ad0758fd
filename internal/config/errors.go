package config

import "errors"

// Sentinel errors for configuration validation.
var (
	// ErrConfigMissing indicates the configuration file was not found.
	ErrConfigMissing = errors.New("configuration file not found")
	// ErrMissingField indicates a required configuration field is empty.
	ErrMissingField = errors.New("required configuration field missing")
	// ErrUnknownStrategy indicates an unsupported development model type.
	ErrUnknownStrategy = errors.New("unsupported development model")
	// ErrUnknownCommitsFormat indicates an unsupported commits format type.
	ErrUnknownCommitsFormat = errors.New("unsupported commits format")
	// ErrDuplicateProject indicates two projects share the same path.
	ErrDuplicateProject = errors.New("duplicate project path")
	// ErrUnknownProject indicates a lookup for a path no project is configured with.
	ErrUnknownProject = errors.New("project not found in configuration")
)

// ValidationError records a configuration problem with its source context.
type ValidationError struct {
	Field       string
	ProjectPath string
	Err         error
}

// Error returns a human-readable string including project context.
func (e *ValidationError) Error() string {
	if e.ProjectPath != "" {
		return "project " + e.ProjectPath + ": " + e.Field + ": " + e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
