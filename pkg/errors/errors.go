// Package errors provides custom error types for the ghostmerge system.
// These errors enable programmatic error checking across the merge engine,
// the decision sources and the file collaborators.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the ghostmerge system
var (
	// ErrNotFound indicates that a requested finding or file was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAborted indicates that the operator or a decision source aborted the run
	ErrAborted = errors.New("merge aborted")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrContractViolation indicates a decision that breaks the caller contract
	// (removing a required field, a manual value of the wrong type)
	ErrContractViolation = errors.New("decision contract violation")

	// ErrInvariant indicates an internal invariant was broken
	ErrInvariant = errors.New("invariant violation")

	// ErrLocked indicates an output file is held by another writer
	ErrLocked = errors.New("file locked")
)

// NotFoundError represents an error when a finding or resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// DecisionError represents a failure of the decision source while the
// engine was suspended on a query. It always aborts the run.
type DecisionError struct {
	Query string // "match", "field", "orphan-continue", "pairing"
	Ref   string // match or field reference, e.g. "L1/R3:severity"
	Err   error
}

// Error implements the error interface
func (e *DecisionError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("decision source failed on %s query for %s: %v", e.Query, e.Ref, e.Err)
	}
	return fmt.Sprintf("decision source failed on %s query: %v", e.Query, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *DecisionError) Unwrap() error {
	return e.Err
}

// NewDecisionError creates a new DecisionError
func NewDecisionError(query, ref string, err error) *DecisionError {
	return &DecisionError{Query: query, Ref: ref, Err: err}
}

// ContractError represents a decision rejected at the decision boundary.
type ContractError struct {
	Field    string
	Decision string
	Message  string
	Attempts int
}

// Error implements the error interface
func (e *ContractError) Error() string {
	msg := fmt.Sprintf("%s decision for %s rejected: %s", e.Decision, e.Field, e.Message)
	if e.Attempts > 0 {
		msg += fmt.Sprintf(" (after %d attempts)", e.Attempts)
	}
	return msg
}

// Is implements errors.Is support
func (e *ContractError) Is(target error) bool {
	return target == ErrContractViolation
}

// NewContractError creates a new ContractError
func NewContractError(field, decision, message string) *ContractError {
	return &ContractError{Field: field, Decision: decision, Message: message}
}

// InvariantError reports an internal invariant violation.
type InvariantError struct {
	Component string
	Message   string
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated in %s: %s", e.Component, e.Message)
}

// Is implements errors.Is support
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

// NewInvariantError creates a new InvariantError
func NewInvariantError(component, message string) *InvariantError {
	return &InvariantError{Component: component, Message: message}
}

// ScanError represents a sensitivity scan failure on one field.
type ScanError struct {
	Field string
	Err   error
}

// Error implements the error interface
func (e *ScanError) Error() string {
	return fmt.Sprintf("sensitivity scan failed for %s: %v", e.Field, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *ScanError) Unwrap() error {
	return e.Err
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "toml", "terms"
	File    string
	Line    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Line > 0 {
		return fmt.Sprintf("parse error in %s at %s:%d: %s", e.Format, e.File, e.Line, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "create", "rename", "lock"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// MultiError collects several validation problems found in one pass.
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Unwrap implements multi-error unwrapping for errors.Is and errors.As
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// Append adds a non-nil error.
func (e *MultiError) Append(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ErrorOrNil returns nil when nothing was collected.
func (e *MultiError) ErrorOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAborted checks if the run was aborted by the decision source
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted)
}

// IsCanceled checks if an error is a cancellation error, including a
// canceled context
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// IsContractViolation checks if a decision was rejected at the boundary
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrContractViolation)
}

// IsLocked checks if an output file was locked by another writer
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return &ParseError{Format: format, File: file, Message: err.Error(), Err: err}
}

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As
