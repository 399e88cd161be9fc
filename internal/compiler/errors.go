package compiler

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ParseFailure is a model-call problem during parsing. Fatal: retries
// belong to the model-call collaborator, not the compiler.
type ParseFailure struct {
	Err error
}

func (e *ParseFailure) Error() string { return fmt.Sprintf("parsing request: %v", e.Err) }
func (e *ParseFailure) Unwrap() error { return e.Err }

// UnknownActionError means the selected action id is missing from the
// catalog snapshot. Fatal: it indicates a catalog/selector desync, a bug.
type UnknownActionError struct {
	ActionID string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("selected action %q not in catalog", e.ActionID)
}

// RepairExhausted means the repair budget is consumed. Fatal for the run
// but user-actionable: Failing carries the last validation error per
// parameter so the caller sees exactly what remains wrong.
type RepairExhausted struct {
	Attempts int
	Failing  map[string]string
}

func (e *RepairExhausted) Error() string {
	names := make([]string, 0, len(e.Failing))
	for name := range e.Failing {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("repair budget (%d) exhausted, still failing: %s",
		e.Attempts, strings.Join(names, ", "))
}

// AssemblyInvariantViolation is a programming error: assembly was invoked
// with state that validation should have ruled out.
type AssemblyInvariantViolation struct {
	Err error
}

func (e *AssemblyInvariantViolation) Error() string {
	return fmt.Sprintf("assembly invariant violated: %v", e.Err)
}
func (e *AssemblyInvariantViolation) Unwrap() error { return e.Err }

func IsParseFailure(err error) bool {
	var pf *ParseFailure
	return errors.As(err, &pf)
}

func IsRepairExhausted(err error) bool {
	var re *RepairExhausted
	return errors.As(err, &re)
}

func IsUnknownAction(err error) bool {
	var ua *UnknownActionError
	return errors.As(err, &ua)
}
