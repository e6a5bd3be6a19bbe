package services

import (
	"fmt"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

type ErrorClass string

const (
	// ClassValidation covers duplicates, field rules and unresolved references.
	ClassValidation ErrorClass = "validation"
	// ClassWrite covers a record whose transactional write failed.
	ClassWrite ErrorClass = "write"
	// ClassIntegrity covers post-import count mismatches.
	ClassIntegrity ErrorClass = "integrity"
)

// ImportError is one reportable problem. It never aborts the run on its own.
type ImportError struct {
	Scope    domain.Kind `json:"scope"`
	LegacyID string      `json:"legacyId"`
	Message  string      `json:"message"`
	Class    ErrorClass  `json:"-"`
}

func (e ImportError) String() string {
	if e.LegacyID == "" {
		return fmt.Sprintf("%s: %s", e.Scope, e.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", e.Scope, e.LegacyID, e.Message)
}

// ErrorList accumulates errors in the order they were found.
type ErrorList struct {
	items []ImportError
}

func (l *ErrorList) Add(e ImportError) {
	l.items = append(l.items, e)
}

func (l *ErrorList) Len() int {
	return len(l.items)
}

func (l *ErrorList) All() []ImportError {
	return append([]ImportError(nil), l.items...)
}

// First returns at most n errors.
func (l *ErrorList) First(n int) []ImportError {
	if n < 0 || n >= len(l.items) {
		return l.All()
	}
	return append([]ImportError(nil), l.items[:n]...)
}

func (l *ErrorList) CountByClass() map[ErrorClass]int {
	out := make(map[ErrorClass]int)
	for _, e := range l.items {
		out[e.Class]++
	}
	return out
}

func (l *ErrorList) CountForKind(kind domain.Kind) int {
	n := 0
	for _, e := range l.items {
		if e.Scope == kind {
			n++
		}
	}
	return n
}
