package schema

import (
	"fmt"
	"strings"
)

// Kind classifies a ConstraintViolation.
type Kind string

const (
	KindEnum       Kind = "enum"
	KindUnique     Kind = "unique"
	KindForeignKey Kind = "foreign_key"
	KindCheck      Kind = "check"
	KindAppendOnly Kind = "append_only"
)

// ConstraintViolation reports a write rejected by a registry rule or by the store.
// Err holds the underlying driver error when the store raised it.
type ConstraintViolation struct {
	Kind       Kind
	Table      string
	Column     string
	Constraint string
	Value      string
	Allowed    []string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(" constraint violated")
	if e.Table != "" {
		b.WriteString(" on ")
		b.WriteString(e.Table)
		if e.Column != "" {
			b.WriteString(".")
			b.WriteString(e.Column)
		}
	}
	if e.Constraint != "" {
		fmt.Fprintf(&b, " (%s)", e.Constraint)
	}
	if e.Kind == KindEnum {
		fmt.Fprintf(&b, ": %q not in [%s]", e.Value, strings.Join(e.Allowed, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// ConfigError reports a model set that cannot form a consistent registry.
type ConfigError struct {
	Table  string
	Column string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("schema config: %s.%s: %s", e.Table, e.Column, e.Reason)
	}
	if e.Table != "" {
		return fmt.Sprintf("schema config: %s: %s", e.Table, e.Reason)
	}
	return "schema config: " + e.Reason
}
