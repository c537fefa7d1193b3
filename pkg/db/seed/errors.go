package seed

import (
	"fmt"
	"strings"
)

// IntegrityError reports a dataset row that cannot be loaded without breaking
// referential or natural key integrity.
type IntegrityError struct {
	Table       string
	RowID       int64
	Column      string
	ParentTable string
	ParentID    int64
	// ExistingID is set when the natural key already belongs to another row.
	ExistingID int64
	Reason     string
}

func (e *IntegrityError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s#%d", e.Table, e.RowID)
	switch {
	case e.ParentTable != "":
		fmt.Fprintf(&b, ": %s references missing %s#%d", e.Column, e.ParentTable, e.ParentID)
	case e.ExistingID != 0:
		fmt.Fprintf(&b, ": key (%s) already held by id %d", e.Column, e.ExistingID)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// LoadError wraps the failure of a Load. Applied lists the rows written before
// the failure; the transaction normally discards them.
type LoadError struct {
	Table   string
	RowID   int64
	Applied *Result
	Err     error
}

func (e *LoadError) Error() string {
	if e.Table == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s#%d: %v", e.Table, e.RowID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
