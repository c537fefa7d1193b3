package migrate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupported is returned by operations the dialect cannot perform in place.
	ErrUnsupported = errors.New("not supported by this dialect")

	// ErrMigrationInProgress is returned by Quiesce while a migration holds the
	// lock or left the version marker dirty.
	ErrMigrationInProgress = errors.New("migration in progress")
)

const (
	ReasonDeclaration = "invalid declaration"
	ReasonUnknown     = "applied version is not declared"
	ReasonGap         = "unapplied version below the applied head"
	ReasonDirty       = "version marker is dirty"
)

// SequenceError reports a declared history that cannot be reconciled with the
// store. Nothing is applied when it is returned.
type SequenceError struct {
	Reason  string
	Version int64
	Detail  string
}

func (e *SequenceError) Error() string {
	msg := fmt.Sprintf("migration sequence: %s at version %d", e.Reason, e.Version)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// PartialState describes a non-transactional migration that failed part way.
// The version marker stays dirty until Repair is called.
type PartialState struct {
	Version   int64
	Name      string
	Direction Direction
	Completed []string
	Failed    string
	Err       error
}

func (e *PartialState) Error() string {
	done := "none"
	if len(e.Completed) > 0 {
		done = strings.Join(e.Completed, "; ")
	}
	return fmt.Sprintf("%s (%s) partially applied: completed [%s], failed at %q: %v",
		migrationID(e.Version, e.Name), e.Direction, done, e.Failed, e.Err)
}

func (e *PartialState) Unwrap() error { return e.Err }

// MigrationError names the migration whose transaction failed and rolled back.
type MigrationError struct {
	Version   int64
	Name      string
	Direction Direction
	Err       error
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("%s: %v", migrationID(e.Version, e.Name), e.Err)
}

func (e *MigrationError) Unwrap() error { return e.Err }
