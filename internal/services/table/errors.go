package table

import (
	"errors"
	"fmt"
)

var (
	ErrStaleLoad        = errors.New("stale load response discarded")
	ErrUnknownSortKey   = errors.New("unknown sort key")
	ErrUnknownDirection = errors.New("unknown sort direction")
	ErrIDMismatch       = errors.New("record id changed")
)

type Kind string

const (
	LoadFailure       Kind = "load"
	DeleteFailure     Kind = "delete"
	EditCommitFailure Kind = "edit_commit"
	EditRejected      Kind = "edit_rejected"
)

// Error is a record service or edit failure caught at the controller boundary.
type Error struct {
	Kind Kind
	ID   string
	Err  error
}

func (e *Error) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s failed: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Kind, e.ID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a controller Error of the given kind.
func IsKind(err error, k Kind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == k
}
