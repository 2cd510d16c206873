package table

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

const DefaultPageSize = 10

type SortKey string

const (
	SortNone      SortKey = ""
	SortFirstName SortKey = "payee_first_name"
	SortLastName  SortKey = "payee_last_name"
	SortDueAmount SortKey = "due_amount"
	SortStatus    SortKey = "payee_payment_status"
	SortTotalDue  SortKey = "total_due"
	SortEvidence  SortKey = "evidence"
)

var SortKeys = []SortKey{SortFirstName, SortLastName, SortDueAmount, SortStatus, SortTotalDue, SortEvidence}

func (k SortKey) numeric() bool {
	return k == SortDueAmount || k == SortTotalDue
}

func ParseSortKey(s string) (SortKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return SortNone, nil
	}
	for _, k := range SortKeys {
		if string(k) == s {
			return k, nil
		}
	}
	// short column aliases used on the console
	switch s {
	case "first", "first_name":
		return SortFirstName, nil
	case "last", "last_name":
		return SortLastName, nil
	case "due":
		return SortDueAmount, nil
	case "status":
		return SortStatus, nil
	case "total":
		return SortTotalDue, nil
	}
	return SortNone, fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
}

type Direction string

const (
	DirNone Direction = ""
	Asc     Direction = "asc"
	Desc    Direction = "desc"
)

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc":
		return Asc, nil
	case "desc":
		return Desc, nil
	case "none":
		return DirNone, nil
	}
	return DirNone, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// State is the view state owned by the controller.
type State struct {
	Filter    string    `json:"filter"`
	SortKey   SortKey   `json:"sort_key,omitempty"`
	SortDir   Direction `json:"sort_dir,omitempty"`
	PageIndex int       `json:"page_index"`
	PageSize  int       `json:"page_size"`
}

func DefaultState() State {
	return State{PageSize: DefaultPageSize}
}

func (s State) sorted() bool {
	return s.SortKey != SortNone && s.SortDir != DirNone
}

// NormalizeFilter trims and case-folds raw filter input.
func NormalizeFilter(raw string) string {
	return fold(strings.TrimSpace(raw))
}

func fold(s string) string {
	return cases.Fold().String(s)
}
