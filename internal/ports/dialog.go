package ports

import (
	"context"

	"payments_admin/internal/models"
)

type DialogKind string

const (
	DialogView DialogKind = "view"
	DialogEdit DialogKind = "edit"
)

// DialogResult is the single resolution of an opened dialog.
type DialogResult struct {
	Committed *models.Payment
}

func (r DialogResult) Cancelled() bool { return r.Committed == nil }

func Committed(p models.Payment) DialogResult { return DialogResult{Committed: &p} }

func Cancelled() DialogResult { return DialogResult{} }

// DialogHost presents a modal for a record and resolves exactly once.
type DialogHost interface {
	Open(ctx context.Context, kind DialogKind, payload models.Payment) (DialogResult, error)
}
