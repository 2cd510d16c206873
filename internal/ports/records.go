package ports

import (
	"context"
	"errors"

	"payments_admin/internal/models"
)

// ErrNotFound is returned by a RecordService when the id does not exist (any more).
var ErrNotFound = errors.New("payment not found")

// RecordService is the remote boundary holding the payment records.
// Calls are single-shot: implementations never retry and report every failure as an error.
type RecordService interface {
	FetchAll(ctx context.Context) ([]models.Payment, error)
	DeleteByID(ctx context.Context, id string) error
	// UpdateByID returns the stored record. A zero Payment with a nil error means the
	// update was accepted but the service does not echo the record back.
	UpdateByID(ctx context.Context, id string, patch models.PaymentPatch) (models.Payment, error)
}

// Pinger is implemented by record services that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
