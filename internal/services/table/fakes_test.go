package table

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

type fakeRecords struct {
	mu sync.Mutex

	payments  []models.Payment
	fetchErr  error
	deleteErr error
	updateErr error
	updated   models.Payment

	deleted []string
	patches []models.PaymentPatch
}

func (f *fakeRecords) FetchAll(ctx context.Context) ([]models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]models.Payment, len(f.payments))
	copy(out, f.payments)
	return out, nil
}

func (f *fakeRecords) DeleteByID(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func (f *fakeRecords) UpdateByID(ctx context.Context, id string, patch models.PaymentPatch) (models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	return f.updated, f.updateErr
}

// gatedRecords blocks every FetchAll until the test releases it with a result.
type gatedRecords struct {
	fakeRecords
	started chan struct{}
	results chan fetchResult
}

type fetchResult struct {
	payments []models.Payment
	err      error
}

func newGatedRecords() *gatedRecords {
	return &gatedRecords{
		started: make(chan struct{}, 4),
		results: make(chan fetchResult),
	}
}

func (g *gatedRecords) FetchAll(ctx context.Context) ([]models.Payment, error) {
	g.started <- struct{}{}
	r := <-g.results
	return r.payments, r.err
}

type fakeDialog struct {
	result ports.DialogResult
	err    error
	opened []ports.DialogKind
}

func (f *fakeDialog) Open(ctx context.Context, kind ports.DialogKind, payload models.Payment) (ports.DialogResult, error) {
	f.opened = append(f.opened, kind)
	return f.result, f.err
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []ports.Notice
}

func (r *recordingNotifier) Notify(ctx context.Context, n ports.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) last() ports.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return ports.Notice{}
	}
	return r.notices[len(r.notices)-1]
}

type countingRecorder struct {
	mu      sync.Mutex
	actions map[string]int
	records int
}

func (c *countingRecorder) Action(action, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.actions == nil {
		c.actions = map[string]int{}
	}
	c.actions[action+"/"+outcome]++
}

func (c *countingRecorder) Records(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pay(id, first, last string, due int64, status string) models.Payment {
	return models.Payment{
		ID:             id,
		PayeeFirstName: first,
		PayeeLastName:  last,
		DueAmount:      decimal.NewFromInt(due),
		TotalDue:       decimal.NewFromInt(due),
		PaymentStatus:  status,
	}
}

func ids(rows []models.Payment) []string {
	out := make([]string, len(rows))
	for i, p := range rows {
		out[i] = p.ID
	}
	return out
}
