package table

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

// Recorder receives action outcomes for metrics.
type Recorder interface {
	Action(action, outcome string)
	Records(n int)
}

type nopRecorder struct{}

func (nopRecorder) Action(string, string) {}
func (nopRecorder) Records(int)           {}

// Controller owns the payment collection and the view state. It is the only caller
// of the record service and the dialog host.
//
// Every action applies its synchronous part under mu; service and dialog calls run
// unlocked and their results are applied once they complete.
type Controller struct {
	records  ports.RecordService
	dialogs  ports.DialogHost
	notifier ports.Notifier
	logger   *slog.Logger
	metrics  Recorder

	mu         sync.Mutex
	rows       []models.Payment
	state      State
	loadSeq    uint64
	loadFailed bool
	view       View
}

type Option func(*Controller)

func WithNotifier(n ports.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.metrics = r }
}

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.state.PageSize = n
		}
	}
}

func New(records ports.RecordService, dialogs ports.DialogHost, opts ...Option) *Controller {
	c := &Controller{
		records:  records,
		dialogs:  dialogs,
		notifier: ports.NopNotifier{},
		logger:   slog.Default(),
		metrics:  nopRecorder{},
		state:    DefaultState(),
	}
	for _, o := range opts {
		o(c)
	}
	c.recompute()
	return c
}

// Load replaces the collection with the service's records. Only the most recently
// started load may apply its result; older responses are dropped with ErrStaleLoad.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	fetched, err := c.records.FetchAll(ctx)

	c.mu.Lock()
	if seq != c.loadSeq {
		c.mu.Unlock()
		c.logger.Debug("[TABLE][LOAD] stale response dropped", "seq", seq)
		c.metrics.Action("load", "stale")
		return ErrStaleLoad
	}
	if err != nil {
		c.loadFailed = true
		c.recompute()
		c.mu.Unlock()

		c.logger.Error("[TABLE][LOAD][ERR] fetch payments", "seq", seq, "error", err)
		c.metrics.Action("load", "error")
		c.notify(ctx, ports.LevelError, "Could not load payments. Reload to try again.")
		return &Error{Kind: LoadFailure, Err: err}
	}

	c.rows = c.dedupe(fetched)
	c.loadFailed = false
	c.state.PageIndex = 0
	c.recompute()
	n := len(c.rows)
	c.mu.Unlock()

	c.logger.Info("[TABLE][LOAD][OK]", "seq", seq, "records", n)
	c.metrics.Action("load", "ok")
	c.metrics.Records(n)
	return nil
}

func (c *Controller) dedupe(in []models.Payment) []models.Payment {
	seen := make(map[string]struct{}, len(in))
	out := make([]models.Payment, 0, len(in))
	for _, p := range in {
		if _, dup := seen[p.ID]; dup {
			c.logger.Warn("[TABLE][LOAD][WARN] duplicate id dropped", "id", p.ID)
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

func (c *Controller) ApplyFilter(raw string) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Filter = NormalizeFilter(raw)
	c.state.PageIndex = 0
	c.recompute()
	return c.snapshot()
}

// ApplySort orders the view by key. DirNone or SortNone restores collection order.
func (c *Controller) ApplySort(key SortKey, dir Direction) (View, error) {
	key, err := ParseSortKey(string(key))
	if err != nil {
		return c.View(), err
	}
	switch dir {
	case DirNone, Asc, Desc:
	default:
		return c.View(), ErrUnknownDirection
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if key == SortNone || dir == DirNone {
		c.state.SortKey, c.state.SortDir = SortNone, DirNone
	} else {
		c.state.SortKey, c.state.SortDir = key, dir
	}
	c.recompute()
	return c.snapshot(), nil
}

// SetPage moves the page window. A non-positive size keeps the current size and an
// index past the last page lands on the last page.
func (c *Controller) SetPage(index, size int) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 {
		index = 0
	}
	c.state.PageIndex = index
	if size > 0 {
		c.state.PageSize = size
	}
	c.recompute()
	return c.snapshot()
}

// OpenView shows rec read-only. The dialog outcome is ignored.
func (c *Controller) OpenView(ctx context.Context, rec models.Payment) {
	if _, err := c.dialogs.Open(ctx, ports.DialogView, rec); err != nil {
		c.logger.Warn("[TABLE][VIEW][ERR] dialog", "id", rec.ID, "error", err)
	}
	c.metrics.Action("view", "ok")
}

// OpenEdit opens the edit dialog and commits a confirmed change through the record
// service. The collection only changes after the service accepts the update.
func (c *Controller) OpenEdit(ctx context.Context, rec models.Payment) error {
	res, err := c.dialogs.Open(ctx, ports.DialogEdit, rec)
	if err != nil {
		c.logger.Warn("[TABLE][EDIT][ERR] dialog, treated as cancel", "id", rec.ID, "error", err)
		c.metrics.Action("edit", "cancelled")
		return nil
	}
	if res.Cancelled() {
		c.metrics.Action("edit", "cancelled")
		return nil
	}

	committed := *res.Committed
	if committed.ID != rec.ID {
		c.metrics.Action("edit", "rejected")
		c.notify(ctx, ports.LevelError, "The record id cannot be changed.")
		return &Error{Kind: EditRejected, ID: rec.ID, Err: ErrIDMismatch}
	}
	if err := models.ValidateEdit(rec, committed); err != nil {
		c.metrics.Action("edit", "rejected")
		c.notify(ctx, ports.LevelError, "Invalid payment: "+err.Error())
		return &Error{Kind: EditRejected, ID: rec.ID, Err: err}
	}

	patch := models.Diff(rec, committed)
	if patch.Empty() {
		c.metrics.Action("edit", "unchanged")
		return nil
	}

	updated, err := c.records.UpdateByID(ctx, rec.ID, patch)
	if err != nil {
		c.logger.Error("[TABLE][EDIT][ERR] update payment", "id", rec.ID, "error", err)
		c.metrics.Action("edit", "error")
		c.notify(ctx, ports.LevelError, "There was an error saving the payment. Please try again.")
		return &Error{Kind: EditCommitFailure, ID: rec.ID, Err: err}
	}
	if updated.ID != "" && updated.ID != rec.ID {
		c.logger.Error("[TABLE][EDIT][ERR] service returned another record", "id", rec.ID, "returned_id", updated.ID)
		c.metrics.Action("edit", "error")
		c.notify(ctx, ports.LevelError, "There was an error saving the payment. Please try again.")
		return &Error{Kind: EditCommitFailure, ID: rec.ID, Err: ErrIDMismatch}
	}

	c.mu.Lock()
	idx := c.indexOf(rec.ID)
	if idx < 0 {
		c.mu.Unlock()
		c.logger.Warn("[TABLE][EDIT] record left the collection before the update completed", "id", rec.ID)
		c.metrics.Action("edit", "ok")
		return nil
	}
	if updated.ID == "" {
		updated = patch.Apply(c.rows[idx])
	}
	c.rows[idx] = updated
	c.recompute()
	c.mu.Unlock()

	c.logger.Info("[TABLE][EDIT][OK]", "id", rec.ID)
	c.metrics.Action("edit", "ok")
	c.notify(ctx, ports.LevelSuccess, "Record updated successfully.")
	return nil
}

// Delete removes rec through the record service. The row stays until the service
// confirms; a not-found answer counts as already deleted.
func (c *Controller) Delete(ctx context.Context, rec models.Payment) error {
	err := c.records.DeleteByID(ctx, rec.ID)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		c.logger.Warn("[TABLE][DELETE] already gone on the service", "id", rec.ID)
		c.remove(rec.ID)
		c.metrics.Action("delete", "not_found")
		c.notify(ctx, ports.LevelInfo, "Record was already deleted.")
		return nil
	case err != nil:
		c.logger.Error("[TABLE][DELETE][ERR] delete payment", "id", rec.ID, "error", err)
		c.metrics.Action("delete", "error")
		c.notify(ctx, ports.LevelError, "There was an error deleting the item. Please try again.")
		return &Error{Kind: DeleteFailure, ID: rec.ID, Err: err}
	}

	c.remove(rec.ID)
	c.logger.Info("[TABLE][DELETE][OK]", "id", rec.ID)
	c.metrics.Action("delete", "ok")
	c.notify(ctx, ports.LevelSuccess, "Record deleted successfully.")
	return nil
}

func (c *Controller) remove(id string) {
	c.mu.Lock()
	idx := c.indexOf(id)
	if idx >= 0 {
		c.rows = append(c.rows[:idx:idx], c.rows[idx+1:]...)
		c.recompute()
	}
	n := len(c.rows)
	c.mu.Unlock()
	c.metrics.Records(n)
}

// View returns the current projected view.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Rows returns a copy of the whole collection in collection order.
func (c *Controller) Rows() []models.Payment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Payment, len(c.rows))
	copy(out, c.rows)
	return out
}

// Filtered returns every row matching the current filter, in the current order.
func (c *Controller) Filtered() []models.Payment {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Filtered(c.rows, c.state)
}

func (c *Controller) Find(id string) (models.Payment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexOf(id); idx >= 0 {
		return c.rows[idx], true
	}
	return models.Payment{}, false
}

func (c *Controller) indexOf(id string) int {
	for i := range c.rows {
		if c.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// recompute must be called with mu held.
func (c *Controller) recompute() {
	c.view = Project(c.rows, c.state)
	c.view.LoadFailed = c.loadFailed
	c.state.PageIndex = c.view.PageIndex
	c.state.PageSize = c.view.PageSize
}

// snapshot must be called with mu held.
func (c *Controller) snapshot() View {
	v := c.view
	v.Rows = make([]models.Payment, len(c.view.Rows))
	copy(v.Rows, c.view.Rows)
	return v
}

func (c *Controller) notify(ctx context.Context, level ports.Level, msg string) {
	c.notifier.Notify(ctx, ports.Notice{Level: level, Message: msg})
}
