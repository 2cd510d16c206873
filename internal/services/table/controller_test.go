package table

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

func newController(t *testing.T, rec ports.RecordService, dlg ports.DialogHost, opts ...Option) (*Controller, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	opts = append([]Option{WithNotifier(n), WithLogger(quietLogger())}, opts...)
	return New(rec, dlg, opts...), n
}

func TestLoadKeepsReceivedOrder(t *testing.T) {
	rec := &fakeRecords{payments: sample()}
	c, _ := newController(t, rec, &fakeDialog{})

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, want := ids(c.Rows()), []string{"1", "2", "3", "4"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("rows: got %v want %v", got, want)
	}
}

func TestLoadResetsPageButKeepsFilterAndSort(t *testing.T) {
	var rows []models.Payment
	for i := 0; i < 30; i++ {
		rows = append(rows, pay(fmt.Sprint(i), "john", "x", int64(i), models.StatusPending))
	}
	rec := &fakeRecords{payments: rows}
	c, _ := newController(t, rec, &fakeDialog{})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	c.ApplyFilter("john")
	if _, err := c.ApplySort(SortDueAmount, Desc); err != nil {
		t.Fatal(err)
	}
	c.SetPage(2, 10)

	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	st := c.State()
	if st.PageIndex != 0 || st.Filter != "john" || st.SortKey != SortDueAmount || st.SortDir != Desc {
		t.Fatalf("state after reload: %+v", st)
	}
}

func TestLoadFailureKeepsPriorCollection(t *testing.T) {
	rec := &fakeRecords{payments: sample()}
	c, n := newController(t, rec, &fakeDialog{})
	ctx := context.Background()

	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	rec.fetchErr = errors.New("connection refused")
	err := c.Load(ctx)
	if !IsKind(err, LoadFailure) {
		t.Fatalf("expected load failure, got %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("collection changed on failed load: %d", c.Len())
	}
	if !c.View().LoadFailed {
		t.Fatal("view must report the failed load")
	}
	if n.last().Level != ports.LevelError {
		t.Fatalf("expected error notice, got %+v", n.last())
	}
}

func TestFirstLoadFailureLeavesEmptyTable(t *testing.T) {
	rec := &fakeRecords{fetchErr: errors.New("boom")}
	c, _ := newController(t, rec, &fakeDialog{})
	if err := c.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if v := c.View(); len(v.Rows) != 0 || v.TotalFiltered != 0 {
		t.Fatalf("expected empty view, got %+v", v)
	}
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	rows := append(sample(), pay("2", "Other", "Jane", 1, models.StatusPending))
	c, _ := newController(t, &fakeRecords{payments: rows}, &fakeDialog{})
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 4 {
		t.Fatalf("expected duplicate to be dropped, got %d rows", c.Len())
	}
	if p, _ := c.Find("2"); p.PayeeFirstName != "Jane" {
		t.Fatalf("first occurrence must win, got %+v", p)
	}
}

func TestStaleLoadResponseIsDiscarded(t *testing.T) {
	rec := newGatedRecords()
	c, _ := newController(t, rec, &fakeDialog{})
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- c.Load(ctx) }()
	<-rec.started

	second := make(chan error, 1)
	go func() { second <- c.Load(ctx) }()
	<-rec.started

	// both loads are in flight; only the one issued last may apply its result
	rec.results <- fetchResult{payments: []models.Payment{pay("new", "N", "N", 1, models.StatusPending)}}
	rec.results <- fetchResult{payments: []models.Payment{pay("old", "O", "O", 1, models.StatusPending)}}

	errs := []error{<-first, <-second}
	stale := 0
	for _, err := range errs {
		if errors.Is(err, ErrStaleLoad) {
			stale++
		} else if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if stale != 1 {
		t.Fatalf("expected exactly one stale response, got %d (%v)", stale, errs)
	}
	if c.Len() != 1 {
		t.Fatalf("expected a single record, got %d", c.Len())
	}
}

func TestApplyFilterResetsPage(t *testing.T) {
	var rows []models.Payment
	for i := 0; i < 25; i++ {
		rows = append(rows, pay(fmt.Sprint(i), "Ann", "Lee", 1, models.StatusPending))
	}
	c, _ := newController(t, &fakeRecords{payments: rows}, &fakeDialog{})
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.SetPage(2, 10)
	v := c.ApplyFilter("ann")
	if v.PageIndex != 0 {
		t.Fatalf("filter must reset page, got %d", v.PageIndex)
	}
}

func TestSetPageClampsToLastPage(t *testing.T) {
	c, _ := newController(t, &fakeRecords{payments: sample()}, &fakeDialog{})
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	v := c.SetPage(7, 3)
	if v.PageIndex != 1 || len(v.Rows) != 1 {
		t.Fatalf("expected clamp to page 1 with 1 row, got %+v", v)
	}
	if v := c.SetPage(-3, 0); v.PageIndex != 0 || v.PageSize != 3 {
		t.Fatalf("negative index / zero size: %+v", v)
	}
}

func TestApplySortRejectsUnknownKey(t *testing.T) {
	c, _ := newController(t, &fakeRecords{}, &fakeDialog{})
	if _, err := c.ApplySort("colour", Asc); !errors.Is(err, ErrUnknownSortKey) {
		t.Fatalf("expected ErrUnknownSortKey, got %v", err)
	}
	if _, err := c.ApplySort(SortDueAmount, "sideways"); !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("expected ErrUnknownDirection, got %v", err)
	}
}

func TestApplySortNoneRestoresCollectionOrder(t *testing.T) {
	c, _ := newController(t, &fakeRecords{payments: sample()}, &fakeDialog{})
	if err := c.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := c.ApplySort(SortDueAmount, Desc); err != nil {
		t.Fatal(err)
	}
	v, err := c.ApplySort(SortDueAmount, DirNone)
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(v.Rows); !reflect.DeepEqual(got, []string{"1", "2", "3", "4"}) {
		t.Fatalf("insertion order expected, got %v", got)
	}
}

func TestDeleteScenario(t *testing.T) {
	rec := &fakeRecords{payments: []models.Payment{
		pay("1", "John", "A", 100, models.StatusPending),
		pay("2", "Jane", "B", 200, models.StatusPending),
	}}
	c, n := newController(t, rec, &fakeDialog{})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	v := c.ApplyFilter("john")
	if got := ids(v.Rows); !reflect.DeepEqual(got, []string{"1"}) {
		t.Fatalf("filter: got %v", got)
	}

	if err := c.Delete(ctx, v.Rows[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := ids(c.Rows()); !reflect.DeepEqual(got, []string{"2"}) {
		t.Fatalf("collection after delete: %v", got)
	}
	if !reflect.DeepEqual(rec.deleted, []string{"1"}) {
		t.Fatalf("service calls: %v", rec.deleted)
	}
	if n.last().Level != ports.LevelSuccess {
		t.Fatalf("expected success notice, got %+v", n.last())
	}
}

func TestDeleteFailureKeepsRow(t *testing.T) {
	rec := &fakeRecords{payments: sample(), deleteErr: errors.New("503")}
	metrics := &countingRecorder{}
	c, n := newController(t, rec, &fakeDialog{}, WithRecorder(metrics))
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	err := c.Delete(ctx, sample()[0])
	if !IsKind(err, DeleteFailure) {
		t.Fatalf("expected delete failure, got %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("row removed on failure: %d", c.Len())
	}
	if _, ok := c.Find("1"); !ok {
		t.Fatal("row 1 must remain")
	}
	if n.last().Level != ports.LevelError {
		t.Fatalf("expected error notice, got %+v", n.last())
	}
	if metrics.actions["delete/error"] != 1 {
		t.Fatalf("metrics: %v", metrics.actions)
	}
}

func TestDeleteNotFoundIsNoop(t *testing.T) {
	rec := &fakeRecords{payments: sample(), deleteErr: fmt.Errorf("delete 1: %w", ports.ErrNotFound)}
	c, n := newController(t, rec, &fakeDialog{})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete(ctx, sample()[0]); err != nil {
		t.Fatalf("not found must not fail: %v", err)
	}
	if _, ok := c.Find("1"); ok {
		t.Fatal("row already gone on the service should leave the table")
	}
	if n.last().Level != ports.LevelInfo {
		t.Fatalf("expected info notice, got %+v", n.last())
	}

	// a second delete of the same id does not crash either
	if err := c.Delete(ctx, sample()[0]); err != nil {
		t.Fatalf("repeat delete: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", c.Len())
	}
}

func TestOpenViewDoesNotMutate(t *testing.T) {
	dlg := &fakeDialog{result: ports.Committed(pay("1", "Changed", "X", 1, models.StatusPending))}
	c, _ := newController(t, &fakeRecords{payments: sample()}, dlg)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	c.OpenView(ctx, sample()[0])
	if p, _ := c.Find("1"); p.PayeeFirstName != "John" {
		t.Fatalf("view mutated the collection: %+v", p)
	}
	if !reflect.DeepEqual(dlg.opened, []ports.DialogKind{ports.DialogView}) {
		t.Fatalf("dialogs opened: %v", dlg.opened)
	}
}

func TestOpenEditCommitReplacesRecord(t *testing.T) {
	orig := sample()[0]
	edited := orig
	edited.DueAmount = decimal.NewFromInt(150)
	edited.PaymentStatus = models.StatusOverdue

	rec := &fakeRecords{payments: sample()}
	dlg := &fakeDialog{result: ports.Committed(edited)}
	c, n := newController(t, rec, dlg)
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := c.OpenEdit(ctx, orig); err != nil {
		t.Fatalf("edit: %v", err)
	}
	got, _ := c.Find("1")
	if !got.DueAmount.Equal(decimal.NewFromInt(150)) || got.PaymentStatus != models.StatusOverdue {
		t.Fatalf("record not replaced: %+v", got)
	}
	if len(rec.patches) != 1 || rec.patches[0].DueAmount == nil || rec.patches[0].PaymentStatus == nil {
		t.Fatalf("unexpected patch: %+v", rec.patches)
	}
	if ids(c.Rows())[0] != "1" {
		t.Fatal("edited record must keep its position")
	}
	if n.last().Level != ports.LevelSuccess {
		t.Fatalf("expected success notice, got %+v", n.last())
	}
}

func TestOpenEditUsesServiceRecordWhenEchoed(t *testing.T) {
	orig := sample()[0]
	edited := orig
	edited.DueAmount = decimal.NewFromInt(150)
	echoed := edited
	echoed.TotalDue = decimal.RequireFromString("157.50")

	rec := &fakeRecords{payments: sample(), updated: echoed}
	c, _ := newController(t, rec, &fakeDialog{result: ports.Committed(edited)})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.OpenEdit(ctx, orig); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Find("1"); !got.TotalDue.Equal(echoed.TotalDue) {
		t.Fatalf("expected service record, got %+v", got)
	}
}

func TestOpenEditCancelIsNoop(t *testing.T) {
	rec := &fakeRecords{payments: sample()}
	c, _ := newController(t, rec, &fakeDialog{result: ports.Cancelled()})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.OpenEdit(ctx, sample()[0]); err != nil {
		t.Fatal(err)
	}
	if len(rec.patches) != 0 {
		t.Fatalf("cancel must not call the service: %v", rec.patches)
	}
}

func TestOpenEditDialogErrorIsCancel(t *testing.T) {
	rec := &fakeRecords{payments: sample()}
	c, _ := newController(t, rec, &fakeDialog{err: context.Canceled})
	if err := c.OpenEdit(context.Background(), sample()[0]); err != nil {
		t.Fatalf("dialog error must be treated as cancel: %v", err)
	}
	if len(rec.patches) != 0 {
		t.Fatal("service called after dialog error")
	}
}

func TestOpenEditCommitFailureKeepsPrior(t *testing.T) {
	orig := sample()[0]
	edited := orig
	edited.DueAmount = decimal.NewFromInt(999)

	rec := &fakeRecords{payments: sample(), updateErr: errors.New("500")}
	c, n := newController(t, rec, &fakeDialog{result: ports.Committed(edited)})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	err := c.OpenEdit(ctx, orig)
	if !IsKind(err, EditCommitFailure) {
		t.Fatalf("expected commit failure, got %v", err)
	}
	if got, _ := c.Find("1"); !got.DueAmount.Equal(orig.DueAmount) {
		t.Fatalf("prior value lost: %+v", got)
	}
	if n.last().Level != ports.LevelError {
		t.Fatalf("expected error notice, got %+v", n.last())
	}
}

func TestOpenEditRejectsChangedID(t *testing.T) {
	orig := sample()[0]
	edited := orig
	edited.ID = "other"
	rec := &fakeRecords{payments: sample()}
	c, _ := newController(t, rec, &fakeDialog{result: ports.Committed(edited)})
	if err := c.OpenEdit(context.Background(), orig); !errors.Is(err, ErrIDMismatch) {
		t.Fatalf("expected ErrIDMismatch, got %v", err)
	}
	if len(rec.patches) != 0 {
		t.Fatal("service called for a rejected edit")
	}
}

func TestOpenEditRejectsInvalidRecord(t *testing.T) {
	orig := sample()[0]
	edited := orig
	edited.PaymentStatus = models.StatusCompleted // no evidence
	rec := &fakeRecords{payments: sample()}
	c, _ := newController(t, rec, &fakeDialog{result: ports.Committed(edited)})
	if err := c.OpenEdit(context.Background(), orig); !IsKind(err, EditRejected) {
		t.Fatalf("expected rejected edit, got %v", err)
	}
}

func TestOpenEditWithoutChangesSkipsService(t *testing.T) {
	orig := sample()[0]
	rec := &fakeRecords{payments: sample()}
	c, _ := newController(t, rec, &fakeDialog{result: ports.Committed(orig)})
	if err := c.OpenEdit(context.Background(), orig); err != nil {
		t.Fatal(err)
	}
	if len(rec.patches) != 0 {
		t.Fatal("unchanged edit must not reach the service")
	}
}

func TestDeleteKeepsPageInRange(t *testing.T) {
	var rows []models.Payment
	for i := 0; i < 11; i++ {
		rows = append(rows, pay(fmt.Sprint(i), "A", "B", 1, models.StatusPending))
	}
	c, _ := newController(t, &fakeRecords{payments: rows}, &fakeDialog{})
	ctx := context.Background()
	if err := c.Load(ctx); err != nil {
		t.Fatal(err)
	}
	v := c.SetPage(1, 10)
	if len(v.Rows) != 1 {
		t.Fatalf("expected one row on page 2, got %d", len(v.Rows))
	}
	if err := c.Delete(ctx, v.Rows[0]); err != nil {
		t.Fatal(err)
	}
	v = c.View()
	if v.PageIndex != 0 || len(v.Rows) != 10 {
		t.Fatalf("page must move back once emptied: %+v", v)
	}
}
