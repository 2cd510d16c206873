package dialog

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

const cancelInput = ":q"

// Terminal presents payment dialogs on a line-oriented terminal. In is shared with
// the console so both read from the same buffered stream.
type Terminal struct {
	In       *bufio.Reader
	Out      io.Writer
	Evidence ports.EvidenceOpener
}

var _ ports.DialogHost = (*Terminal)(nil)

func NewTerminal(in *bufio.Reader, out io.Writer, evidence ports.EvidenceOpener) *Terminal {
	return &Terminal{In: in, Out: out, Evidence: evidence}
}

func (t *Terminal) Open(ctx context.Context, kind ports.DialogKind, p models.Payment) (ports.DialogResult, error) {
	switch kind {
	case ports.DialogView:
		return ports.Cancelled(), t.view(ctx, p)
	case ports.DialogEdit:
		return t.edit(ctx, p)
	default:
		return ports.Cancelled(), fmt.Errorf("unknown dialog kind %q", kind)
	}
}

func (t *Terminal) view(ctx context.Context, p models.Payment) error {
	t.printf("── payment %s ──\n", p.ID)
	t.printRecord(p)
	if t.Evidence != nil && strings.TrimSpace(p.Evidence) != "" {
		t.printEvidenceMeta(ctx, p.Evidence)
	}
	t.printf("press Enter to close ")
	_, err := t.readLine(ctx)
	t.printf("\n")
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (t *Terminal) printRecord(p models.Payment) {
	t.printf("  %-22s %s\n", "payee:", p.FullName())
	t.printf("  %-22s %s\n", "due_amount:", amount(p.DueAmount, p.Currency))
	t.printf("  %-22s %s%%\n", "discount_percent:", p.DiscountPercent)
	t.printf("  %-22s %s%%\n", "tax_percent:", p.TaxPercent)
	t.printf("  %-22s %s\n", "total_due:", amount(p.TotalDue, p.Currency))
	t.printf("  %-22s %s\n", "payee_payment_status:", p.PaymentStatus)
	t.printf("  %-22s %s\n", "evidence:", orDash(p.Evidence))
}

func (t *Terminal) printEvidenceMeta(ctx context.Context, ref string) {
	rc, meta, err := t.Evidence.Open(ctx, ref)
	if err != nil {
		t.printf("  %-22s unavailable (%v)\n", "evidence file:", err)
		return
	}
	rc.Close()

	size := "unknown size"
	if meta.Size >= 0 {
		size = fmt.Sprintf("%d bytes", meta.Size)
	}
	t.printf("  %-22s %s, %s, %s\n", "evidence file:", meta.Source, orDash(meta.ContentType), size)
}

// edit walks the editable fields. An empty answer keeps the value shown in brackets
// and ":q" or end of input cancels.
func (t *Terminal) edit(ctx context.Context, p models.Payment) (ports.DialogResult, error) {
	t.printf("── edit payment %s (%s) ── empty keeps the value, %s cancels\n", p.ID, p.FullName(), cancelInput)
	out := p

	due, ok, err := t.askDecimal(ctx, "due_amount", p.DueAmount)
	if !ok || err != nil {
		return t.cancelled(err)
	}
	out.DueAmount = due

	status, ok, err := t.askStatus(ctx, p.PaymentStatus)
	if !ok || err != nil {
		return t.cancelled(err)
	}
	out.PaymentStatus = status

	suggested := p.TotalDue
	if !out.DueAmount.Equal(p.DueAmount) {
		suggested = models.CalculateTotalDue(out)
	}
	total, ok, err := t.askDecimal(ctx, "total_due", suggested)
	if !ok || err != nil {
		return t.cancelled(err)
	}
	out.TotalDue = total

	evidence, ok, err := t.ask(ctx, "evidence", p.Evidence)
	if !ok || err != nil {
		return t.cancelled(err)
	}
	out.Evidence = evidence

	answer, ok, err := t.ask(ctx, "save? [y/N]", "")
	if !ok || err != nil {
		return t.cancelled(err)
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return ports.Committed(out), nil
	default:
		return t.cancelled(nil)
	}
}

func (t *Terminal) cancelled(err error) (ports.DialogResult, error) {
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if err == nil {
		t.printf("edit cancelled\n")
	}
	return ports.Cancelled(), err
}

func (t *Terminal) askDecimal(ctx context.Context, field string, current decimal.Decimal) (decimal.Decimal, bool, error) {
	for {
		raw, ok, err := t.ask(ctx, field, current.String())
		if !ok || err != nil {
			return decimal.Decimal{}, ok, err
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			t.printf("  %q is not a number\n", raw)
			continue
		}
		if d.IsNegative() {
			t.printf("  %s must not be negative\n", field)
			continue
		}
		return d, true, nil
	}
}

func (t *Terminal) askStatus(ctx context.Context, current string) (string, bool, error) {
	label := "payee_payment_status (" + strings.Join(models.KnownStatuses, "|") + ")"
	for {
		s, ok, err := t.ask(ctx, label, current)
		if !ok || err != nil {
			return "", ok, err
		}
		if s == current || models.IsKnownStatus(s) {
			return s, true, nil
		}
		t.printf("  %q is not a known status\n", s)
	}
}

// ask prompts once. ok is false when the operator cancelled.
func (t *Terminal) ask(ctx context.Context, label, current string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if current != "" {
		t.printf("  %s [%s]: ", label, current)
	} else {
		t.printf("  %s: ", label)
	}

	line, err := t.readLine(ctx)
	if err != nil {
		t.printf("\n")
		return "", false, err
	}
	line = strings.TrimSpace(line)
	switch line {
	case cancelInput:
		return "", false, nil
	case "":
		return current, true, nil
	}
	return line, true, nil
}

// readLine waits for the next input line or for ctx. A read still pending when ctx
// ends is abandoned.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := t.In.ReadString('\n')
		ch <- result{line, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r = <-ch:
	}
	if r.err != nil && !(errors.Is(r.err, io.EOF) && r.line != "") {
		return "", r.err
	}
	return strings.TrimRight(r.line, "\r\n"), nil
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.Out, format, args...)
}

func amount(d decimal.Decimal, currency string) string {
	if currency == "" {
		return d.StringFixed(2)
	}
	return d.StringFixed(2) + " " + currency
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
