package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strconv"
	"strings"

	"payments_admin/internal/models"
	"payments_admin/internal/ports"
	"payments_admin/internal/services/export"
	"payments_admin/internal/services/table"
)

const prompt = "payments> "

const helpText = `commands:
  reload                      fetch all payments again
  filter [text]               keep rows containing text; no text clears the filter
  sort <column> [asc|desc|none]
                              columns: first, last, due, status, total, evidence
  page <n> [size]             jump to page n, optionally changing the page size
  next | prev                 move one page
  view <row>                  show a payment
  edit <row>                  edit due amount, status, total and evidence
  delete <row>                delete a payment
  evidence <row> [file]       download the evidence of a payment
  export <file.xlsx|file.csv> write the filtered rows to a file
  export s3 [xlsx|csv]        upload the filtered rows to the evidence bucket
  help                        this text
  quit                        leave
rows are numbered on the current page starting at 1`

var errQuit = errors.New("quit")

// Uploader stores an export and returns where it went.
type Uploader interface {
	Upload(ctx context.Context, rows []models.Payment, format export.Format) (string, error)
}

// Console is the interactive operator session over the table controller.
type Console struct {
	ctl      *table.Controller
	in       *bufio.Reader
	out      io.Writer
	evidence ports.EvidenceOpener
	uploader Uploader
	logger   *slog.Logger
}

type Option func(*Console)

func WithEvidence(o ports.EvidenceOpener) Option {
	return func(c *Console) { c.evidence = o }
}

func WithUploader(u Uploader) Option {
	return func(c *Console) { c.uploader = u }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Console) { c.logger = l }
}

func New(ctl *table.Controller, in *bufio.Reader, out io.Writer, opts ...Option) *Console {
	c := &Console{ctl: ctl, in: in, out: out, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run reads commands until quit, end of input or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	Render(c.out, c.ctl.View())
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(c.out, prompt)

		line, ok, err := c.readLine(ctx)
		if !ok {
			fmt.Fprintln(c.out)
			return nil
		}
		if err != nil && line == "" {
			fmt.Fprintln(c.out)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		err = c.Exec(ctx, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err == nil:
		case isReported(err):
			// the controller already raised an alert
		default:
			fmt.Fprintf(c.out, "! %v\n", err)
		}
	}
}

// readLine waits for the next input line or for ctx. ok is false when ctx ended
// first; the pending read is then abandoned.
func (c *Console) readLine(ctx context.Context) (string, bool, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := c.in.ReadString('\n')
		ch <- result{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", false, nil
	case r := <-ch:
		return r.line, true, r.err
	}
}

func isReported(err error) bool {
	var te *table.Error
	return errors.As(err, &te)
}

// Exec runs one command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	args := strings.Fields(rest)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
		return nil
	case "reload", "r":
		return c.reload(ctx)
	case "filter", "f":
		Render(c.out, c.ctl.ApplyFilter(rest))
		return nil
	case "sort", "s":
		return c.sort(args)
	case "page", "p":
		return c.page(args)
	case "next", "n":
		v := c.ctl.View()
		Render(c.out, c.ctl.SetPage(v.PageIndex+1, 0))
		return nil
	case "prev":
		v := c.ctl.View()
		Render(c.out, c.ctl.SetPage(v.PageIndex-1, 0))
		return nil
	case "ls", "list":
		Render(c.out, c.ctl.View())
		return nil
	case "view", "v":
		p, err := c.row(args)
		if err != nil {
			return err
		}
		c.ctl.OpenView(ctx, p)
		return nil
	case "edit", "e":
		p, err := c.row(args)
		if err != nil {
			return err
		}
		err = c.ctl.OpenEdit(ctx, p)
		Render(c.out, c.ctl.View())
		return err
	case "delete", "del", "rm":
		p, err := c.row(args)
		if err != nil {
			return err
		}
		err = c.ctl.Delete(ctx, p)
		Render(c.out, c.ctl.View())
		return err
	case "evidence", "download":
		return c.downloadEvidence(ctx, args)
	case "export":
		return c.export(ctx, args)
	}
	return fmt.Errorf("unknown command %q, type 'help'", name)
}

func (c *Console) reload(ctx context.Context) error {
	err := c.ctl.Load(ctx)
	if errors.Is(err, table.ErrStaleLoad) {
		return nil
	}
	Render(c.out, c.ctl.View())
	return err
}

func (c *Console) sort(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: sort <column> [asc|desc|none]")
	}
	key, err := table.ParseSortKey(args[0])
	if err != nil {
		return err
	}
	dir := table.Asc
	if len(args) == 2 {
		if dir, err = table.ParseDirection(args[1]); err != nil {
			return err
		}
	}
	v, err := c.ctl.ApplySort(key, dir)
	if err != nil {
		return err
	}
	Render(c.out, v)
	return nil
}

func (c *Console) page(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errors.New("usage: page <n> [size]")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return fmt.Errorf("page %q: want a number from 1", args[0])
	}
	size := 0
	if len(args) == 2 {
		if size, err = strconv.Atoi(args[1]); err != nil || size < 1 {
			return fmt.Errorf("page size %q: want a positive number", args[1])
		}
	}
	Render(c.out, c.ctl.SetPage(n-1, size))
	return nil
}

// row resolves a 1-based row number on the visible page.
func (c *Console) row(args []string) (models.Payment, error) {
	if len(args) == 0 {
		return models.Payment{}, errors.New("which row? rows are numbered from 1 on the current page")
	}
	v := c.ctl.View()
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(v.Rows) {
		return models.Payment{}, fmt.Errorf("row %q is not on this page (1-%d)", args[0], len(v.Rows))
	}
	return v.Rows[n-1], nil
}

func (c *Console) downloadEvidence(ctx context.Context, args []string) error {
	if c.evidence == nil {
		return errors.New("evidence downloads are not configured")
	}
	p, err := c.row(args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(p.Evidence) == "" {
		return fmt.Errorf("payment %s has no evidence", p.ID)
	}

	rc, meta, err := c.evidence.Open(ctx, p.Evidence)
	if err != nil {
		c.logger.Error("[CONSOLE][EVIDENCE][ERR] open", "id", p.ID, "evidence", p.Evidence, "error", err)
		return fmt.Errorf("open evidence: %w", err)
	}
	defer rc.Close()

	target := path.Base(p.Evidence)
	if len(args) > 1 {
		target = args[1]
	}
	f, err := os.Create(target)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, rc)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("save evidence: %w", err)
	}

	c.logger.Info("[CONSOLE][EVIDENCE][OK]", "id", p.ID, "source", meta.Source, "file", target, "bytes", n)
	fmt.Fprintf(c.out, "* evidence saved to %s (%d bytes)\n", target, n)
	return nil
}

func (c *Console) export(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: export <file.xlsx|file.csv> | export s3 [xlsx|csv]")
	}
	rows := c.ctl.Filtered()

	if args[0] == "s3" {
		if c.uploader == nil {
			return errors.New("s3 is not configured")
		}
		format := export.FormatXLSX
		if len(args) > 1 {
			format = export.Format(strings.ToLower(args[1]))
		}
		ref, err := c.uploader.Upload(ctx, rows, format)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "* %d payment(s) exported to %s\n", len(rows), ref)
		return nil
	}

	format, err := export.DetectFormat(args[0])
	if err != nil {
		return err
	}
	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	err = export.Write(f, rows, format)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(c.out, "* %d payment(s) exported to %s\n", len(rows), args[0])
	return nil
}
