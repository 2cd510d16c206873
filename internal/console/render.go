package console

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"payments_admin/internal/services/table"
)

// Render writes the visible page as an aligned table followed by a status line.
func Render(w io.Writer, v table.View) {
	if v.LoadFailed {
		fmt.Fprintln(w, "payments could not be loaded; type 'reload' to try again")
	}
	if v.TotalFiltered == 0 {
		if v.Filter != "" {
			fmt.Fprintf(w, "no payments match %q\n", v.Filter)
		} else if !v.LoadFailed {
			fmt.Fprintln(w, "no payments")
		}
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header(v))
	for i, p := range v.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1,
			cell(p.PayeeFirstName),
			cell(p.PayeeLastName),
			p.DueAmount.StringFixed(2),
			cell(p.PaymentStatus),
			p.TotalDue.StringFixed(2),
			cell(p.Evidence),
		)
	}
	tw.Flush()

	fmt.Fprintln(w, footer(v))
}

var columns = []struct {
	title string
	key   table.SortKey
}{
	{"FIRST NAME", table.SortFirstName},
	{"LAST NAME", table.SortLastName},
	{"DUE", table.SortDueAmount},
	{"STATUS", table.SortStatus},
	{"TOTAL DUE", table.SortTotalDue},
	{"EVIDENCE", table.SortEvidence},
}

func header(v table.View) string {
	parts := []string{"#"}
	for _, c := range columns {
		title := c.title
		if c.key == v.SortKey {
			if v.SortDir == table.Desc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		parts = append(parts, title)
	}
	return strings.Join(parts, "\t") + "\t"
}

func footer(v table.View) string {
	s := fmt.Sprintf("page %d/%d, %d payment(s)", v.PageIndex+1, v.PageCount, v.TotalFiltered)
	if v.Filter != "" {
		s += fmt.Sprintf(" matching %q", v.Filter)
	}
	return s
}

func cell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	if r := []rune(s); len(r) > 32 {
		return string(r[:31]) + "…"
	}
	return s
}
