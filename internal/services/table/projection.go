package table

import (
	"sort"
	"strings"

	"payments_admin/internal/models"
)

// View is the projected, read-only slice of the collection that gets rendered.
type View struct {
	Rows          []models.Payment `json:"rows"`
	TotalFiltered int              `json:"total_filtered"`
	PageIndex     int              `json:"page_index"`
	PageSize      int              `json:"page_size"`
	PageCount     int              `json:"page_count"`
	Filter        string           `json:"filter"`
	SortKey       SortKey          `json:"sort_key,omitempty"`
	SortDir       Direction        `json:"sort_dir,omitempty"`
	LoadFailed    bool             `json:"load_failed"`
}

// Project filters, sorts and paginates rows. Neither rows nor st is modified.
func Project(rows []models.Payment, st State) View {
	filtered := Filtered(rows, st)

	size := st.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(filtered)
	pages := (total + size - 1) / size

	idx := st.PageIndex
	if idx >= pages {
		idx = pages - 1
	}
	if idx < 0 {
		idx = 0
	}

	start := idx * size
	end := start + size
	if end > total {
		end = total
	}

	visible := make([]models.Payment, end-start)
	copy(visible, filtered[start:end])

	v := View{
		Rows:          visible,
		TotalFiltered: total,
		PageIndex:     idx,
		PageSize:      size,
		PageCount:     pages,
		Filter:        st.Filter,
	}
	if st.sorted() {
		v.SortKey, v.SortDir = st.SortKey, st.SortDir
	}
	return v
}

// Filtered returns the rows matching st's filter in st's sort order, unpaginated.
func Filtered(rows []models.Payment, st State) []models.Payment {
	needle := NormalizeFilter(st.Filter)

	out := make([]models.Payment, 0, len(rows))
	for _, p := range rows {
		if matches(p, needle) {
			out = append(out, p)
		}
	}
	if st.sorted() {
		sortRows(out, st.SortKey, st.SortDir)
	}
	return out
}

func matches(p models.Payment, needle string) bool {
	if needle == "" {
		return true
	}
	for _, f := range displayFields(p) {
		if strings.Contains(fold(f), needle) {
			return true
		}
	}
	return false
}

// displayFields lists the searchable text of a row. Amounts match both as rendered
// in the table (two decimals) and in their shortest form.
func displayFields(p models.Payment) []string {
	return []string{
		p.PayeeFirstName,
		p.PayeeLastName,
		p.PaymentStatus,
		p.DueAmount.StringFixed(2),
		p.DueAmount.String(),
		p.TotalDue.StringFixed(2),
		p.TotalDue.String(),
		p.Evidence,
	}
}

// sortRows sorts in place. The sort is stable, so ties keep collection order in
// both directions.
func sortRows(rows []models.Payment, key SortKey, dir Direction) {
	type keyed struct {
		p    models.Payment
		text string
	}
	ks := make([]keyed, len(rows))
	for i, p := range rows {
		ks[i] = keyed{p: p}
		if !key.numeric() {
			ks[i].text = fold(textField(p, key))
		}
	}

	cmp := func(a, b keyed) int {
		switch key {
		case SortDueAmount:
			return a.p.DueAmount.Cmp(b.p.DueAmount)
		case SortTotalDue:
			return a.p.TotalDue.Cmp(b.p.TotalDue)
		}
		return strings.Compare(a.text, b.text)
	}

	sort.SliceStable(ks, func(i, j int) bool {
		c := cmp(ks[i], ks[j])
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})

	for i := range ks {
		rows[i] = ks[i].p
	}
}

func textField(p models.Payment, key SortKey) string {
	switch key {
	case SortFirstName:
		return p.PayeeFirstName
	case SortLastName:
		return p.PayeeLastName
	case SortStatus:
		return p.PaymentStatus
	case SortEvidence:
		return p.Evidence
	}
	return ""
}
