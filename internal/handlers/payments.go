package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"payments_admin/internal/services/export"
	"payments_admin/internal/services/table"
)

// Payments applies the optional q, sort, dir, page (1-based) and size parameters to
// the table and returns the resulting view.
func (h *Handlers) Payments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Has("q") {
		h.Table.ApplyFilter(q.Get("q"))
	}

	if q.Has("sort") || q.Has("dir") {
		// dir alone re-orders the active column
		key := h.Table.State().SortKey
		if q.Has("sort") {
			var err error
			if key, err = table.ParseSortKey(q.Get("sort")); err != nil {
				h.Error(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		dir, err := table.ParseDirection(q.Get("dir"))
		if err != nil {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		if _, err := h.Table.ApplySort(key, dir); err != nil {
			h.Error(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if q.Has("page") || q.Has("size") {
		st := h.Table.State()
		page, size := st.PageIndex+1, 0
		var err error
		if q.Has("page") {
			if page, err = positive(q.Get("page")); err != nil {
				h.Error(w, http.StatusBadRequest, "page: "+err.Error())
				return
			}
		}
		if q.Has("size") {
			if size, err = positive(q.Get("size")); err != nil {
				h.Error(w, http.StatusBadRequest, "size: "+err.Error())
				return
			}
		}
		h.Table.SetPage(page-1, size)
	}

	h.JSON(w, http.StatusOK, h.Table.View())
}

func (h *Handlers) Payment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.Table.Find(r.PathValue("id"))
	if !ok {
		h.Error(w, http.StatusNotFound, "payment not found")
		return
	}
	h.JSON(w, http.StatusOK, p)
}

func (h *Handlers) Reload(w http.ResponseWriter, r *http.Request) {
	err := h.Table.Load(r.Context())
	switch {
	case errors.Is(err, table.ErrStaleLoad):
		h.Error(w, http.StatusConflict, "superseded by a newer reload")
	case err != nil:
		h.Error(w, http.StatusBadGateway, err.Error())
	default:
		h.JSON(w, http.StatusOK, h.Table.View())
	}
}

func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, ok := h.Table.Find(id)
	if !ok {
		h.Error(w, http.StatusNotFound, "payment not found")
		return
	}
	if err := h.Table.Delete(r.Context(), p); err != nil {
		h.Error(w, http.StatusBadGateway, err.Error())
		return
	}
	h.JSON(w, http.StatusOK, h.Table.View())
}

// Export streams the filtered rows in the current order as csv or xlsx.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	format := export.Format(r.URL.Query().Get("format"))
	if format == "" {
		format = export.FormatCSV
	}
	if format != export.FormatCSV && format != export.FormatXLSX {
		h.Error(w, http.StatusBadRequest, export.ErrUnknownFormat.Error())
		return
	}

	rows := h.Table.Filtered()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payments.%s"`, format))
	if err := export.Write(w, rows, format); err != nil {
		h.Logger.Error("[HTTP][EXPORT][ERR]", "format", format, "error", err)
	}
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%q is not a positive number", s)
	}
	return n, nil
}
