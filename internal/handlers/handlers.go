package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"payments_admin/internal/config/connections/s3"
	"payments_admin/internal/ports"
	"payments_admin/internal/services/table"
)

type Handlers struct {
	Table   *table.Controller
	Records ports.RecordService
	S3      *s3.S3
	Metrics http.Handler

	Logger *slog.Logger
}

func New(ctl *table.Controller, records ports.RecordService, s3c *s3.S3, metrics http.Handler, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		Table:   ctl,
		Records: records,
		S3:      s3c,
		Metrics: metrics,
		Logger:  logger,
	}
}

func (h *Handlers) JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handlers) Error(w http.ResponseWriter, code int, msg string) {
	h.JSON(w, code, map[string]string{"error": msg})
}
