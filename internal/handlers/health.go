package handlers

import (
	"context"
	"net/http"
	"time"

	"payments_admin/internal/ports"
)

type healthResp struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var errs []string

	if p, ok := h.Records.(ports.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, "records backend ping failed: "+err.Error())
		}
	} else if h.Records == nil {
		errs = append(errs, "records backend not initialized")
	}

	if h.S3 != nil {
		if h.S3.Client == nil {
			errs = append(errs, "s3 not initialized")
		} else if ok, err := h.S3.Client.BucketExists(ctx, h.S3.Bucket); err != nil {
			errs = append(errs, "s3 bucket check failed: "+err.Error())
		} else if !ok {
			errs = append(errs, `s3 bucket "`+h.S3.Bucket+`" not found`)
		}
	}

	if len(errs) > 0 {
		h.Logger.Warn("[HEALTH][ERR]", "errors", errs)
		h.JSON(w, http.StatusInternalServerError, healthResp{OK: false, Errors: errs})
		return
	}
	h.JSON(w, http.StatusOK, healthResp{OK: true})
}
