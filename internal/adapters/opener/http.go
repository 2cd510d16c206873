package opener

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"payments_admin/internal/ports"
)

type HTTPOpener struct {
	Client *http.Client
	Logger *slog.Logger
}

func NewHTTPOpener(cli *http.Client, logger *slog.Logger) *HTTPOpener {
	if cli == nil {
		cli = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPOpener{Client: cli, Logger: logger}
}

func (h *HTTPOpener) Open(ctx context.Context, url string) (io.ReadCloser, ports.Meta, error) {
	h.Logger.Debug("[EVIDENCE][HTTP][START]", "url", url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		h.Logger.Error("[EVIDENCE][HTTP][ERR] build request", "error", err)
		return nil, ports.Meta{}, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		h.Logger.Error("[EVIDENCE][HTTP][ERR] do request", "error", err)
		return nil, ports.Meta{}, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		h.Logger.Error("[EVIDENCE][HTTP][ERR]", "status", resp.StatusCode, "content_type", resp.Header.Get("Content-Type"))
		return nil, ports.Meta{}, fmt.Errorf("evidence download: http status %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	size := resp.ContentLength
	if size < 0 {
		size = -1
	}
	h.Logger.Debug("[EVIDENCE][HTTP][OK]", "content_type", ct, "size", size)
	return resp.Body, ports.Meta{
		Source:      "https",
		ContentType: ct,
		Size:        size,
	}, nil
}
