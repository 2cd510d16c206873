package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"payments_admin/internal/models"
	"payments_admin/internal/ports"
)

// HTTPService talks to the payments HTTP API
// (GET get_payments, DELETE delete_payment/{id}, PUT update_payment).
type HTTPService struct {
	Client  *http.Client
	BaseURL string
	Logger  *slog.Logger
}

func NewHTTPService(cli *http.Client, baseURL string, logger *slog.Logger) *HTTPService {
	if cli == nil {
		cli = &http.Client{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &HTTPService{Client: cli, BaseURL: baseURL, Logger: logger}
}

// StatusError is a non-2xx answer from the payments API.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: http status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: http status %d: %s", e.Op, e.Code, e.Message)
}

func (s *HTTPService) FetchAll(ctx context.Context) ([]models.Payment, error) {
	body, err := s.do(ctx, "fetch", http.MethodGet, "get_payments", nil)
	if err != nil {
		return nil, err
	}

	var out []models.Payment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("fetch: decode payments: %w", err)
	}
	return out, nil
}

func (s *HTTPService) DeleteByID(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("delete: empty id")
	}
	_, err := s.do(ctx, "delete", http.MethodDelete, "delete_payment/"+url.PathEscape(id), nil)
	return err
}

func (s *HTTPService) UpdateByID(ctx context.Context, id string, patch models.PaymentPatch) (models.Payment, error) {
	if strings.TrimSpace(id) == "" {
		return models.Payment{}, errors.New("update: empty id")
	}

	payload := map[string]any{"id": id}
	if patch.DueAmount != nil {
		payload["due_amount"] = jsonNumber(*patch.DueAmount)
	}
	if patch.TotalDue != nil {
		payload["total_due"] = jsonNumber(*patch.TotalDue)
	}
	if patch.PaymentStatus != nil {
		payload["payee_payment_status"] = *patch.PaymentStatus
	}
	if patch.Evidence != nil {
		payload["evidence"] = *patch.Evidence
	}
	if patch.DiscountPercent != nil {
		payload["discount_percent"] = jsonNumber(*patch.DiscountPercent)
	}
	if patch.TaxPercent != nil {
		payload["tax_percent"] = jsonNumber(*patch.TaxPercent)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return models.Payment{}, fmt.Errorf("update: encode patch: %w", err)
	}

	body, err := s.do(ctx, "update", http.MethodPut, "update_payment", bytes.NewReader(b))
	if err != nil {
		return models.Payment{}, err
	}

	// The API answers {"message": ...}; newer deployments echo the stored record.
	var echoed models.Payment
	if err := json.Unmarshal(body, &echoed); err != nil || echoed.ID == "" {
		return models.Payment{}, nil
	}
	return echoed, nil
}

// Ping checks that the API answers at all.
func (s *HTTPService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.BaseURL+"get_payments", nil)
	if err != nil {
		return err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &StatusError{Op: "ping", Code: resp.StatusCode}
	}
	return nil
}

func (s *HTTPService) do(ctx context.Context, op, method, path string, body io.Reader) ([]byte, error) {
	reqID := uuid.NewString()
	target := s.BaseURL + path
	s.Logger.Debug("[RECORDS][HTTP][START]", "op", op, "method", method, "url", target, "request_id", reqID)

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		serr := &StatusError{Op: op, Code: resp.StatusCode, Message: errorMessage(data)}
		s.Logger.Warn("[RECORDS][HTTP][ERR]", "op", op, "status", resp.StatusCode, "message", serr.Message, "request_id", reqID)
		if resp.StatusCode == http.StatusNotFound && op != "fetch" {
			return nil, fmt.Errorf("%w: %w", ports.ErrNotFound, serr)
		}
		return nil, serr
	}

	s.Logger.Debug("[RECORDS][HTTP][OK]", "op", op, "status", resp.StatusCode, "bytes", len(data), "request_id", reqID)
	return data, nil
}

// errorMessage pulls {"error": ...} or {"errors": [...]} out of an error body.
func errorMessage(body []byte) string {
	var e struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return strings.TrimSpace(string(body))
	}
	if e.Error != "" {
		return e.Error
	}
	return strings.Join(e.Errors, "; ")
}

func jsonNumber(d decimal.Decimal) json.RawMessage {
	return json.RawMessage(d.String())
}
