package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	StatusCompleted = "completed"
	StatusDueNow    = "due_now"
	StatusOverdue   = "overdue"
	StatusPending   = "pending"
)

var KnownStatuses = []string{StatusCompleted, StatusDueNow, StatusOverdue, StatusPending}

var hundred = decimal.NewFromInt(100)

// Payment is one payment record as served by the payments service.
type Payment struct {
	ID              string          `json:"_id"`
	PayeeFirstName  string          `json:"payee_first_name"`
	PayeeLastName   string          `json:"payee_last_name"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	PaymentStatus   string          `json:"payee_payment_status"`
	TotalDue        decimal.Decimal `json:"total_due"`
	Evidence        string          `json:"evidence,omitempty"`
	Currency        string          `json:"currency,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TaxPercent      decimal.Decimal `json:"tax_percent"`
}

// UnmarshalJSON accepts both "_id" and "id" as the record identifier.
func (p *Payment) UnmarshalJSON(b []byte) error {
	type plain Payment
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = Payment(aux.plain)
	if p.ID == "" {
		p.ID = aux.AltID
	}
	return nil
}

func (p Payment) FullName() string {
	return strings.TrimSpace(p.PayeeFirstName + " " + p.PayeeLastName)
}

// CalculateTotalDue applies discount and tax to the due amount, rounded to cents.
func CalculateTotalDue(p Payment) decimal.Decimal {
	one := decimal.NewFromInt(1)
	discount := one.Sub(p.DiscountPercent.Div(hundred))
	tax := one.Add(p.TaxPercent.Div(hundred))
	return p.DueAmount.Mul(discount).Mul(tax).Round(2)
}

func IsKnownStatus(s string) bool {
	for _, k := range KnownStatuses {
		if s == k {
			return true
		}
	}
	return false
}

// Validate checks a record before it is committed from an edit.
func Validate(p Payment) error {
	return validate(p, true)
}

// ValidateEdit validates after like Validate, but tolerates a free-text status that
// came with the loaded record and was left untouched.
func ValidateEdit(before, after Payment) error {
	return validate(after, before.PaymentStatus != after.PaymentStatus)
}

func validate(p Payment, checkStatus bool) error {
	var errs []error

	if strings.TrimSpace(p.ID) == "" {
		errs = append(errs, errors.New("id is mandatory"))
	}
	if p.DueAmount.IsNegative() {
		errs = append(errs, errors.New("due_amount must not be negative"))
	}
	if p.TotalDue.IsNegative() {
		errs = append(errs, errors.New("total_due must not be negative"))
	}
	if p.DiscountPercent.IsNegative() || p.DiscountPercent.GreaterThan(hundred) {
		errs = append(errs, errors.New("discount_percent must be between 0 and 100"))
	}
	if p.TaxPercent.IsNegative() || p.TaxPercent.GreaterThan(hundred) {
		errs = append(errs, errors.New("tax_percent must be between 0 and 100"))
	}
	if checkStatus && p.PaymentStatus != "" && !IsKnownStatus(p.PaymentStatus) {
		errs = append(errs, fmt.Errorf("payee_payment_status %q is not one of %s", p.PaymentStatus, strings.Join(KnownStatuses, ", ")))
	}
	if p.PaymentStatus == StatusCompleted && strings.TrimSpace(p.Evidence) == "" {
		errs = append(errs, errors.New("evidence must be uploaded when the status is set to 'completed'"))
	}

	return errors.Join(errs...)
}
