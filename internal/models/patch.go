package models

import "github.com/shopspring/decimal"

// PaymentPatch carries the editable columns of a payment. Nil fields are left untouched.
//
// DiscountPercent and TaxPercent are never edited. They travel with a changed due
// amount because the payments API recomputes total_due from the request alone.
type PaymentPatch struct {
	DueAmount       *decimal.Decimal `json:"due_amount,omitempty"`
	PaymentStatus   *string          `json:"payee_payment_status,omitempty"`
	TotalDue        *decimal.Decimal `json:"total_due,omitempty"`
	Evidence        *string          `json:"evidence,omitempty"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	TaxPercent      *decimal.Decimal `json:"tax_percent,omitempty"`
}

func (p PaymentPatch) Empty() bool {
	return p.DueAmount == nil && p.PaymentStatus == nil && p.TotalDue == nil && p.Evidence == nil
}

// Apply returns a copy of base with the patch applied.
func (p PaymentPatch) Apply(base Payment) Payment {
	out := base
	if p.DueAmount != nil {
		out.DueAmount = *p.DueAmount
	}
	if p.PaymentStatus != nil {
		out.PaymentStatus = *p.PaymentStatus
	}
	if p.TotalDue != nil {
		out.TotalDue = *p.TotalDue
	}
	if p.Evidence != nil {
		out.Evidence = *p.Evidence
	}
	if p.DiscountPercent != nil {
		out.DiscountPercent = *p.DiscountPercent
	}
	if p.TaxPercent != nil {
		out.TaxPercent = *p.TaxPercent
	}
	return out
}

// Diff builds the patch that turns before into after on the editable columns.
//
// A changed due amount also carries the record's discount and tax, and its total is
// derived from them with CalculateTotalDue, which is what the service stores. A
// status moving to completed always carries the evidence the service requires.
func Diff(before, after Payment) PaymentPatch {
	var p PaymentPatch
	if !before.DueAmount.Equal(after.DueAmount) {
		due, discount, tax := after.DueAmount, after.DiscountPercent, after.TaxPercent
		total := CalculateTotalDue(after)
		p.DueAmount, p.DiscountPercent, p.TaxPercent, p.TotalDue = &due, &discount, &tax, &total
	} else if !before.TotalDue.Equal(after.TotalDue) {
		v := after.TotalDue
		p.TotalDue = &v
	}
	if before.PaymentStatus != after.PaymentStatus {
		v := after.PaymentStatus
		p.PaymentStatus = &v
	}
	if before.Evidence != after.Evidence || (p.PaymentStatus != nil && after.PaymentStatus == StatusCompleted) {
		v := after.Evidence
		p.Evidence = &v
	}
	return p
}
