package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	models "github.com/phillip/event-ledger-go/models"
)

// StatusInput is everything payment status depends on.
type StatusInput struct {
	Amount     decimal.Decimal
	PaidAmount decimal.Decimal
	DueDate    *time.Time
	Current    models.PaymentStatus
}

// ResolvePaymentStatus derives a payment status. Rules are checked in order:
// fully paid, partially paid, pending past its due date, then the fallback.
// An overdue payment that receives money moves to partially_paid.
func ResolvePaymentStatus(in StatusInput, now time.Time) models.PaymentStatus {
	pastDue := in.DueDate != nil && in.DueDate.Before(now)

	switch {
	case in.PaidAmount.GreaterThanOrEqual(in.Amount):
		return models.PaymentPaid
	case in.PaidAmount.IsPositive():
		return models.PaymentPartiallyPaid
	case pastDue && (in.Current == models.PaymentPending || in.Current == ""):
		return models.PaymentOverdue
	case in.Current == models.PaymentOverdue && pastDue:
		return models.PaymentOverdue
	default:
		return models.PaymentPending
	}
}

func paymentStatusInput(p *models.Payment) StatusInput {
	return StatusInput{
		Amount:     p.Amount,
		PaidAmount: p.PaidAmount,
		DueDate:    p.DueDate,
		Current:    p.Status,
	}
}

// derivePaymentFields refreshes the outstanding amount and status in place.
func derivePaymentFields(p *models.Payment, now time.Time) {
	p.OutstandingAmount = p.Outstanding()
	p.Status = ResolvePaymentStatus(paymentStatusInput(p), now)
}

// ResolveInvoiceStatus applies the payment rules to an invoice. Drafts and
// cancelled invoices keep their status; money only moves issued invoices.
func ResolveInvoiceStatus(total, paid decimal.Decimal, dueDate *time.Time, current models.InvoiceStatus, now time.Time) models.InvoiceStatus {
	if current == models.InvoiceDraft || current == models.InvoiceCancelled {
		return current
	}
	switch {
	case paid.GreaterThanOrEqual(total):
		return models.InvoicePaid
	case paid.IsPositive():
		return models.InvoicePartial
	case dueDate != nil && dueDate.Before(now):
		return models.InvoiceOverdue
	default:
		return models.InvoiceSent
	}
}
