package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-ledger-go/models"
)

type AmountTotals struct {
	Count       int             `json:"count"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Overdue     int             `json:"overdue"`
}

type EventSummary struct {
	EventID  primitive.ObjectID `json:"event_id"`
	Client   AmountTotals       `json:"client_payments"`
	Vendor   AmountTotals       `json:"vendor_payments"`
	Invoices AmountTotals       `json:"invoices"`
}

// EventSummary totals the ledger of one event. Drafts and cancelled invoices
// are left out.
func (s *Service) EventSummary(ctx context.Context, orgID, eventID primitive.ObjectID) (*EventSummary, error) {
	if _, err := s.loadEvent(ctx, orgID, eventID); err != nil {
		return nil, err
	}

	payments, err := s.ListPayments(ctx, orgID, PaymentFilter{EventID: &eventID})
	if err != nil {
		return nil, err
	}
	invoices, err := s.ListInvoices(ctx, orgID, InvoiceFilter{EventID: &eventID})
	if err != nil {
		return nil, err
	}

	sum := &EventSummary{EventID: eventID}
	for _, p := range payments {
		t := &sum.Client
		if p.Type == models.VendorPayment {
			t = &sum.Vendor
		}
		t.add(p.Amount, p.PaidAmount, p.Status == models.PaymentOverdue)
	}
	for _, inv := range invoices {
		if inv.Status == models.InvoiceDraft || inv.Status == models.InvoiceCancelled {
			continue
		}
		sum.Invoices.add(inv.Total, inv.PaidAmount, inv.Status == models.InvoiceOverdue)
	}
	return sum, nil
}

func (t *AmountTotals) add(amount, paid decimal.Decimal, overdue bool) {
	t.Count++
	t.Amount = t.Amount.Add(amount)
	t.Paid = t.Paid.Add(paid)
	t.Outstanding = t.Amount.Sub(t.Paid)
	if overdue {
		t.Overdue++
	}
}
