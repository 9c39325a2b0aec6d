package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-ledger-go/models"
)

type CreateInvoiceInput struct {
	ClientID     primitive.ObjectID
	EventID      *primitive.ObjectID
	Items        []models.LineItem
	TaxRate      decimal.Decimal
	Discount     decimal.Decimal
	DiscountType models.DiscountType
	IssueDate    *time.Time
	DueDate      *time.Time
	Currency     string
	Notes        string
	Terms        string
	CreatedBy    primitive.ObjectID
}

// UpdateInvoiceInput carries draft edits. Nil fields are left as they are.
type UpdateInvoiceInput struct {
	Items        []models.LineItem
	TaxRate      *decimal.Decimal
	Discount     *decimal.Decimal
	DiscountType *models.DiscountType
	DueDate      *time.Time
	Notes        *string
	Terms        *string
}

func (in UpdateInvoiceInput) empty() bool {
	return in.Items == nil && in.TaxRate == nil && in.Discount == nil && in.DiscountType == nil &&
		in.DueDate == nil && in.Notes == nil && in.Terms == nil
}

// CreateInvoice stores a draft invoice with freshly computed totals and the
// next invoice number for the organization.
func (s *Service) CreateInvoice(ctx context.Context, orgID primitive.ObjectID, in CreateInvoiceInput) (*models.Invoice, error) {
	totals, err := CalculateTotals(in.Items, in.TaxRate, in.Discount, in.DiscountType)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadClient(ctx, orgID, in.ClientID); err != nil {
		return nil, err
	}
	if in.EventID != nil {
		if _, err := s.loadEvent(ctx, orgID, *in.EventID); err != nil {
			return nil, err
		}
	}

	now := s.now()
	issueDate := now
	if in.IssueDate != nil {
		issueDate = *in.IssueDate
	}
	if in.DueDate != nil && in.DueDate.Before(issueDate) {
		return nil, NewValidationError("due_date", "cannot be before the issue date")
	}

	number, err := s.store.NextInvoiceNumber(ctx, orgID, issueDate.Year())
	if err != nil {
		return nil, fmt.Errorf("allocate invoice number: %w", err)
	}

	discountType := in.DiscountType
	if discountType == "" {
		discountType = models.DiscountFixed
	}
	currency := in.Currency
	if currency == "" {
		currency = s.currency
	}

	inv := &models.Invoice{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		ClientID:       in.ClientID,
		EventID:        in.EventID,
		InvoiceNumber:  number,
		Currency:       strings.ToUpper(currency),
		TaxRate:        in.TaxRate,
		Discount:       in.Discount,
		DiscountType:   discountType,
		PaidAmount:     decimal.Zero,
		Status:         models.InvoiceDraft,
		IssueDate:      issueDate,
		DueDate:        in.DueDate,
		Notes:          in.Notes,
		Terms:          in.Terms,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	applyTotals(inv, totals)

	if err := s.store.InsertInvoice(ctx, inv); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

// GetInvoice returns an invoice with its overdue state resolved as of now.
func (s *Service) GetInvoice(ctx context.Context, orgID, id primitive.ObjectID) (*models.Invoice, error) {
	inv, err := s.loadInvoice(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	inv.Status = ResolveInvoiceStatus(inv.Total, inv.PaidAmount, inv.DueDate, inv.Status, s.now())
	return inv, nil
}

func (s *Service) ListInvoices(ctx context.Context, orgID primitive.ObjectID, f InvoiceFilter) ([]models.Invoice, error) {
	invoices, err := s.store.ListInvoices(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range invoices {
		inv := &invoices[i]
		inv.Status = ResolveInvoiceStatus(inv.Total, inv.PaidAmount, inv.DueDate, inv.Status, now)
	}
	return invoices, nil
}

// UpdateInvoiceDraft edits a draft and recomputes every money field. Any
// edit to an issued invoice fails and leaves it untouched.
func (s *Service) UpdateInvoiceDraft(ctx context.Context, orgID, id primitive.ObjectID, in UpdateInvoiceInput) (*models.Invoice, error) {
	if in.empty() {
		return nil, NewValidationError("", "no fields to update")
	}

	var updated *models.Invoice
	err := s.withRetry(ctx, func() error {
		current, err := s.loadInvoice(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := EnsureEditable(current); err != nil {
			return err
		}

		next := *current
		items := current.Items
		if in.Items != nil {
			items = in.Items
		}
		if in.TaxRate != nil {
			next.TaxRate = *in.TaxRate
		}
		if in.Discount != nil {
			next.Discount = *in.Discount
		}
		if in.DiscountType != nil {
			next.DiscountType = *in.DiscountType
		}
		if in.DueDate != nil {
			if in.DueDate.Before(current.IssueDate) {
				return NewValidationError("due_date", "cannot be before the issue date")
			}
			next.DueDate = in.DueDate
		}
		if in.Notes != nil {
			next.Notes = *in.Notes
		}
		if in.Terms != nil {
			next.Terms = *in.Terms
		}

		totals, err := CalculateTotals(items, next.TaxRate, next.Discount, next.DiscountType)
		if err != nil {
			return err
		}
		applyTotals(&next, totals)
		next.UpdatedAt = s.now()

		if err := s.store.UpdateInvoice(ctx, &next, current.Version); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SendInvoice issues a draft. Sending an already issued invoice is allowed and
// only repeats the notifications; SentAt keeps its first value.
func (s *Service) SendInvoice(ctx context.Context, orgID, id primitive.ObjectID) (*models.Invoice, error) {
	var sent *models.Invoice
	err := s.withRetry(ctx, func() error {
		current, err := s.loadInvoice(ctx, orgID, id)
		if err != nil {
			return err
		}
		if current.Status == models.InvoiceCancelled {
			return NewInvalidStateError("invoice", string(current.Status), "send")
		}
		if current.Status != models.InvoiceDraft {
			sent = current
			return nil
		}
		if err := CheckTransition(current.Status, models.InvoiceSent); err != nil {
			return err
		}

		now := s.now()
		next := *current
		next.Status = ResolveInvoiceStatus(next.Total, next.PaidAmount, next.DueDate, models.InvoiceSent, now)
		next.SentAt = &now
		if next.Status == models.InvoicePaid {
			next.PaidAt = &now
		}
		next.UpdatedAt = now
		if err := s.store.UpdateInvoice(ctx, &next, current.Version); err != nil {
			return err
		}
		sent = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &Notification{Kind: InvoiceSent, OrganizationID: orgID, Invoice: sent})
	return sent, nil
}

// VoidInvoice cancels an invoice that has not been fully paid.
func (s *Service) VoidInvoice(ctx context.Context, orgID, id primitive.ObjectID, reason string) (*models.Invoice, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, NewValidationError("reason", "is required to void an invoice")
	}

	var voided *models.Invoice
	err := s.withRetry(ctx, func() error {
		current, err := s.loadInvoice(ctx, orgID, id)
		if err != nil {
			return err
		}
		now := s.now()
		resolved := *current
		resolved.Status = ResolveInvoiceStatus(current.Total, current.PaidAmount, current.DueDate, current.Status, now)
		if err := EnsureVoidable(&resolved); err != nil {
			return err
		}

		next := *current
		next.Status = models.InvoiceCancelled
		next.CancelReason = reason
		next.CancelledAt = &now
		next.UpdatedAt = now
		if err := s.store.UpdateInvoice(ctx, &next, current.Version); err != nil {
			return err
		}
		voided = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &Notification{Kind: InvoiceVoided, OrganizationID: orgID, Invoice: voided})
	return voided, nil
}

// RecordInvoicePayment applies money directly to an invoice that has no
// payment record of its own.
func (s *Service) RecordInvoicePayment(ctx context.Context, orgID, id primitive.ObjectID, amount decimal.Decimal, paidDate time.Time) (*models.Invoice, error) {
	amount = amount.Round(moneyPlaces)
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "must be at least 0.01")
	}
	if paidDate.IsZero() {
		paidDate = s.now()
	}

	var updated *models.Invoice
	err := s.withRetry(ctx, func() error {
		current, err := s.loadInvoice(ctx, orgID, id)
		if err != nil {
			return err
		}
		next, err := s.applyInvoicePayment(*current, amount, paidDate, s.now())
		if err != nil {
			return err
		}
		if err := s.store.UpdateInvoice(ctx, &next, current.Version); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &Notification{
		Kind:           InvoicePaymentRecorded,
		OrganizationID: orgID,
		Invoice:        updated,
		Amount:         amount,
	})
	return updated, nil
}

// applyInvoicePayment returns inv with amount added to what has been paid.
// Totals are never touched here: an invoice that can take money is no longer
// a draft, so its items are frozen.
func (s *Service) applyInvoicePayment(inv models.Invoice, amount decimal.Decimal, paidDate, now time.Time) (models.Invoice, error) {
	if err := EnsurePayable(&inv); err != nil {
		return inv, err
	}
	newPaid := inv.PaidAmount.Add(amount)
	if newPaid.GreaterThan(inv.Total) {
		return inv, NewValidationError("amount", fmt.Sprintf("paid amount cannot exceed outstanding balance of %s%s",
			s.symbol, inv.Total.Sub(inv.PaidAmount).StringFixed(2)))
	}

	status := ResolveInvoiceStatus(inv.Total, newPaid, inv.DueDate, inv.Status, now)
	if err := CheckTransition(inv.Status, status); err != nil {
		return inv, err
	}

	inv.PaidAmount = newPaid
	inv.BalanceAmount = inv.Total.Sub(newPaid)
	inv.Status = status
	if status == models.InvoicePaid {
		inv.PaidAt = &paidDate
	}
	inv.UpdatedAt = now
	return inv, nil
}

func (s *Service) loadInvoice(ctx context.Context, orgID, id primitive.ObjectID) (*models.Invoice, error) {
	inv, err := s.store.GetInvoice(ctx, orgID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, NewNotFoundError("invoice", id)
	}
	return inv, err
}
