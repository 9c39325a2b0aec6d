package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-ledger-go/models"
)

type CreatePaymentInput struct {
	EventID    primitive.ObjectID
	ClientID   *primitive.ObjectID
	InvoiceID  *primitive.ObjectID
	Type       models.PaymentType
	Title      string
	Category   string
	VendorName string
	Amount     decimal.Decimal
	DueDate    *time.Time
	Notes      string
	CreatedBy  primitive.ObjectID
}

type UpdatePaymentInput struct {
	Title      *string
	Category   *string
	VendorName *string
	Amount     *decimal.Decimal
	DueDate    *time.Time
}

type RecordPaymentInput struct {
	PaymentID primitive.ObjectID
	Amount    decimal.Decimal
	PaidDate  time.Time
	Method    string
	Reference string
	Notes     string
}

// CreatePayment stores a new expected payment for an event.
func (s *Service) CreatePayment(ctx context.Context, orgID primitive.ObjectID, in CreatePaymentInput) (*models.Payment, error) {
	if in.Type != models.ClientPayment && in.Type != models.VendorPayment {
		return nil, NewValidationError("type", fmt.Sprintf("must be %q or %q", models.ClientPayment, models.VendorPayment))
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, NewValidationError("title", "is required")
	}
	if in.Amount.IsNegative() {
		return nil, NewValidationError("amount", "cannot be negative")
	}
	if in.InvoiceID != nil && in.Type != models.ClientPayment {
		return nil, NewValidationError("invoice_id", "only client payments can reference an invoice")
	}

	if _, err := s.loadEvent(ctx, orgID, in.EventID); err != nil {
		return nil, err
	}
	if in.ClientID != nil {
		if _, err := s.loadClient(ctx, orgID, *in.ClientID); err != nil {
			return nil, err
		}
	}
	if in.InvoiceID != nil {
		inv, err := s.loadInvoice(ctx, orgID, *in.InvoiceID)
		if err != nil {
			return nil, err
		}
		if in.ClientID == nil {
			in.ClientID = &inv.ClientID
		} else if *in.ClientID != inv.ClientID {
			return nil, NewValidationError("invoice_id", "invoice belongs to a different client")
		}
		if inv.EventID != nil && *inv.EventID != in.EventID {
			return nil, NewValidationError("invoice_id", "invoice belongs to a different event")
		}
	}

	now := s.now()
	p := &models.Payment{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		EventID:        in.EventID,
		ClientID:       in.ClientID,
		InvoiceID:      in.InvoiceID,
		Type:           in.Type,
		Title:          strings.TrimSpace(in.Title),
		Category:       in.Category,
		VendorName:     in.VendorName,
		Amount:         in.Amount.Round(moneyPlaces),
		PaidAmount:     decimal.Zero,
		DueDate:        in.DueDate,
		Notes:          in.Notes,
		CreatedBy:      in.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	derivePaymentFields(p, now)

	if err := s.store.InsertPayment(ctx, p); err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}
	return p, nil
}

// GetPayment returns a payment with its status resolved as of now.
func (s *Service) GetPayment(ctx context.Context, orgID, id primitive.ObjectID) (*models.Payment, error) {
	p, err := s.loadPayment(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	derivePaymentFields(p, s.now())
	return p, nil
}

func (s *Service) ListPayments(ctx context.Context, orgID primitive.ObjectID, f PaymentFilter) ([]models.Payment, error) {
	payments, err := s.store.ListPayments(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range payments {
		derivePaymentFields(&payments[i], now)
	}
	return payments, nil
}

// UpdatePayment edits descriptive fields, the amount owed and the due date.
// The amount may not drop below what has already been paid.
func (s *Service) UpdatePayment(ctx context.Context, orgID, id primitive.ObjectID, in UpdatePaymentInput) (*models.Payment, error) {
	var updated *models.Payment
	err := s.withRetry(ctx, func() error {
		current, err := s.loadPayment(ctx, orgID, id)
		if err != nil {
			return err
		}
		next := *current

		if in.Title != nil {
			if strings.TrimSpace(*in.Title) == "" {
				return NewValidationError("title", "cannot be empty")
			}
			next.Title = strings.TrimSpace(*in.Title)
		}
		if in.Category != nil {
			next.Category = *in.Category
		}
		if in.VendorName != nil {
			next.VendorName = *in.VendorName
		}
		if in.Amount != nil {
			amount := in.Amount.Round(moneyPlaces)
			if amount.IsNegative() {
				return NewValidationError("amount", "cannot be negative")
			}
			if amount.LessThan(current.PaidAmount) {
				return NewValidationError("amount", fmt.Sprintf("cannot be less than the %s%s already paid",
					s.symbol, current.PaidAmount.StringFixed(2)))
			}
			next.Amount = amount
		}
		if in.DueDate != nil {
			next.DueDate = in.DueDate
		}

		now := s.now()
		next.UpdatedAt = now
		derivePaymentFields(&next, now)

		if err := s.store.UpdatePayment(ctx, &next, current.Version); err != nil {
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

// DeletePayment flags a payment as deleted. The record stays in the store.
func (s *Service) DeletePayment(ctx context.Context, orgID, id, deletedBy primitive.ObjectID) error {
	return s.withRetry(ctx, func() error {
		current, err := s.loadPayment(ctx, orgID, id)
		if err != nil {
			return err
		}
		// the invoice already counts this money
		if current.InvoiceID != nil && current.PaidAmount.IsPositive() {
			return NewInvalidStateError("payment", string(current.Status), "delete a payment whose money is applied to an invoice")
		}
		now := s.now()
		next := *current
		next.IsDeleted = true
		next.DeletedAt = &now
		next.DeletedBy = &deletedBy
		next.UpdatedAt = now
		return s.store.UpdatePayment(ctx, &next, current.Version)
	})
}

// RecordPayment adds money to a payment and, when the payment belongs to an
// invoice, the same money to that invoice. Overpayment is rejected rather than
// clamped so the caller can correct the amount.
func (s *Service) RecordPayment(ctx context.Context, orgID primitive.ObjectID, in RecordPaymentInput) (*models.Payment, error) {
	amount := in.Amount.Round(moneyPlaces)
	if !amount.IsPositive() {
		return nil, NewValidationError("amount", "must be at least 0.01")
	}
	if in.Method != "" && !slices.Contains(models.PaymentMethods, in.Method) {
		return nil, NewValidationError("method", fmt.Sprintf("unsupported payment method %q", in.Method))
	}
	if in.PaidDate.IsZero() {
		in.PaidDate = s.now()
	}

	var (
		recorded *models.Payment
		invoice  *models.Invoice
	)
	err := s.withRetry(ctx, func() error {
		current, err := s.loadPayment(ctx, orgID, in.PaymentID)
		if err != nil {
			return err
		}
		now := s.now()
		next, err := s.applyPayment(*current, amount, in, now)
		if err != nil {
			return err
		}

		if current.InvoiceID == nil {
			if err := s.store.UpdatePayment(ctx, &next, current.Version); err != nil {
				return err
			}
			recorded, invoice = &next, nil
			return nil
		}

		// Everything about the invoice is validated before either write.
		linked, err := s.loadInvoice(ctx, orgID, *current.InvoiceID)
		if err != nil {
			return err
		}
		nextInv, err := s.applyInvoicePayment(*linked, amount, in.PaidDate, now)
		if err != nil {
			return err
		}

		if s.store.Transactional() {
			err = s.store.RunInTransaction(ctx, func(tx context.Context) error {
				if err := s.store.UpdatePayment(tx, &next, current.Version); err != nil {
					return err
				}
				return s.store.UpdateInvoice(tx, &nextInv, linked.Version)
			})
			if err != nil {
				return err
			}
			recorded, invoice = &next, &nextInv
			return nil
		}

		if err := s.store.UpdatePayment(ctx, &next, current.Version); err != nil {
			return err
		}
		recorded = &next
		synced, err := s.syncInvoice(ctx, &next, amount, in.PaidDate, &nextInv, linked.Version)
		if err != nil {
			return err
		}
		invoice = synced
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_id", recorded.ID.Hex()).
		Str("amount", amount.StringFixed(2)).
		Str("status", string(recorded.Status)).
		Msg("payment recorded")

	s.notify(ctx, &Notification{
		Kind:           PaymentRecorded,
		OrganizationID: orgID,
		Payment:        recorded,
		Invoice:        invoice,
		Amount:         amount,
	})
	return recorded, nil
}

// applyPayment returns p with amount added. p itself is not modified.
func (s *Service) applyPayment(p models.Payment, amount decimal.Decimal, in RecordPaymentInput, now time.Time) (models.Payment, error) {
	newPaid := p.PaidAmount.Add(amount)
	if newPaid.GreaterThan(p.Amount) {
		return p, NewValidationError("amount", fmt.Sprintf("paid amount cannot exceed outstanding balance of %s%s",
			s.symbol, p.Outstanding().StringFixed(2)))
	}

	paidDate := in.PaidDate
	p.PaidAmount = newPaid
	p.PaidDate = &paidDate
	if in.Method != "" {
		p.Method = in.Method
	}
	if in.Reference != "" {
		p.Reference = in.Reference
	}
	p.Notes = appendNotes(p.Notes, in.Notes)
	p.UpdatedAt = now
	derivePaymentFields(&p, now)
	return p, nil
}

// syncInvoice writes the invoice half of a non-transactional recording. The
// payment is already stored, so conflicts are retried against a fresh invoice
// and a final failure becomes a ConsistencyError plus an outbox row.
func (s *Service) syncInvoice(ctx context.Context, p *models.Payment, amount decimal.Decimal, paidDate time.Time, next *models.Invoice, expected int64) (*models.Invoice, error) {
	var err error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err = s.store.UpdateInvoice(ctx, next, expected)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			break
		}
		fresh, loadErr := s.loadInvoice(ctx, p.OrganizationID, *p.InvoiceID)
		if loadErr != nil {
			err = loadErr
			break
		}
		applied, applyErr := s.applyInvoicePayment(*fresh, amount, paidDate, s.now())
		if applyErr != nil {
			err = applyErr
			break
		}
		next, expected = &applied, fresh.Version
	}

	cerr := &ConsistencyError{PaymentID: p.ID, InvoiceID: *p.InvoiceID, Amount: amount, Err: err}
	s.log.Error().
		Err(err).
		Str("payment_id", p.ID.Hex()).
		Str("invoice_id", p.InvoiceID.Hex()).
		Str("amount", amount.StringFixed(2)).
		Msg("invoice out of sync with recorded payment")

	failure := &models.SyncFailure{
		ID:             primitive.NewObjectID(),
		OrganizationID: p.OrganizationID,
		PaymentID:      p.ID,
		InvoiceID:      *p.InvoiceID,
		Amount:         amount,
		Error:          err.Error(),
		CreatedAt:      s.now(),
	}
	if ferr := s.store.InsertSyncFailure(context.WithoutCancel(ctx), failure); ferr != nil {
		s.log.Error().Err(ferr).Str("payment_id", p.ID.Hex()).Msg("could not store sync failure")
	}
	return nil, cerr
}

func (s *Service) loadPayment(ctx context.Context, orgID, id primitive.ObjectID) (*models.Payment, error) {
	p, err := s.store.GetPayment(ctx, orgID, id)
	if errors.Is(err, ErrNotFound) || (err == nil && p.IsDeleted) {
		return nil, NewNotFoundError("payment", id)
	}
	return p, err
}

func appendNotes(existing, add string) string {
	add = strings.TrimSpace(add)
	switch {
	case add == "":
		return existing
	case existing == "":
		return add
	default:
		return existing + "\n" + add
	}
}
