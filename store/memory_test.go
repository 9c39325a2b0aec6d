package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
)

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(false)
	p := &models.Payment{
		ID:             primitive.NewObjectID(),
		OrganizationID: primitive.NewObjectID(),
		Amount:         decimal.NewFromInt(100),
		Status:         models.PaymentPending,
	}
	if err := s.InsertPayment(ctx, p); err != nil {
		t.Fatalf("InsertPayment: %v", err)
	}

	first, _ := s.GetPayment(ctx, p.OrganizationID, p.ID)
	second, _ := s.GetPayment(ctx, p.OrganizationID, p.ID)

	first.PaidAmount = decimal.NewFromInt(40)
	if err := s.UpdatePayment(ctx, first, 0); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Version != 1 {
		t.Errorf("version = %d, want 1", first.Version)
	}

	second.PaidAmount = decimal.NewFromInt(60)
	if err := s.UpdatePayment(ctx, second, 0); !errors.Is(err, ledger.ErrVersionConflict) {
		t.Fatalf("stale update: err = %v, want ErrVersionConflict", err)
	}

	stored, _ := s.GetPayment(ctx, p.OrganizationID, p.ID)
	if !stored.PaidAmount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("paid = %s, want 40", stored.PaidAmount)
	}
}

func TestMemoryStoreScopesByOrganization(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(false)
	org := primitive.NewObjectID()
	inv := &models.Invoice{ID: primitive.NewObjectID(), OrganizationID: org, Status: models.InvoiceDraft}
	if err := s.InsertInvoice(ctx, inv); err != nil {
		t.Fatalf("InsertInvoice: %v", err)
	}

	if _, err := s.GetInvoice(ctx, primitive.NewObjectID(), inv.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("other organization: err = %v, want ErrNotFound", err)
	}
	list, _ := s.ListInvoices(ctx, primitive.NewObjectID(), ledger.InvoiceFilter{})
	if len(list) != 0 {
		t.Errorf("other organization listed %d invoices", len(list))
	}
}

func TestMemoryStoreOverdueSweep(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(false)
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	org := primitive.NewObjectID()

	owed := decimal.NewFromInt(500)

	for _, p := range []models.Payment{
		{ID: primitive.NewObjectID(), OrganizationID: org, Amount: owed, Status: models.PaymentPending, DueDate: &past},
		{ID: primitive.NewObjectID(), OrganizationID: org, Amount: owed, Status: models.PaymentPartiallyPaid, DueDate: &past},
		{ID: primitive.NewObjectID(), OrganizationID: org, Amount: owed, Status: models.PaymentPending, DueDate: &past, IsDeleted: true},
		{ID: primitive.NewObjectID(), OrganizationID: org, Amount: owed, Status: models.PaymentPending},
		{ID: primitive.NewObjectID(), OrganizationID: org, Status: models.PaymentPending, DueDate: &past},
	} {
		if err := s.InsertPayment(ctx, &p); err != nil {
			t.Fatalf("InsertPayment: %v", err)
		}
	}

	n, err := s.MarkOverduePayments(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("first sweep = %d, %v; want 1", n, err)
	}
	if n, _ = s.MarkOverduePayments(ctx, now); n != 0 {
		t.Errorf("second sweep = %d, want 0", n)
	}

	for _, inv := range []models.Invoice{
		{ID: primitive.NewObjectID(), OrganizationID: org, Total: owed, Status: models.InvoiceSent, DueDate: &past},
		{ID: primitive.NewObjectID(), OrganizationID: org, Status: models.InvoiceSent, DueDate: &past},
		{ID: primitive.NewObjectID(), OrganizationID: org, Total: owed, Status: models.InvoiceDraft, DueDate: &past},
	} {
		if err := s.InsertInvoice(ctx, &inv); err != nil {
			t.Fatalf("InsertInvoice: %v", err)
		}
	}
	if n, err = s.MarkOverdueInvoices(ctx, now); err != nil || n != 1 {
		t.Errorf("invoice sweep = %d, %v; want 1", n, err)
	}
}

func TestMemoryStoreTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(true)
	p := &models.Payment{ID: primitive.NewObjectID(), OrganizationID: primitive.NewObjectID()}
	if err := s.InsertPayment(ctx, p); err != nil {
		t.Fatalf("InsertPayment: %v", err)
	}

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx context.Context) error {
		next := *p
		next.PaidAmount = decimal.NewFromInt(10)
		if err := s.UpdatePayment(tx, &next, 0); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	stored, _ := s.GetPayment(ctx, p.OrganizationID, p.ID)
	if stored.Version != 0 || !stored.PaidAmount.IsZero() {
		t.Errorf("rolled back payment = version %d paid %s", stored.Version, stored.PaidAmount)
	}
}

func TestMemoryStoreRollbackKeepsOutsideWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(true)
	org := primitive.NewObjectID()
	inTx := &models.Payment{ID: primitive.NewObjectID(), OrganizationID: org}
	outside := &models.Payment{ID: primitive.NewObjectID(), OrganizationID: org}
	for _, p := range []*models.Payment{inTx, outside} {
		if err := s.InsertPayment(ctx, p); err != nil {
			t.Fatalf("InsertPayment: %v", err)
		}
	}
	created := &models.Invoice{ID: primitive.NewObjectID(), OrganizationID: org, Status: models.InvoiceDraft}

	boom := errors.New("boom")
	err := s.RunInTransaction(ctx, func(tx context.Context) error {
		next := *inTx
		next.PaidAmount = decimal.NewFromInt(10)
		if err := s.UpdatePayment(tx, &next, 0); err != nil {
			return err
		}
		if err := s.InsertInvoice(tx, created); err != nil {
			return err
		}

		// a concurrent request outside the transaction
		other := *outside
		other.PaidAmount = decimal.NewFromInt(25)
		if err := s.UpdatePayment(ctx, &other, 0); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, _ := s.GetPayment(ctx, org, inTx.ID)
	if got.Version != 0 || !got.PaidAmount.IsZero() {
		t.Errorf("transaction write kept: version %d paid %s", got.Version, got.PaidAmount)
	}
	if _, err := s.GetInvoice(ctx, org, created.ID); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("inserted invoice kept: err = %v", err)
	}
	got, _ = s.GetPayment(ctx, org, outside.ID)
	if got.Version != 1 || !got.PaidAmount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("outside write lost: version %d paid %s", got.Version, got.PaidAmount)
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	if got := formatInvoiceNumber(2025, 7); got != "INV-2025-0007" {
		t.Errorf("got %s", got)
	}
	if got := formatInvoiceNumber(2025, 12345); got != "INV-2025-12345" {
		t.Errorf("got %s", got)
	}
}
