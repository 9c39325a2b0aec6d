package ledger

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-ledger-go/models"
)

type PaymentFilter struct {
	EventID   *primitive.ObjectID
	InvoiceID *primitive.ObjectID
	Type      models.PaymentType
	Status    models.PaymentStatus
}

type InvoiceFilter struct {
	ClientID *primitive.ObjectID
	EventID  *primitive.ObjectID
	Status   models.InvoiceStatus
}

// Store is the persistence the ledger needs. Lookups are scoped to an
// organization and return ErrNotFound for records outside it.
//
// UpdatePayment and UpdateInvoice are compare-and-swap writes: they succeed
// only while the stored version equals expectedVersion, set the record's
// Version to expectedVersion+1, and return ErrVersionConflict otherwise.
type Store interface {
	GetPayment(ctx context.Context, orgID, id primitive.ObjectID) (*models.Payment, error)
	InsertPayment(ctx context.Context, p *models.Payment) error
	UpdatePayment(ctx context.Context, p *models.Payment, expectedVersion int64) error
	ListPayments(ctx context.Context, orgID primitive.ObjectID, f PaymentFilter) ([]models.Payment, error)

	GetInvoice(ctx context.Context, orgID, id primitive.ObjectID) (*models.Invoice, error)
	InsertInvoice(ctx context.Context, inv *models.Invoice) error
	UpdateInvoice(ctx context.Context, inv *models.Invoice, expectedVersion int64) error
	ListInvoices(ctx context.Context, orgID primitive.ObjectID, f InvoiceFilter) ([]models.Invoice, error)
	NextInvoiceNumber(ctx context.Context, orgID primitive.ObjectID, year int) (string, error)

	GetEvent(ctx context.Context, orgID, id primitive.ObjectID) (*models.Event, error)
	GetClient(ctx context.Context, orgID, id primitive.ObjectID) (*models.Client, error)

	// MarkOverduePayments moves every pending, undeleted payment due before
	// now to overdue and reports how many changed.
	MarkOverduePayments(ctx context.Context, now time.Time) (int64, error)
	// MarkOverdueInvoices does the same for sent invoices.
	MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error)

	InsertSyncFailure(ctx context.Context, f *models.SyncFailure) error

	// Transactional reports whether RunInTransaction is atomic.
	Transactional() bool
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
