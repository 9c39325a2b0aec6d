package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/event-ledger-go/models"
)

type NotificationKind string

const (
	PaymentRecorded        NotificationKind = "payment.recorded"
	InvoiceSent            NotificationKind = "invoice.sent"
	InvoiceVoided          NotificationKind = "invoice.voided"
	InvoicePaymentRecorded NotificationKind = "invoice.payment_recorded"
)

// Notification describes a completed ledger write. Notifiers run in order and
// may fill DocumentURL for the ones after them.
type Notification struct {
	Kind           NotificationKind
	OrganizationID primitive.ObjectID
	Payment        *models.Payment
	Invoice        *models.Invoice
	Amount         decimal.Decimal
	DocumentURL    string
}

// Notifier is a downstream collaborator (mail, documents, activity log).
// Its errors are logged by the service and never fail the ledger write.
type Notifier interface {
	Notify(ctx context.Context, n *Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n *Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}
