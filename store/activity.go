package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
)

// ActivityWriter persists activity entries. MongoStore and MemoryStore both
// implement it.
type ActivityWriter interface {
	InsertActivity(ctx context.Context, a *models.ActivityLog) error
}

// ActivityNotifier records every ledger notification in the activity log.
type ActivityNotifier struct {
	Writer ActivityWriter
	Symbol string
	Now    func() time.Time
}

func (a *ActivityNotifier) Notify(ctx context.Context, n *ledger.Notification) error {
	entry := activityEntry(n, a.Symbol)
	entry.ID = primitive.NewObjectID()
	entry.OrganizationID = n.OrganizationID
	entry.CreatedAt = time.Now()
	if a.Now != nil {
		entry.CreatedAt = a.Now()
	}
	if err := a.Writer.InsertActivity(ctx, entry); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func activityEntry(n *ledger.Notification, symbol string) *models.ActivityLog {
	entry := &models.ActivityLog{Action: string(n.Kind)}
	switch {
	case n.Payment != nil:
		entry.EntityType = "payment"
		entry.EntityID = n.Payment.ID
		entry.Summary = fmt.Sprintf("Recorded %s%s against %q", symbol, n.Amount.StringFixed(2), n.Payment.Title)
	case n.Invoice != nil:
		entry.EntityType = "invoice"
		entry.EntityID = n.Invoice.ID
		switch n.Kind {
		case ledger.InvoiceSent:
			entry.Summary = fmt.Sprintf("Sent invoice %s", n.Invoice.InvoiceNumber)
		case ledger.InvoiceVoided:
			entry.Summary = fmt.Sprintf("Voided invoice %s: %s", n.Invoice.InvoiceNumber, n.Invoice.CancelReason)
		default:
			entry.Summary = fmt.Sprintf("Recorded %s%s on invoice %s", symbol, n.Amount.StringFixed(2), n.Invoice.InvoiceNumber)
		}
	}
	return entry
}
