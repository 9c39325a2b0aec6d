package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncFailure is written when a payment was recorded but its linked invoice
// could not be brought in line. Rows stay open until someone reconciles them.
type SyncFailure struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	PaymentID      primitive.ObjectID `bson:"payment_id" json:"payment_id"`
	InvoiceID      primitive.ObjectID `bson:"invoice_id" json:"invoice_id"`
	Amount         decimal.Decimal    `bson:"amount" json:"amount"`
	Error          string             `bson:"error" json:"error"`
	Resolved       bool               `bson:"resolved" json:"resolved"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}

type ActivityLog struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Action         string             `bson:"action" json:"action"` // payment.recorded, invoice.sent, ...
	EntityType     string             `bson:"entity_type" json:"entity_type"`
	EntityID       primitive.ObjectID `bson:"entity_id" json:"entity_id"`
	Summary        string             `bson:"summary,omitempty" json:"summary,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
