package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PaymentType string

const (
	ClientPayment PaymentType = "client_payment"
	VendorPayment PaymentType = "vendor_payment"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
	PaymentOverdue       PaymentStatus = "overdue"
)

// PaymentMethods lists the accepted values for Payment.Method.
var PaymentMethods = []string{"cash", "bank_transfer", "upi", "cheque", "card", "online", "other"}

type Payment struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID    primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	EventID           primitive.ObjectID  `bson:"event_id" json:"event_id"`
	ClientID          *primitive.ObjectID `bson:"client_id,omitempty" json:"client_id,omitempty"`
	InvoiceID         *primitive.ObjectID `bson:"invoice_id,omitempty" json:"invoice_id,omitempty"`
	Type              PaymentType         `bson:"type" json:"type"`
	Title             string              `bson:"title" json:"title"`
	Category          string              `bson:"category,omitempty" json:"category,omitempty"`
	VendorName        string              `bson:"vendor_name,omitempty" json:"vendor_name,omitempty"`
	Amount            decimal.Decimal     `bson:"amount" json:"amount"`
	PaidAmount        decimal.Decimal     `bson:"paid_amount" json:"paid_amount"`
	OutstandingAmount decimal.Decimal     `bson:"outstanding_amount" json:"outstanding_amount"` // amount - paid_amount
	DueDate           *time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	PaidDate          *time.Time          `bson:"paid_date,omitempty" json:"paid_date,omitempty"`
	Status            PaymentStatus       `bson:"status" json:"status"`
	Method            string              `bson:"method,omitempty" json:"method,omitempty"`
	Reference         string              `bson:"reference,omitempty" json:"reference,omitempty"`
	Notes             string              `bson:"notes,omitempty" json:"notes,omitempty"`
	IsDeleted         bool                `bson:"is_deleted" json:"-"`
	DeletedAt         *time.Time          `bson:"deleted_at,omitempty" json:"-"`
	DeletedBy         *primitive.ObjectID `bson:"deleted_by,omitempty" json:"-"`
	Version           int64               `bson:"version" json:"version"`
	CreatedBy         primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt         time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updated_at"`
}

// Outstanding returns amount minus paid amount.
func (p *Payment) Outstanding() decimal.Decimal {
	return p.Amount.Sub(p.PaidAmount)
}
