package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePartial   InvoiceStatus = "partial"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

type LineItem struct {
	Description string          `bson:"description" json:"description"`
	Quantity    decimal.Decimal `bson:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `bson:"unit_price" json:"unit_price"`
	Amount      decimal.Decimal `bson:"amount" json:"amount"` // quantity * unit_price, never taken from input
}

type Invoice struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID  `bson:"organization_id" json:"organization_id"`
	ClientID       primitive.ObjectID  `bson:"client_id" json:"client_id"`
	EventID        *primitive.ObjectID `bson:"event_id,omitempty" json:"event_id,omitempty"`
	InvoiceNumber  string              `bson:"invoice_number" json:"invoice_number"`
	Items          []LineItem          `bson:"items" json:"items"`
	Currency       string              `bson:"currency" json:"currency"`

	TaxRate        decimal.Decimal `bson:"tax_rate" json:"tax_rate"`
	Discount       decimal.Decimal `bson:"discount" json:"discount"`
	DiscountType   DiscountType    `bson:"discount_type" json:"discount_type"`
	Subtotal       decimal.Decimal `bson:"subtotal" json:"subtotal"`
	DiscountAmount decimal.Decimal `bson:"discount_amount" json:"discount_amount"`
	TaxableAmount  decimal.Decimal `bson:"taxable_amount" json:"taxable_amount"`
	TaxAmount      decimal.Decimal `bson:"tax_amount" json:"tax_amount"`
	Total          decimal.Decimal `bson:"total" json:"total"`
	PaidAmount     decimal.Decimal `bson:"paid_amount" json:"paid_amount"`
	BalanceAmount  decimal.Decimal `bson:"balance_amount" json:"balance_amount"`

	Status       InvoiceStatus `bson:"status" json:"status"`
	IssueDate    time.Time     `bson:"issue_date" json:"issue_date"`
	DueDate      *time.Time    `bson:"due_date,omitempty" json:"due_date,omitempty"`
	SentAt       *time.Time    `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	PaidAt       *time.Time    `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CancelledAt  *time.Time    `bson:"cancelled_at,omitempty" json:"cancelled_at,omitempty"`
	CancelReason string        `bson:"cancel_reason,omitempty" json:"cancel_reason,omitempty"`
	Notes        string        `bson:"notes,omitempty" json:"notes,omitempty"`
	Terms        string        `bson:"terms,omitempty" json:"terms,omitempty"`

	Version   int64              `bson:"version" json:"version"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
