package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
	utils "github.com/phillip/event-ledger-go/utils"
)

type lineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

type createInvoiceRequest struct {
	ClientID     primitive.ObjectID  `json:"client_id"`
	EventID      *primitive.ObjectID `json:"event_id"`
	Items        []lineItemRequest   `json:"items" binding:"required,dive"`
	TaxRate      decimal.Decimal     `json:"tax_rate"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType models.DiscountType `json:"discount_type"`
	IssueDate    *string             `json:"issue_date"`
	DueDate      *string             `json:"due_date"`
	Currency     string              `json:"currency"`
	Notes        string              `json:"notes"`
	Terms        string              `json:"terms"`
}

type updateInvoiceRequest struct {
	Items        []lineItemRequest    `json:"items" binding:"omitempty,dive"`
	TaxRate      *decimal.Decimal     `json:"tax_rate"`
	Discount     *decimal.Decimal     `json:"discount"`
	DiscountType *models.DiscountType `json:"discount_type"`
	DueDate      *string              `json:"due_date"`
	Notes        *string              `json:"notes"`
	Terms        *string              `json:"terms"`
}

type calculateRequest struct {
	Items        []lineItemRequest   `json:"items" binding:"required,dive"`
	TaxRate      decimal.Decimal     `json:"tax_rate"`
	Discount     decimal.Decimal     `json:"discount"`
	DiscountType models.DiscountType `json:"discount_type"`
}

type invoicePaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	PaidDate *string         `json:"paid_date"`
}

type voidInvoiceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func toLineItems(in []lineItemRequest) []models.LineItem {
	if in == nil {
		return nil
	}
	items := make([]models.LineItem, len(in))
	for i, it := range in {
		items[i] = models.LineItem{
			Description: utils.SanitizeText(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		}
	}
	return items
}

// ---------------- CREATE ----------------
func CreateInvoice(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, userID, ok := callerIDs(c)
		if !ok {
			return
		}

		var input createInvoiceRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.ClientID.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
			return
		}
		issueDate, err := utils.ParseOptionalDate(input.IssueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "issue_date: " + err.Error()})
			return
		}
		dueDate, err := utils.ParseOptionalDate(input.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date: " + err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		invoice, err := svc.CreateInvoice(ctx, orgID, ledger.CreateInvoiceInput{
			ClientID:     input.ClientID,
			EventID:      input.EventID,
			Items:        toLineItems(input.Items),
			TaxRate:      input.TaxRate,
			Discount:     input.Discount,
			DiscountType: input.DiscountType,
			IssueDate:    issueDate,
			DueDate:      dueDate,
			Currency:     strings.TrimSpace(input.Currency),
			Notes:        utils.SanitizeText(input.Notes),
			Terms:        utils.SanitizeText(input.Terms),
			CreatedBy:    userID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, invoice)
	}
}

// ---------------- CALCULATE ----------------

// CalculateInvoice previews totals without storing anything.
func CalculateInvoice() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input calculateRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		totals, err := ledger.CalculateTotals(toLineItems(input.Items), input.TaxRate, input.Discount, input.DiscountType)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, totals)
	}
}

// ---------------- LIST ----------------
func ListInvoices(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}

		var filter ledger.InvoiceFilter
		if filter.ClientID, ok = queryID(c, "client_id"); !ok {
			return
		}
		if filter.EventID, ok = queryID(c, "event_id"); !ok {
			return
		}
		filter.Status = models.InvoiceStatus(c.Query("status"))

		ctx, cancel := requestContext(c)
		defer cancel()

		invoices, err := svc.ListInvoices(ctx, orgID, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(invoices) == 0 {
			c.JSON(http.StatusOK, []models.Invoice{})
			return
		}

		latest := invoices[0]
		statuses := make([]string, len(invoices))
		for i, inv := range invoices {
			if inv.UpdatedAt.After(latest.UpdatedAt) {
				latest = inv
			}
			statuses[i] = string(inv.Status)
		}
		if notModified(c, utils.GenerateETag(latest.ID, latest.UpdatedAt, statuses...)) {
			return
		}
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, invoices)
	}
}

// ---------------- GET ----------------
func GetInvoice(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "invoice")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		invoice, err := svc.GetInvoice(ctx, orgID, id)
		if err != nil {
			respondError(c, err)
			return
		}

		if notModified(c, utils.GenerateETag(invoice.ID, invoice.UpdatedAt, string(invoice.Status))) {
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

// ---------------- UPDATE ----------------

// UpdateInvoice edits a draft. Issued invoices answer 409.
func UpdateInvoice(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "invoice")
		if !ok {
			return
		}

		var input updateInvoiceRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dueDate, err := utils.ParseOptionalDate(input.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date: " + err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		invoice, err := svc.UpdateInvoiceDraft(ctx, orgID, id, ledger.UpdateInvoiceInput{
			Items:        toLineItems(input.Items),
			TaxRate:      input.TaxRate,
			Discount:     input.Discount,
			DiscountType: input.DiscountType,
			DueDate:      dueDate,
			Notes:        sanitizeOptional(input.Notes),
			Terms:        sanitizeOptional(input.Terms),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, invoice)
	}
}

// ---------------- SEND ----------------
func SendInvoice(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "invoice")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		invoice, err := svc.SendInvoice(ctx, orgID, id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, invoice)
	}
}

// ---------------- VOID ----------------
func VoidInvoice(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "invoice")
		if !ok {
			return
		}

		var input voidInvoiceRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		invoice, err := svc.VoidInvoice(ctx, orgID, id, utils.SanitizeText(input.Reason))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, invoice)
	}
}

// ---------------- PAYMENTS ----------------
func RecordInvoicePayment(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "invoice")
		if !ok {
			return
		}

		var input invoicePaymentRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		paidDate, err := utils.ParseOptionalDate(input.PaidDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paid_date: " + err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		var when time.Time
		if paidDate != nil {
			when = *paidDate
		}
		invoice, err := svc.RecordInvoicePayment(ctx, orgID, id, input.Amount, when)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, invoice)
	}
}
