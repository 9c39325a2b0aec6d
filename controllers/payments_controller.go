package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	models "github.com/phillip/event-ledger-go/models"
	utils "github.com/phillip/event-ledger-go/utils"
)

type createPaymentRequest struct {
	EventID    primitive.ObjectID  `json:"event_id"`
	ClientID   *primitive.ObjectID `json:"client_id"`
	InvoiceID  *primitive.ObjectID `json:"invoice_id"`
	Type       models.PaymentType  `json:"type" binding:"required"`
	Title      string              `json:"title" binding:"required"`
	Category   string              `json:"category"`
	VendorName string              `json:"vendor_name"`
	Amount     *decimal.Decimal    `json:"amount"`
	DueDate    *string             `json:"due_date"`
	Notes      string              `json:"notes"`
}

type updatePaymentRequest struct {
	Title      *string          `json:"title"`
	Category   *string          `json:"category"`
	VendorName *string          `json:"vendor_name"`
	Amount     *decimal.Decimal `json:"amount"`
	DueDate    *string          `json:"due_date"`
}

type recordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	PaidDate  *string         `json:"paid_date"`
	Method    string          `json:"method"`
	Reference string          `json:"reference"`
	Notes     string          `json:"notes"`
}

// ---------------- CREATE ----------------
func CreatePayment(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, userID, ok := callerIDs(c)
		if !ok {
			return
		}

		var input createPaymentRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.EventID.IsZero() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "event_id is required"})
			return
		}
		if input.Amount == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
			return
		}
		dueDate, err := utils.ParseOptionalDate(input.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date: " + err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		payment, err := svc.CreatePayment(ctx, orgID, ledger.CreatePaymentInput{
			EventID:    input.EventID,
			ClientID:   input.ClientID,
			InvoiceID:  input.InvoiceID,
			Type:       input.Type,
			Title:      utils.SanitizeText(input.Title),
			Category:   utils.SanitizeText(input.Category),
			VendorName: utils.SanitizeText(input.VendorName),
			Amount:     *input.Amount,
			DueDate:    dueDate,
			Notes:      utils.SanitizeText(input.Notes),
			CreatedBy:  userID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, payment)
	}
}

// ---------------- LIST ----------------
func ListPayments(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}

		// --- Build filter ---
		var filter ledger.PaymentFilter
		if filter.EventID, ok = queryID(c, "event_id"); !ok {
			return
		}
		if filter.InvoiceID, ok = queryID(c, "invoice_id"); !ok {
			return
		}
		filter.Type = models.PaymentType(c.Query("type"))
		filter.Status = models.PaymentStatus(c.Query("status"))

		ctx, cancel := requestContext(c)
		defer cancel()

		payments, err := svc.ListPayments(ctx, orgID, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(payments) == 0 {
			c.JSON(http.StatusOK, []models.Payment{})
			return
		}

		// --- Pick the most recently updated payment ---
		latest := payments[0]
		for _, p := range payments {
			if p.UpdatedAt.After(latest.UpdatedAt) {
				latest = p
			}
		}
		statuses := make([]string, len(payments))
		for i, p := range payments {
			statuses[i] = string(p.Status)
		}
		if notModified(c, utils.GenerateETag(latest.ID, latest.UpdatedAt, statuses...)) {
			return
		}
		c.Header("Last-Modified", latest.UpdatedAt.UTC().Format(http.TimeFormat))

		c.JSON(http.StatusOK, payments)
	}
}

// ---------------- GET ----------------
func GetPayment(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "payment")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		payment, err := svc.GetPayment(ctx, orgID, id)
		if err != nil {
			respondError(c, err)
			return
		}

		if notModified(c, utils.GenerateETag(payment.ID, payment.UpdatedAt, string(payment.Status))) {
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

// ---------------- UPDATE ----------------
func UpdatePayment(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "payment")
		if !ok {
			return
		}

		var input updatePaymentRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		dueDate, err := utils.ParseOptionalDate(input.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "due_date: " + err.Error()})
			return
		}
		if input.Title == nil && input.Category == nil && input.VendorName == nil && input.Amount == nil && dueDate == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		payment, err := svc.UpdatePayment(ctx, orgID, id, ledger.UpdatePaymentInput{
			Title:      sanitizeOptional(input.Title),
			Category:   sanitizeOptional(input.Category),
			VendorName: sanitizeOptional(input.VendorName),
			Amount:     input.Amount,
			DueDate:    dueDate,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, payment)
	}
}

// ---------------- RECORD ----------------
func RecordPayment(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "payment")
		if !ok {
			return
		}

		var input recordPaymentRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		paidDate, err := utils.ParseOptionalDate(input.PaidDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "paid_date: " + err.Error()})
			return
		}

		rec := ledger.RecordPaymentInput{
			PaymentID: id,
			Amount:    input.Amount,
			Method:    input.Method,
			Reference: utils.SanitizeText(input.Reference),
			Notes:     utils.SanitizeText(input.Notes),
		}
		if paidDate != nil {
			rec.PaidDate = *paidDate
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		payment, err := svc.RecordPayment(ctx, orgID, rec)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, payment)
	}
}

// ---------------- DELETE ----------------
func DeletePayment(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, userID, ok := callerIDs(c)
		if !ok {
			return
		}
		id, ok := pathID(c, "payment")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := svc.DeletePayment(ctx, orgID, id, userID); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "payment deleted", "id": id.Hex()})
	}
}
