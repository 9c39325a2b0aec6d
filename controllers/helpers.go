package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/phillip/event-ledger-go/ledger"
	"github.com/phillip/event-ledger-go/logger"
	middleware "github.com/phillip/event-ledger-go/middleware"
	utils "github.com/phillip/event-ledger-go/utils"
)

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// callerIDs returns the organization and user from the auth claims. On failure
// the response has already been written.
func callerIDs(c *gin.Context) (orgID, userID primitive.ObjectID, ok bool) {
	orgID, err := primitive.ObjectIDFromHex(c.GetString(middleware.OrganizationIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid organization id"})
		return orgID, userID, false
	}
	userID, err = primitive.ObjectIDFromHex(c.GetString(middleware.UserIDKey))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
		return orgID, userID, false
	}
	return orgID, userID, true
}

func pathID(c *gin.Context, resource string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + resource + " id"})
		return oid, false
	}
	return oid, true
}

func queryID(c *gin.Context, key string) (*primitive.ObjectID, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	oid, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return nil, false
	}
	return &oid, true
}

// notModified sets the ETag header and reports whether the client copy is
// still current, in which case 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	return false
}

// respondError maps ledger errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		ve *ledger.ValidationError
		nf *ledger.NotFoundError
		se *ledger.InvalidStateError
		ce *ledger.ConsistencyError
	)
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &nf):
		c.JSON(http.StatusNotFound, gin.H{"error": nf.Error()})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, gin.H{"error": se.Error(), "status": se.Status})
	case errors.Is(err, ledger.ErrVersionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "record was modified by another request, please retry"})
	case errors.As(err, &ce):
		log := logger.WithRequestID(c.GetString(middleware.RequestIDKey))
		log.Error().Err(ce).Msg("ledger out of sync")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      "payment was recorded but the invoice could not be updated; it has been queued for reconciliation",
			"payment_id": ce.PaymentID.Hex(),
			"invoice_id": ce.InvoiceID.Hex(),
			"amount":     ce.Amount,
		})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := utils.SanitizeText(*s)
	return &clean
}
