package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/event-ledger-go/config"
	"github.com/phillip/event-ledger-go/ledger"
)

// ---------------- LEDGER ----------------

// GetEventLedger returns the money totals for one event.
func GetEventLedger(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _, ok := callerIDs(c)
		if !ok {
			return
		}
		eventID, ok := pathID(c, "event")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		summary, err := svc.EventSummary(ctx, orgID, eventID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}

// ---------------- SWEEP ----------------

// SweepOverdue runs the overdue sweep on demand.
func SweepOverdue(svc *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Minute)
		defer cancel()

		res, err := svc.SweepOverdue(ctx)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, res)
	}
}

// ---------------- HEALTH ----------------
func Health(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.MongoClient == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := cfg.MongoClient.Ping(ctx, nil); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	}
}
