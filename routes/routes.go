package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/phillip/event-ledger-go/config"
	controllers "github.com/phillip/event-ledger-go/controllers"
	"github.com/phillip/event-ledger-go/ledger"
	middleware "github.com/phillip/event-ledger-go/middleware"
)

const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, svc *ledger.Service) {
	// public
	r.GET("/health", controllers.Health(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)
	managers := middleware.RequireRole(RoleOwner, RoleAdmin)

	payments := r.Group("/payments")
	payments.Use(auth)
	{
		payments.POST("", controllers.CreatePayment(svc))
		payments.GET("", controllers.ListPayments(svc))
		payments.GET("/:id", controllers.GetPayment(svc))
		payments.PATCH("/:id", controllers.UpdatePayment(svc))
		payments.POST("/:id/record", controllers.RecordPayment(svc))
		payments.DELETE("/:id", managers, controllers.DeletePayment(svc))
	}

	invoices := r.Group("/invoices")
	invoices.Use(auth)
	{
		invoices.POST("", controllers.CreateInvoice(svc))
		invoices.POST("/calculate", controllers.CalculateInvoice())
		invoices.GET("", controllers.ListInvoices(svc))
		invoices.GET("/:id", controllers.GetInvoice(svc))
		invoices.PATCH("/:id", controllers.UpdateInvoice(svc))
		invoices.POST("/:id/send", controllers.SendInvoice(svc))
		invoices.POST("/:id/void", managers, controllers.VoidInvoice(svc))
		invoices.POST("/:id/payments", controllers.RecordInvoicePayment(svc))
	}

	events := r.Group("/events")
	events.Use(auth)
	{
		events.GET("/:id/ledger", controllers.GetEventLedger(svc))
	}

	admin := r.Group("/admin")
	admin.Use(auth, managers)
	{
		admin.POST("/sweep-overdue", controllers.SweepOverdue(svc))
	}
}
