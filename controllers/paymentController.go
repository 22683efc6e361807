package controllers

import (
	"MedOffice/handlers"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

type PaymentRoutes struct {
	Payments   *handlers.PaymentHandler
	Alerts     *handlers.AlertHandler
	Statistics *handlers.StatisticsHandler
	Reports    *handlers.ReportHandler
}

// SetupPaymentRoutes registers the payment, alert, statistics and report routes.
// Listings and reports are gzip compressed.
func SetupPaymentRoutes(router gin.IRouter, r PaymentRoutes) {
	compressed := gzip.Gzip(gzip.BestSpeed)

	payments := router.Group("/payments")
	{
		payments.POST("", r.Payments.CreatePayment)
		payments.GET("", compressed, r.Payments.ListPayments)
		payments.GET("/search", compressed, r.Payments.SearchPayments)
		payments.GET("/:id", r.Payments.GetPayment)
		payments.PATCH("/:id", r.Payments.UpdatePayment)
		payments.DELETE("/:id", r.Payments.DeletePayment)

		payments.POST("/:id/cash", r.Payments.RegisterCash)
		payments.POST("/:id/transfer", r.Payments.VerifyTransfer)
		payments.POST("/:id/wallet/checkout", r.Payments.WalletCheckout)
		payments.POST("/:id/wallet/callback", r.Payments.WalletCallback)
		payments.POST("/:id/cancel", r.Payments.CancelPayment)
		payments.POST("/:id/invoice", r.Payments.IssueInvoice)
		payments.POST("/:id/installments", r.Payments.CreateInstallment)
		payments.POST("/:id/alerts/:alert_id/sent", r.Alerts.MarkSent)
	}

	router.GET("/treatment-groups/:group_id", r.Payments.GetTreatmentGroup)

	alerts := router.Group("/alerts")
	{
		alerts.GET("/due", compressed, r.Alerts.DueAlerts)
		alerts.POST("/sweep", r.Alerts.Sweep)
		alerts.POST("/dispatch", r.Alerts.Dispatch)
	}

	statistics := router.Group("/statistics")
	{
		statistics.GET("/daily", r.Statistics.Daily)
		statistics.GET("/monthly", r.Statistics.Monthly)
		statistics.GET("/pending", r.Statistics.Pending)
		statistics.GET("/overdue", r.Statistics.Overdue)
		statistics.GET("/by-method", r.Statistics.ByMethod)
		statistics.GET("/by-treatment-type", r.Statistics.ByTreatmentType)
	}

	router.GET("/reports/payments.xlsx", compressed, r.Reports.PaymentsXLSX)
}

// SetupWebhookRoutes registers provider callbacks. They authenticate by signature, not bearer token.
func SetupWebhookRoutes(router gin.IRouter, webhooks *handlers.WebhookHandler) {
	router.POST("/webhooks/midtrans", webhooks.Midtrans)
}
