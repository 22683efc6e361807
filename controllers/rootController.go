package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// rootHandler handles requests to the root path
func rootHandler(c *gin.Context) {
	c.String(http.StatusOK, "MedOffice payments API")
}

// SetupRootRoute registers the root and metrics routes.
func SetupRootRoute(router gin.IRouter, metricsHandler http.Handler) {
	router.GET("/", rootHandler)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
}
