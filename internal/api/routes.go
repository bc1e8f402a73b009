// Package api wires the REST surface: route registration, request
// DTOs, and the error-to-status mapping at the transport edge.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/shortly-io/shortly/internal/metrics"
	"github.com/shortly-io/shortly/internal/shortcode"
)

// SetupRoutes registers all HTTP endpoints on the router.
//
// The management API lives under /api/v1/urls. The :id segment is a
// numeric link id except for /info, which takes the short code; gin
// requires one parameter name per path position, so both share :id.
func SetupRoutes(router *gin.Engine, h *Handlers) {
	registerValidations()

	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics", metrics.Handler())

	api := router.Group("/api/v1")
	urls := api.Group("/urls")
	{
		urls.POST("/", h.CreateURL)
		urls.GET("/:id/info", h.URLInfo)
		urls.GET("/:id/analytics", h.URLAnalytics)
		urls.PUT("/:id", h.UpdateURL)
		urls.DELETE("/:id", h.DeleteURL)
	}

	// Public redirect endpoint, at the root so short URLs stay short.
	router.GET("/:shortCode", h.Redirect)
}

// registerValidations adds the custom alias rule to gin's validator
// engine. Idempotent, safe to call per router.
func registerValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("shortcode", func(fl validator.FieldLevel) bool {
			return shortcode.ValidAlias(fl.Field().String())
		})
	}
}
