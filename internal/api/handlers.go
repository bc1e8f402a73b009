package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/shortly-io/shortly/internal/errors"
	"github.com/shortly-io/shortly/internal/geoip"
	"github.com/shortly-io/shortly/internal/metrics"
	"github.com/shortly-io/shortly/internal/models"
	"github.com/shortly-io/shortly/internal/services"
	"github.com/shortly-io/shortly/internal/workers"
)

// Handlers bundles the HTTP handlers' dependencies.
type Handlers struct {
	links     *services.LinkService
	analytics *services.AnalyticsService
	pool      *workers.Pool
	baseURL   string
	log       *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(links *services.LinkService, analytics *services.AnalyticsService, pool *workers.Pool, baseURL string, log *zap.Logger) *Handlers {
	return &Handlers{links: links, analytics: analytics, pool: pool, baseURL: baseURL, log: log}
}

// createURLRequest is the POST /api/v1/urls/ body. URL semantics are
// validated by the service so that the error taxonomy stays in one
// place; binding covers presence and alias shape.
type createURLRequest struct {
	OriginalURL string     `json:"original_url" binding:"required"`
	CustomAlias string     `json:"custom_alias" binding:"omitempty,shortcode"`
	Title       string     `json:"title" binding:"omitempty,max=255"`
	Description string     `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

// updateURLRequest is the PUT /api/v1/urls/:id body. Nil fields are
// left untouched.
type updateURLRequest struct {
	Title       *string    `json:"title" binding:"omitempty,max=255"`
	Description *string    `json:"description"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    *bool      `json:"is_active"`
}

// linkResponse is the Link representation returned by the API.
type linkResponse struct {
	ID          uint       `json:"id"`
	OriginalURL string     `json:"original_url"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	CustomAlias string     `json:"custom_alias,omitempty"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClickCount  int64      `json:"click_count"`
}

func (h *Handlers) linkResponse(link *models.Link, clickCount int64) linkResponse {
	return linkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortCode:   link.ShortCode,
		ShortURL:    h.baseURL + "/" + link.ShortCode,
		CustomAlias: link.CustomAlias,
		Title:       link.Title,
		Description: link.Description,
		IsActive:    link.IsActive,
		ExpiresAt:   link.ExpiresAt,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
		ClickCount:  clickCount,
	}
}

// CreateURL handles POST /api/v1/urls/.
func (h *Handlers) CreateURL(c *gin.Context) {
	var req createURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": bindingDetail(err)})
		return
	}

	link, err := h.links.Create(c.Request.Context(), services.CreateParams{
		OriginalURL: req.OriginalURL,
		CustomAlias: req.CustomAlias,
		Title:       req.Title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.linkResponse(link, 0))
}

// URLInfo handles GET /api/v1/urls/:id/info, where :id is a short code.
// The click count is recomputed from the event log.
func (h *Handlers) URLInfo(c *gin.Context) {
	link, total, err := h.links.Info(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.linkResponse(link, total))
}

// UpdateURL handles PUT /api/v1/urls/:id.
func (h *Handlers) UpdateURL(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req updateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": bindingDetail(err)})
		return
	}
	link, err := h.links.Update(c.Request.Context(), id, services.UpdateParams{
		Title:       req.Title,
		Description: req.Description,
		ExpiresAt:   req.ExpiresAt,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.linkResponse(link, link.ClickCount))
}

// DeleteURL handles DELETE /api/v1/urls/:id.
func (h *Handlers) DeleteURL(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.links.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "URL deleted successfully"})
}

// URLAnalytics handles GET /api/v1/urls/:id/analytics.
func (h *Handlers) URLAnalytics(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	report, err := h.analytics.Compute(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// Redirect handles GET /:shortCode, the public redirect endpoint. The
// click event is enqueued best effort and never delays or fails the
// redirect.
func (h *Handlers) Redirect(c *gin.Context) {
	code := c.Param("shortCode")

	link, err := h.links.Resolve(c.Request.Context(), code)
	if err != nil {
		metrics.Redirects.WithLabelValues(redirectOutcome(err)).Inc()
		h.writeError(c, err)
		return
	}

	h.pool.Enqueue(models.ClickEvent{
		LinkID:      link.ID,
		ClickedAt:   time.Now(),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
		Referer:     c.GetHeader("Referer"),
		CountryHint: geoip.CountryFromHeader(c.Request.Header),
	})

	metrics.Redirects.WithLabelValues("success").Inc()
	c.Redirect(http.StatusFound, link.OriginalURL)
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Root handles GET /.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "URL Shortener API",
		"version": "1.0.0",
	})
}

// pathID parses the numeric :id parameter, answering 400 itself when
// the value is not a number.
func (h *Handlers) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid URL id"})
		return 0, false
	}
	return uint(id), true
}

// writeError maps the error taxonomy to status codes at the edge, so
// handlers and services never deal in raw status numbers.
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrLinkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	case errors.Is(err, apperrors.ErrInvalidURL), errors.Is(err, apperrors.ErrInvalidAlias):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.Is(err, apperrors.ErrAliasConflict):
		c.JSON(http.StatusConflict, gin.H{"detail": err.Error()})
	case errors.Is(err, apperrors.ErrLinkExpired), errors.Is(err, apperrors.ErrLinkInactive):
		c.JSON(http.StatusGone, gin.H{"detail": err.Error()})
	case errors.Is(err, apperrors.ErrGenerationExhausted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": err.Error()})
	default:
		h.log.Error("unhandled request error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
	}
}

func redirectOutcome(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrLinkNotFound):
		return "not_found"
	case errors.Is(err, apperrors.ErrLinkExpired):
		return "expired"
	case errors.Is(err, apperrors.ErrLinkInactive):
		return "inactive"
	default:
		return "error"
	}
}

// bindingDetail turns binding failures into the human-readable detail
// message the client renders.
func bindingDetail(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		switch f.Field() {
		case "OriginalURL":
			return "original_url is required"
		case "CustomAlias":
			return apperrors.ErrInvalidAlias.Error()
		case "Title":
			return "title must be at most 255 characters"
		}
		return "invalid value for " + f.Field()
	}
	return "invalid request body: " + err.Error()
}
