package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/avoronov/url-shortener/internal/middleware"
	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/repository"
	"github.com/avoronov/url-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Форматы дат аналитики: per-link принимает дату-время,
// per-user — только дату (ISO-8601, без зоны, трактуется как UTC).
const (
	dateTimeLayout = "2006-01-02T15:04:05"
	dateLayout     = "2006-01-02"
)

type LinkHandler struct {
	linkService      service.LinkService
	analyticsService service.AnalyticsService
	authService      service.AuthService
	logger           *zap.Logger
}

func NewLinkHandler(
	linkService service.LinkService,
	analyticsService service.AnalyticsService,
	authService service.AuthService,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		linkService:      linkService,
		analyticsService: analyticsService,
		authService:      authService,
		logger:           logger,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Shorten обрабатывает POST /api/urls/shorten
func (h *LinkHandler) Shorten(c *gin.Context) {
	var input models.ShortenInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	dto, err := h.linkService.Shorten(c.Request.Context(), input.OriginalURL, user)
	if err != nil {
		if errors.Is(err, service.ErrEmptyURL) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_url",
				Message: "Original URL must not be empty",
			})
			return
		}
		h.logger.Error("Failed to shorten URL", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to shorten URL",
		})
		return
	}

	c.JSON(http.StatusOK, dto)
}

// MyURLs обрабатывает GET /api/urls/myurls
func (h *LinkHandler) MyURLs(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	links, err := h.linkService.LinksByUser(c.Request.Context(), user)
	if err != nil {
		h.logger.Error("Failed to list user links", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to list links",
		})
		return
	}

	c.JSON(http.StatusOK, links)
}

// LinkAnalytics обрабатывает GET /api/urls/analytics/:code
func (h *LinkHandler) LinkAnalytics(c *gin.Context) {
	code := c.Param("code")

	start, err := time.ParseInLocation(dateTimeLayout, c.Query("startDate"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_date",
			Message: "startDate must be an ISO-8601 date-time, e.g. 2023-10-01T00:00:00",
		})
		return
	}
	end, err := time.ParseInLocation(dateTimeLayout, c.Query("endDate"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_date",
			Message: "endDate must be an ISO-8601 date-time, e.g. 2023-10-07T23:59:59",
		})
		return
	}

	stats, err := h.analyticsService.LinkClicksByDay(c.Request.Context(), code, start, end)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to get link analytics", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get analytics",
		})
		return
	}

	if stats == nil {
		stats = []models.DailyClicks{}
	}
	c.JSON(http.StatusOK, stats)
}

// TotalClicks обрабатывает GET /api/urls/totalClicks
func (h *LinkHandler) TotalClicks(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	start, err := time.ParseInLocation(dateLayout, c.Query("startDate"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_date",
			Message: "startDate must be an ISO-8601 date, e.g. 2023-10-01",
		})
		return
	}
	end, err := time.ParseInLocation(dateLayout, c.Query("endDate"), time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_date",
			Message: "endDate must be an ISO-8601 date, e.g. 2023-10-07",
		})
		return
	}

	totals, err := h.analyticsService.UserClicksByDay(c.Request.Context(), user, start, end)
	if err != nil {
		h.logger.Error("Failed to get user totals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get analytics",
		})
		return
	}

	c.JSON(http.StatusOK, totals)
}

// Redirect обрабатывает GET /:code — публичный роут
func (h *LinkHandler) Redirect(c *gin.Context) {
	code := c.Param("code")

	destination, err := h.linkService.Resolve(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Link not found",
			})
			return
		}
		h.logger.Error("Failed to resolve short code", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to resolve link",
		})
		return
	}

	c.Redirect(http.StatusFound, destination)
}

// currentUser резолвит Principal запроса в запись пользователя.
// Принципал передаётся явно через контекст запроса, глобального
// security-контекста нет.
func (h *LinkHandler) currentUser(c *gin.Context) (*models.User, bool) {
	principal, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Authentication required",
		})
		return nil, false
	}

	user, err := h.authService.GetByUsername(c.Request.Context(), principal.Username)
	if err != nil {
		h.logger.Warn("Principal has no user record", zap.String("username", principal.Username), zap.Error(err))
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthenticated",
			Message: "Unknown user",
		})
		return nil, false
	}

	return user, true
}
