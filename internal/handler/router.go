package handler

import (
	"net/http"

	"github.com/avoronov/url-shortener/internal/middleware"
	"github.com/avoronov/url-shortener/internal/models"
	"github.com/avoronov/url-shortener/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	linkService service.LinkService,
	analyticsService service.AnalyticsService,
	authService service.AuthService,
	jwtAuth *middleware.JWTAuth,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.Default()

	// Middleware для логгирования
	if logger != nil {
		router.Use(func(c *gin.Context) {
			logger.Info("Request",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.Next()
		})
	}

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	// Разбор токена для всех запросов: невалидный токен не отклоняет
	// запрос, роуты без guard'а остаются публичными
	router.Use(jwtAuth.Middleware())

	linkHandler := NewLinkHandler(linkService, analyticsService, authService, logger)
	authHandler := NewAuthHandler(authService, logger)

	// Публичные роуты аутентификации
	auth := router.Group("/api/auth/public")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Защищённые роуты: требуется валидный токен с ролью пользователя
	urls := router.Group("/api/urls")
	urls.Use(middleware.RequireRole(models.RoleUser))
	{
		urls.POST("/shorten", linkHandler.Shorten)
		urls.GET("/myurls", linkHandler.MyURLs)
		urls.GET("/analytics/:code", linkHandler.LinkAnalytics)
		urls.GET("/totalClicks", linkHandler.TotalClicks)
	}

	router.GET("/api/v1/health", HealthCheck)

	// Редирект (корневой путь) — публичный
	router.GET("/:code", linkHandler.Redirect)

	return router
}

// HealthCheck проверка живости сервиса
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "url-shortener",
	})
}
