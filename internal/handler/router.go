package handler

import (
	"github.com/SergeiKhy/shorturls/internal/middleware"
	"github.com/SergeiKhy/shorturls/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func NewRouter(
	registry service.URLShortener,
	clickProcessor service.ClickProcessor,
	rateLimiter *middleware.RateLimiter,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.SecurityHeaders())

	// Rate limiting для всех запросов
	if rateLimiter != nil {
		router.Use(rateLimiter.Middleware())
	}

	shortURLHandler := NewShortURLHandler(registry, clickProcessor, logger)

	router.GET("/health", HealthCheck)

	shorturls := router.Group("/shorturls")
	{
		shorturls.POST("", shortURLHandler.CreateShortURL)
		shorturls.GET("/:shortcode", shortURLHandler.GetStatistics)
	}

	// Редирект (корневой путь)
	router.GET("/:shortcode", shortURLHandler.Redirect)

	router.NoRoute(NotFound)

	return router
}
