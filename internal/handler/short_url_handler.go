package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/SergeiKhy/shorturls/internal/models"
	"github.com/SergeiKhy/shorturls/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Сообщения об ошибках, которые видит клиент
const (
	msgMissingURL          = "Missing required field: url"
	msgInvalidBody         = "Invalid request body"
	msgInvalidURL          = "Invalid URL format"
	msgInvalidValidity     = "Validity must be a positive integer"
	msgNotAlphanumeric     = "Shortcode must be alphanumeric"
	msgShortcodeLength     = "Shortcode must be between 3 and 10 characters"
	msgShortcodeExists     = "Shortcode already exists"
	msgShortcodeNotFound   = "Shortcode not found"
	msgExpired             = "URL has expired"
	msgMissingShortcode    = "Missing shortcode parameter"
	msgInternalServerError = "Internal server error"
	msgRouteNotFound       = "Route not found"
)

type ShortURLHandler struct {
	registry       service.URLShortener
	clickProcessor service.ClickProcessor
	logger         *zap.Logger
}

func NewShortURLHandler(registry service.URLShortener, clickProcessor service.ClickProcessor, logger *zap.Logger) *ShortURLHandler {
	return &ShortURLHandler{
		registry:       registry,
		clickProcessor: clickProcessor,
		logger:         logger,
	}
}

// CreateShortURLRequest фиксированная схема тела POST /shorturls
type CreateShortURLRequest struct {
	URL       *string `json:"url"`
	Validity  *int    `json:"validity,omitempty"`
	Shortcode *string `json:"shortcode,omitempty"`
}

type CreateShortURLResponse struct {
	ShortLink string `json:"shortLink"`
	Expiry    string `json:"expiry"`
}

type ClickResponse struct {
	Timestamp string `json:"timestamp"`
	Referrer  string `json:"referrer"`
	Location  string `json:"location"`
}

type StatisticsResponse struct {
	Shortcode   string          `json:"shortcode"`
	OriginalURL string          `json:"originalUrl"`
	CreatedAt   string          `json:"createdAt"`
	ExpiryTime  string          `json:"expiryTime"`
	TotalClicks int64           `json:"totalClicks"`
	Clicks      []ClickResponse `json:"clicks"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateShortURL POST /shorturls
func (h *ShortURLHandler) CreateShortURL(c *gin.Context) {
	var req CreateShortURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		msg := bindErrorMessage(err)
		h.logger.Warn("Invalid create request", zap.String("reason", msg), zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
		return
	}

	if req.URL == nil || *req.URL == "" {
		h.logger.Warn("Missing required field: url")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingURL})
		return
	}

	if req.Validity != nil && *req.Validity <= 0 {
		h.logger.Warn("Invalid validity period", zap.Int("validity", *req.Validity))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidValidity})
		return
	}

	created, err := h.registry.Create(c.Request.Context(), &models.CreateShortURLInput{
		OriginalURL: *req.URL,
		Validity:    req.Validity,
		Shortcode:   req.Shortcode,
	})
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Failed to create short URL", zap.Error(err))
		}
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusCreated, CreateShortURLResponse{
		ShortLink: created.ShortLink,
		Expiry:    models.FormatTimestamp(created.Expiry),
	})
}

// GetStatistics GET /shorturls/:shortcode
func (h *ShortURLHandler) GetStatistics(c *gin.Context) {
	shortcode := c.Param("shortcode")
	if shortcode == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingShortcode})
		return
	}

	stats, err := h.registry.GetStatistics(c.Request.Context(), shortcode)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	c.JSON(http.StatusOK, toStatisticsResponse(stats))
}

// Redirect GET /:shortcode
func (h *ShortURLHandler) Redirect(c *gin.Context) {
	shortcode := c.Param("shortcode")
	if shortcode == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgMissingShortcode})
		return
	}

	url, click, err := h.registry.Resolve(c.Request.Context(), shortcode)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, ErrorResponse{Error: msg})
		return
	}

	// Асинхронная отправка клика в ленту аналитики
	event := &models.ClickEvent{
		Shortcode:   shortcode,
		OriginalURL: url.OriginalURL,
		Referrer:    click.Referrer,
		Location:    click.Location,
		ClientIP:    c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
		Timestamp:   click.Timestamp,
	}
	if err := h.clickProcessor.RecordClick(c.Request.Context(), event); err != nil {
		h.logger.Debug("Failed to enqueue click event (non-blocking)", zap.Error(err))
	}

	c.Redirect(http.StatusFound, url.OriginalURL)
}

// HealthCheck GET /health
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": models.FormatTimestamp(time.Now()),
		"service":   "URL Shortener Microservice",
	})
}

// NotFound отвечает на неизвестные маршруты
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: msgRouteNotFound})
}

// errorStatus сопоставляет ошибку реестра HTTP-статусу и сообщению
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		return http.StatusBadRequest, msgInvalidURL
	case errors.Is(err, service.ErrInvalidValidity):
		return http.StatusBadRequest, msgInvalidValidity
	case errors.Is(err, service.ErrShortcodeNotAlphanumeric):
		return http.StatusBadRequest, msgNotAlphanumeric
	case errors.Is(err, service.ErrShortcodeLength):
		return http.StatusBadRequest, msgShortcodeLength
	case errors.Is(err, service.ErrShortcodeExists):
		return http.StatusBadRequest, msgShortcodeExists
	case errors.Is(err, service.ErrInvalidShortcode):
		return http.StatusBadRequest, msgNotAlphanumeric
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, msgShortcodeNotFound
	case errors.Is(err, service.ErrExpired):
		return http.StatusNotFound, msgExpired
	default:
		return http.StatusInternalServerError, msgInternalServerError
	}
}

// bindErrorMessage переводит ошибку разбора JSON в сообщение для клиента
func bindErrorMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return msgMissingURL
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		switch typeErr.Field {
		case "validity":
			return msgInvalidValidity
		case "url":
			return msgInvalidURL
		case "shortcode":
			return msgNotAlphanumeric
		}
	}

	return msgInvalidBody
}

func toStatisticsResponse(stats *models.Statistics) StatisticsResponse {
	clicks := make([]ClickResponse, 0, len(stats.Clicks))
	for _, click := range stats.Clicks {
		clicks = append(clicks, ClickResponse{
			Timestamp: models.FormatTimestamp(click.Timestamp),
			Referrer:  click.Referrer,
			Location:  click.Location,
		})
	}

	return StatisticsResponse{
		Shortcode:   stats.Shortcode,
		OriginalURL: stats.OriginalURL,
		CreatedAt:   models.FormatTimestamp(stats.CreatedAt),
		ExpiryTime:  models.FormatTimestamp(stats.ExpiryTime),
		TotalClicks: stats.TotalClicks,
		Clicks:      clicks,
	}
}
