package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/internal/repository"
	"route-analyzer-go/internal/service"
	"route-analyzer-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxUploadBytes ограничивает размер тела запроса с GPX
var maxUploadBytes int64 = 32 << 20

// HealthFunc сообщает, доступна ли зависимость
type HealthFunc func() error

// RouteHandler обрабатывает HTTP запросы к сохраненным маршрутам
type RouteHandler struct {
	analyzerService *service.AnalyzerService
	routeService    *service.RouteService
	dbHealth        HealthFunc
	logger          *logrus.Logger
}

// NewRouteHandler создает новый RouteHandler
func NewRouteHandler(analyzerService *service.AnalyzerService, routeService *service.RouteService, dbHealth HealthFunc, logger *logrus.Logger) *RouteHandler {
	return &RouteHandler{
		analyzerService: analyzerService,
		routeService:    routeService,
		dbHealth:        dbHealth,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршруты
func (h *RouteHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/routes", h.UploadRoute)
		api.GET("/routes", h.ListRoutes)
		api.GET("/routes/:id", h.GetRoute)
		api.DELETE("/routes/:id", h.DeleteRoute)
		api.GET("/routes/:id/gpx", h.GetRouteGPX)
		api.GET("/health", h.CheckHealth)
	}
}

// UploadRoute анализирует загруженный GPX файл и сохраняет его
func (h *RouteHandler) UploadRoute(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		h.logger.Errorf("Ошибка парсинга multipart form: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse form"})
		return
	}

	file, header, err := c.Request.FormFile("gpx")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gpx file is required"})
		return
	}
	defer file.Close()

	gpxData, err := io.ReadAll(file)
	if err != nil {
		h.logger.Errorf("Ошибка чтения gpx файла: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read gpx file"})
		return
	}
	h.logger.Infof("Получен файл %s (%d байт)", header.Filename, len(gpxData))

	meta, err := h.analyzerService.AnalyzeGPX(c.Request.Context(), header.Filename, bytes.NewReader(gpxData))
	if err != nil {
		h.respondError(c, err, "failed to analyze route")
		return
	}
	meta.ID = h.routeService.GenerateRouteID()

	route, err := h.routeService.SaveRoute(c.Request.Context(), meta, gpxData)
	if err != nil {
		h.respondError(c, err, "failed to save route")
		return
	}

	c.JSON(http.StatusCreated, route)
}

// ListRoutes возвращает маршруты по фильтрам запроса
func (h *RouteHandler) ListRoutes(c *gin.Context) {
	filter, err := parseRouteFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.routeService.ListRoutes(filter)
	if err != nil {
		h.respondError(c, err, "failed to list routes")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetRoute возвращает маршрут по ID
func (h *RouteHandler) GetRoute(c *gin.Context) {
	route, err := h.routeService.GetRouteByID(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "failed to get route")
		return
	}

	c.JSON(http.StatusOK, route)
}

// DeleteRoute удаляет маршрут по ID
func (h *RouteHandler) DeleteRoute(c *gin.Context) {
	routeID := c.Param("id")
	if err := h.routeService.DeleteRoute(routeID); err != nil {
		h.respondError(c, err, "failed to delete route")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "route deleted", "id": routeID})
}

// GetRouteGPX отдает сохраненный GPX файл маршрута
func (h *RouteHandler) GetRouteGPX(c *gin.Context) {
	path, err := h.routeService.GPXPath(c.Param("id"))
	if err != nil {
		h.respondError(c, err, "gpx file not found")
		return
	}

	c.Header("Content-Type", "application/gpx+xml")
	c.File(path)
}

// CheckHealth проверяет состояние базы данных и источника тайлов
func (h *RouteHandler) CheckHealth(c *gin.Context) {
	health := models.HealthResponse{
		Status:    "healthy",
		Database:  "ok",
		Terrarium: h.analyzerService.CheckHealth(c.Request.Context()),
		Version:   service.ServiceVersion,
	}

	if h.dbHealth != nil {
		if err := h.dbHealth(); err != nil {
			h.logger.Errorf("База данных недоступна: %v", err)
			health.Database = "error"
		}
	}

	statusCode := http.StatusOK
	if health.Database == "error" || health.Terrarium == "error" {
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// respondError сопоставляет ошибки сервиса с HTTP статусами
func (h *RouteHandler) respondError(c *gin.Context, err error, message string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Errorf("%s: %v", message, err)
		c.JSON(status, gin.H{"error": message})
		return
	}
	h.logger.Infof("%s: %v", message, err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrRouteNotFound):
		return http.StatusNotFound
	case errors.Is(err, geo.ErrInsufficientData),
		errors.Is(err, service.ErrInvalidGPX),
		errors.Is(err, service.ErrInvalidPolicy):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// parseRouteFilter читает фильтры библиотеки из строки запроса
func parseRouteFilter(c *gin.Context) (repository.RouteFilter, error) {
	filter := repository.RouteFilter{
		Search:   c.Query("search"),
		Region:   c.Query("region"),
		SortBy:   c.DefaultQuery("sort", "name"),
		SortDesc: strings.EqualFold(c.Query("order"), "desc"),
	}

	var err error
	if filter.MinDistanceKm, err = queryFloat(c, "minDistance"); err != nil {
		return filter, err
	}
	if filter.MaxDistanceKm, err = queryFloat(c, "maxDistance"); err != nil {
		return filter, err
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"minAscent", &filter.MinAscent},
		{"maxAscent", &filter.MaxAscent},
		{"minDescent", &filter.MinDescent},
		{"maxDescent", &filter.MaxDescent},
		{"minSlope", &filter.MinMaxSlope},
		{"maxSlope", &filter.MaxMaxSlope},
		{"page", &filter.Page},
		{"size", &filter.Size},
	}
	for _, field := range ints {
		if *field.dst, err = queryInt(c, field.key); err != nil {
			return filter, err
		}
	}

	if raw := c.Query("aspects"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			bucket := models.AspectBucket(strings.ToUpper(strings.TrimSpace(part)))
			if !bucket.Valid() {
				return filter, fmt.Errorf("unknown aspect %q", part)
			}
			filter.Aspects = append(filter.Aspects, string(bucket))
		}
	}

	return filter, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	value := c.Query(key)
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number", key)
	}
	return f, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	value := c.Query(key)
	if value == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return i, nil
}
