package handler

import (
	"errors"
	"net/http"
	"strconv"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/internal/service"
	"route-analyzer-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AnalyzerHandler обрабатывает анализ треков без сохранения
type AnalyzerHandler struct {
	analyzerService *service.AnalyzerService
	logger          *logrus.Logger
}

// NewAnalyzerHandler создает новый AnalyzerHandler
func NewAnalyzerHandler(analyzerService *service.AnalyzerService, logger *logrus.Logger) *AnalyzerHandler {
	return &AnalyzerHandler{
		analyzerService: analyzerService,
		logger:          logger,
	}
}

// RegisterRoutes регистрирует маршруты анализа
func (h *AnalyzerHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/analyze", h.Analyze)
		api.GET("/policy", h.GetPolicy)
	}
}

// Analyze считает сводку по переданным точкам без сохранения.
// ?detail=true добавляет разбивку по сегментам.
func (h *AnalyzerHandler) Analyze(c *gin.Context) {
	var request models.AnalyzeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	for i, p := range request.Points {
		if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "point " + strconv.Itoa(i) + " is out of range"})
			return
		}
	}

	detail, _ := strconv.ParseBool(c.Query("detail"))

	response, err := h.analyzerService.AnalyzePoints(c.Request.Context(), request.Points, request.Policy, detail)
	if err != nil {
		if errors.Is(err, geo.ErrInsufficientData) || errors.Is(err, service.ErrInvalidPolicy) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Errorf("Ошибка анализа: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPolicy возвращает настроенную политику анализа
func (h *AnalyzerHandler) GetPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, h.analyzerService.Policy())
}
