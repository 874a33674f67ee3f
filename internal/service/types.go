package service

import (
	"time"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/pkg/models"
)

// RouteResponse сохраненный маршрут в ответе API
type RouteResponse struct {
	models.RouteMetadata
	GPXURL    string    `json:"gpxUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// AnalyzeResponse результат анализа без сохранения
type AnalyzeResponse struct {
	models.RouteSummary
	Policy   geo.Policy    `json:"policy"`
	Segments []geo.Segment `json:"segments,omitempty"`
}

// ListRoutesResponse страница сохраненных маршрутов
type ListRoutesResponse struct {
	Routes []RouteResponse `json:"routes"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
}

// BatchResult результат обработки одного файла пакета
type BatchResult struct {
	Filename string
	Route    *models.RouteMetadata
	Err      error
}
