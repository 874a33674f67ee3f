package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"route-analyzer-go/internal/model"
	"route-analyzer-go/internal/repository"
	"route-analyzer-go/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RouteService управляет сохраненными маршрутами и их GPX файлами
type RouteService struct {
	routeRepo repository.RouteRepository
	logger    *logrus.Logger
	staticDir string
}

// NewRouteService создает новый сервис маршрутов
func NewRouteService(routeRepo repository.RouteRepository, logger *logrus.Logger, staticDir string) *RouteService {
	return &RouteService{
		routeRepo: routeRepo,
		logger:    logger,
		staticDir: staticDir,
	}
}

// SaveRoute сохраняет GPX файл и проанализированный маршрут
func (s *RouteService) SaveRoute(ctx context.Context, meta *models.RouteMetadata, gpxData []byte) (*RouteResponse, error) {
	s.logger.Infof("Сохранение маршрута %s (%s)", meta.ID, meta.Name)

	gpxPath := ""
	if len(gpxData) > 0 {
		var err error
		gpxPath, err = s.saveGPXFile(meta.ID, gpxData)
		if err != nil {
			s.logger.Errorf("Ошибка сохранения GPX файла: %v", err)
			return nil, fmt.Errorf("failed to save gpx file: %w", err)
		}
	}

	route := &model.Route{
		ID:            meta.ID,
		Name:          meta.Name,
		Description:   meta.Description,
		Filename:      meta.Filename,
		Region:        meta.Region,
		GPXPath:       gpxPath,
		PointCount:    meta.PointCount,
		DistanceKm:    meta.Distance,
		Ascent:        meta.Ascent,
		Descent:       meta.Descent,
		ElevationMin:  meta.ElevationMin,
		ElevationMax:  meta.ElevationMax,
		MaxSlope:      meta.MaxSlope,
		AvgSlope:      meta.AvgSlope,
		PrimaryAspect: string(meta.PrimaryAspect),
	}
	for _, bucket := range models.AspectBuckets {
		route.AspectShares = append(route.AspectShares, model.AspectShare{
			RouteID: meta.ID,
			Bucket:  string(bucket),
			Percent: meta.AspectBreakdown[bucket],
		})
	}

	if err := s.routeRepo.Create(route); err != nil {
		s.logger.Errorf("Ошибка сохранения маршрута в базу данных: %v", err)
		if gpxPath != "" {
			if rmErr := os.Remove(gpxPath); rmErr != nil {
				s.logger.Warnf("Ошибка удаления GPX файла %s: %v", gpxPath, rmErr)
			}
		}
		return nil, fmt.Errorf("failed to save route to database: %w", err)
	}

	s.logger.Infof("Маршрут %s сохранен", meta.ID)
	return s.modelToResponse(route), nil
}

// GetRouteByID возвращает сохраненный маршрут
func (s *RouteService) GetRouteByID(routeID string) (*RouteResponse, error) {
	route, err := s.routeRepo.GetByID(routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return s.modelToResponse(route), nil
}

// GPXPath возвращает путь к сохраненному GPX файлу маршрута
func (s *RouteService) GPXPath(routeID string) (string, error) {
	route, err := s.routeRepo.GetByID(routeID)
	if err != nil {
		return "", fmt.Errorf("failed to get route: %w", err)
	}
	if route.GPXPath == "" {
		return "", fmt.Errorf("route %s has no gpx file: %w", routeID, repository.ErrRouteNotFound)
	}
	return route.GPXPath, nil
}

// ListRoutes возвращает страницу маршрутов по фильтру
func (s *RouteService) ListRoutes(filter repository.RouteFilter) (*ListRoutesResponse, error) {
	filter = filter.Normalize()

	routes, total, err := s.routeRepo.List(filter)
	if err != nil {
		s.logger.Errorf("Ошибка получения списка маршрутов: %v", err)
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	response := &ListRoutesResponse{
		Routes: make([]RouteResponse, len(routes)),
		Total:  total,
		Page:   filter.Page,
		Size:   filter.Size,
	}
	for i, route := range routes {
		response.Routes[i] = *s.modelToResponse(route)
	}

	s.logger.Infof("Получено %d из %d маршрутов", len(routes), total)
	return response, nil
}

// DeleteRoute удаляет маршрут и его GPX файл
func (s *RouteService) DeleteRoute(routeID string) error {
	route, err := s.routeRepo.GetByID(routeID)
	if err != nil {
		return fmt.Errorf("failed to get route for deletion: %w", err)
	}

	if err := s.routeRepo.Delete(routeID); err != nil {
		s.logger.Errorf("Ошибка удаления маршрута из базы данных: %v", err)
		return fmt.Errorf("failed to delete route from database: %w", err)
	}

	if route.GPXPath != "" {
		if err := os.Remove(route.GPXPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warnf("Ошибка удаления GPX файла %s: %v", route.GPXPath, err)
		}
	}

	s.logger.Infof("Маршрут %s удален", routeID)
	return nil
}

// saveGPXFile записывает загруженный документ в STATIC_DIR/gpx/<id>.gpx
func (s *RouteService) saveGPXFile(routeID string, data []byte) (string, error) {
	dir := filepath.Join(s.staticDir, "gpx")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create gpx directory: %w", err)
	}

	filePath := filepath.Join(dir, routeID+".gpx")
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write gpx file: %w", err)
	}

	s.logger.Infof("GPX файл сохранен: %s (%d байт)", filePath, len(data))
	return filePath, nil
}

// modelToResponse преобразует строку базы данных в ответ API
func (s *RouteService) modelToResponse(route *model.Route) *RouteResponse {
	breakdown := models.NewAspectBreakdown()
	for _, share := range route.AspectShares {
		bucket := models.AspectBucket(share.Bucket)
		if bucket.Valid() {
			breakdown[bucket] = share.Percent
		}
	}

	response := &RouteResponse{
		RouteMetadata: models.RouteMetadata{
			ID:          route.ID,
			Name:        route.Name,
			Description: route.Description,
			Filename:    route.Filename,
			Region:      route.Region,
			PointCount:  route.PointCount,
			RouteSummary: models.RouteSummary{
				Distance:        route.DistanceKm,
				Ascent:          route.Ascent,
				Descent:         route.Descent,
				ElevationMin:    route.ElevationMin,
				ElevationMax:    route.ElevationMax,
				MaxSlope:        route.MaxSlope,
				AvgSlope:        route.AvgSlope,
				PrimaryAspect:   models.AspectBucket(route.PrimaryAspect),
				AspectBreakdown: breakdown,
			},
		},
		CreatedAt: route.CreatedAt,
	}
	if route.GPXPath != "" {
		response.GPXURL = fmt.Sprintf("/api/v1/routes/%s/gpx", route.ID)
	}
	return response
}

// GenerateRouteID генерирует уникальный ID маршрута
func (s *RouteService) GenerateRouteID() string {
	return uuid.New().String()
}
