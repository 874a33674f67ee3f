package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/internal/gpx"
	"route-analyzer-go/pkg/models"

	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidGPX возвращается, если загрузку нельзя прочитать как GPX трек
	ErrInvalidGPX = errors.New("invalid gpx document")
	// ErrInvalidPolicy возвращается при недопустимом переопределении политики
	ErrInvalidPolicy = errors.New("invalid analysis policy")
)

// ServiceVersion отдается эндпоинтом health
const ServiceVersion = "1.0.0"

// TerrainSource дает высоты для точек, записанных без высоты
type TerrainSource interface {
	ElevationAt(ctx context.Context, lat, lon float64, zoom int) (float64, error)
	CheckHealth(ctx context.Context) error
}

// AnalyzerService выполняет анализ треков для API и пакетной утилиты
type AnalyzerService struct {
	analyzer *geo.Analyzer
	terrain  TerrainSource
	backfill bool
	zoom     int
	logger   *logrus.Logger
}

// NewAnalyzerService создает новый сервис анализа. terrain может быть nil,
// тогда дозаполнение высот отключено.
func NewAnalyzerService(analyzer *geo.Analyzer, terrain TerrainSource, backfill bool, zoom int, logger *logrus.Logger) *AnalyzerService {
	return &AnalyzerService{
		analyzer: analyzer,
		terrain:  terrain,
		backfill: backfill && terrain != nil,
		zoom:     zoom,
		logger:   logger,
	}
}

// Policy возвращает настроенную политику анализа
func (s *AnalyzerService) Policy() geo.Policy {
	return s.analyzer.Policy()
}

// AnalyzePoints анализирует точки, при необходимости с политикой из запроса
func (s *AnalyzerService) AnalyzePoints(ctx context.Context, points []models.TrackPoint, override *models.PolicyRequest, detail bool) (*AnalyzeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	analyzer, err := s.analyzerFor(override)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	summary, err := analyzer.Analyze(points)
	if err != nil {
		return nil, err
	}

	response := &AnalyzeResponse{
		RouteSummary: *summary,
		Policy:       analyzer.Policy(),
	}
	if detail {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segments, err := analyzer.Segments(points)
		if err != nil {
			return nil, err
		}
		response.Segments = segments
	}

	s.logger.Infof("Проанализировано %d точек за %v: %.2f км, основная экспозиция %s",
		len(points), time.Since(startTime), summary.Distance, summary.PrimaryAspect)
	return response, nil
}

// AnalyzeGPX разбирает GPX документ, дозаполняет высоты (если включено)
// и возвращает метаданные маршрута. ID берется из имени файла.
func (s *AnalyzerService) AnalyzeGPX(ctx context.Context, filename string, r io.Reader) (*models.RouteMetadata, error) {
	track, err := gpx.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidGPX, filename, err)
	}

	base := filepath.Base(filename)
	if track.Name == "" {
		track.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if len(track.MissingElevation) > 0 {
		s.backfillElevation(ctx, track)
	}

	summary, err := s.analyzer.Analyze(track.Points)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	s.logger.Infof("Проанализирован %s: %.2f км, +%dм/-%dм, макс %d°, основная %s",
		base, summary.Distance, summary.Ascent, summary.Descent, summary.MaxSlope, summary.PrimaryAspect)

	return &models.RouteMetadata{
		ID:           strings.TrimSuffix(base, filepath.Ext(base)),
		Name:         track.Name,
		Description:  track.Description,
		Filename:     base,
		Region:       DetectRegion(track.Name),
		PointCount:   len(track.Points),
		RouteSummary: *summary,
	}, nil
}

// backfillElevation подставляет высоты рельефа вместо отсутствующих. Точки
// с неудачным запросом остаются с высотой 0.
func (s *AnalyzerService) backfillElevation(ctx context.Context, track *gpx.Track) {
	if !s.backfill {
		s.logger.Warnf("В треке %q %d точек без высоты, дозаполнение отключено",
			track.Name, len(track.MissingElevation))
		return
	}

	filled := 0
	for _, idx := range track.MissingElevation {
		p := &track.Points[idx]
		ele, err := s.terrain.ElevationAt(ctx, p.Lat, p.Lon, s.zoom)
		if err != nil {
			s.logger.Warnf("Ошибка получения высоты для точки %d трека %q: %v", idx, track.Name, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		p.Ele = ele
		filled++
	}
	s.logger.Infof("Дозаполнено %d/%d высот для %q", filled, len(track.MissingElevation), track.Name)
}

// analyzerFor возвращает настроенный анализатор или собранный по переопределению
func (s *AnalyzerService) analyzerFor(override *models.PolicyRequest) (*geo.Analyzer, error) {
	if override == nil {
		return s.analyzer, nil
	}

	policy := s.analyzer.Policy()
	if override.Scope != "" {
		scope, err := geo.ParseScope(override.Scope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
		}
		if scope != policy.Scope {
			policy = geo.PolicyFor(scope)
		}
	}
	if override.SteepThresholdDeg != nil {
		policy.SteepThresholdDeg = *override.SteepThresholdDeg
	}
	if override.PrimaryThresholdDeg != nil {
		policy.PrimaryThresholdDeg = *override.PrimaryThresholdDeg
	}

	analyzer, err := geo.NewAnalyzer(policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	return analyzer, nil
}

// CheckHealth проверяет доступность источника тайлов рельефа
func (s *AnalyzerService) CheckHealth(ctx context.Context) string {
	if s.terrain == nil {
		return "disabled"
	}
	if err := s.terrain.CheckHealth(ctx); err != nil {
		s.logger.Errorf("Тайлы Terrarium недоступны: %v", err)
		return "error"
	}
	return "ok"
}

// DetectRegion определяет подрегион Альгоя по названию маршрута
func DetectRegion(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "kleinwalsertal"), strings.Contains(lower, "fellhorn"):
		return "Allgäu Alps West"
	case strings.Contains(lower, "oberstdorf"), strings.Contains(lower, "nebelhorn"):
		return "Allgäu Alps Central"
	default:
		return "Allgäu Alps"
	}
}
