package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"route-analyzer-go/internal/geo"
	"route-analyzer-go/pkg/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// BatchAnalyzer анализирует все GPX файлы каталога
type BatchAnalyzer struct {
	analyzer *AnalyzerService
	workers  int
	logger   *logrus.Logger
}

// NewBatchAnalyzer создает пакетный анализатор, обрабатывающий до workers файлов одновременно
func NewBatchAnalyzer(analyzer *AnalyzerService, workers int, logger *logrus.Logger) *BatchAnalyzer {
	if workers < 1 {
		workers = 1
	}
	return &BatchAnalyzer{
		analyzer: analyzer,
		workers:  workers,
		logger:   logger,
	}
}

// AnalyzeDir анализирует все *.gpx файлы в dir. Невалидные GPX и файлы
// с менее чем двумя точками пропускаются. Маршруты упорядочены по имени файла.
func (b *BatchAnalyzer) AnalyzeDir(ctx context.Context, dir string) (*models.RoutesMetadata, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.gpx"))
	if err != nil {
		return nil, fmt.Errorf("failed to list gpx files: %w", err)
	}
	sort.Strings(files)
	b.logger.Infof("Найдено %d GPX файлов в %s", len(files), dir)

	results := make([]BatchResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, file := range files {
		g.Go(func() error {
			route, err := b.analyzeFile(ctx, file)
			results[i] = BatchResult{Filename: filepath.Base(file), Route: route, Err: err}
			if err != nil && !skippable(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta := &models.RoutesMetadata{Routes: make([]models.RouteMetadata, 0, len(files))}
	for _, result := range results {
		if result.Err != nil {
			b.logger.Warnf("Пропуск %s: %v", result.Filename, result.Err)
			continue
		}
		meta.Routes = append(meta.Routes, *result.Route)
	}

	b.logger.Infof("Проанализировано %d из %d маршрутов", len(meta.Routes), len(files))
	return meta, nil
}

func (b *BatchAnalyzer) analyzeFile(ctx context.Context, path string) (*models.RouteMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return b.analyzer.AnalyzeGPX(ctx, path, f)
}

// skippable сообщает, что ошибка файла не прерывает пакет
func skippable(err error) bool {
	return errors.Is(err, ErrInvalidGPX) || errors.Is(err, geo.ErrInsufficientData)
}

// WriteMetadata записывает результат пакета в JSON с отступами
func WriteMetadata(path string, meta *models.RoutesMetadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}
