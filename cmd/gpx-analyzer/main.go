package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"route-analyzer-go/internal/client"
	"route-analyzer-go/internal/config"
	"route-analyzer-go/internal/geo"
	"route-analyzer-go/internal/service"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()

	dir := flag.String("dir", "gpx", "Directory containing .gpx files")
	out := flag.String("out", "", "Output file (default <dir>/routes-metadata.json)")
	scope := flag.String("policy", cfg.Analysis.Scope, "Primary aspect scope: route or summit")
	workers := flag.Int("workers", cfg.Analysis.Workers, "Files analyzed in parallel")
	backfill := flag.Bool("backfill", cfg.Analysis.ElevationBackfill, "Fill missing elevations from Terrarium tiles")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *out == "" {
		*out = filepath.Join(*dir, "routes-metadata.json")
	}

	cfg.Analysis.Scope = *scope
	policy, err := cfg.Policy()
	if err != nil {
		logger.Fatalf("Неверная политика: %v", err)
	}
	analyzer, err := geo.NewAnalyzer(policy)
	if err != nil {
		logger.Fatalf("Ошибка создания анализатора: %v", err)
	}

	var terrainSource service.TerrainSource
	if *backfill {
		terrainSource = client.NewTerrariumClient(cfg.Terrarium.BaseURL, cfg.TerrariumTimeout(), logger)
	}

	analyzerService := service.NewAnalyzerService(analyzer, terrainSource, *backfill, cfg.Analysis.ElevationZoom, logger)
	batch := service.NewBatchAnalyzer(analyzerService, *workers, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	meta, err := batch.AnalyzeDir(ctx, *dir)
	if err != nil {
		logger.Fatalf("Ошибка пакетного анализа: %v", err)
	}

	for _, route := range meta.Routes {
		logger.WithFields(logrus.Fields{
			"file":     route.Filename,
			"distance": route.Distance,
			"ascent":   route.Ascent,
			"descent":  route.Descent,
			"maxSlope": route.MaxSlope,
			"aspect":   route.PrimaryAspect,
		}).Info("Маршрут проанализирован")
	}

	if err := service.WriteMetadata(*out, meta); err != nil {
		logger.Fatalf("Ошибка записи метаданных: %v", err)
	}
	logger.Infof("Создан %s, маршрутов: %d", *out, len(meta.Routes))
}
