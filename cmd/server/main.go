package main

import (
	"net/http"
	"os"
	"path/filepath"

	"route-analyzer-go/internal/client"
	"route-analyzer-go/internal/config"
	"route-analyzer-go/internal/database"
	"route-analyzer-go/internal/geo"
	"route-analyzer-go/internal/handler"
	"route-analyzer-go/internal/repository"
	"route-analyzer-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Инициализируем логгер
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		logger.Debug("Файл .env не найден, используются переменные окружения")
	}

	// Получаем конфигурацию из переменных окружения
	cfg := config.LoadConfig()
	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Запуск Route Analyzer API Server")

	policy, err := cfg.Policy()
	if err != nil {
		logger.Fatalf("Неверная политика анализа: %v", err)
	}
	analyzer, err := geo.NewAnalyzer(policy)
	if err != nil {
		logger.Fatalf("Ошибка создания анализатора: %v", err)
	}
	logger.Infof("Политика анализа: крутизна %.0f°, основная %.0f°, область %s",
		policy.SteepThresholdDeg, policy.PrimaryThresholdDeg, policy.Scope)

	// Инициализируем базу данных
	logger.Info("Подключение к базе данных...")
	if err := database.Connect(cfg.DSN(), logger); err != nil {
		logger.Fatalf("Ошибка подключения к базе данных: %v", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Errorf("Ошибка закрытия базы данных: %v", err)
		}
	}()

	// Выполняем миграции
	if err := database.Migrate(logger); err != nil {
		logger.Fatalf("Ошибка миграции базы данных: %v", err)
	}

	if err := database.HealthCheck(); err != nil {
		logger.Fatalf("База данных недоступна: %v", err)
	}

	// Создаем папку для статических файлов
	staticDir := filepath.Clean(cfg.StaticDir)
	if err := os.MkdirAll(staticDir, 0755); err != nil {
		logger.Fatalf("Ошибка создания папки для статических файлов: %v", err)
	}

	terrarium := client.NewTerrariumClient(cfg.Terrarium.BaseURL, cfg.TerrariumTimeout(), logger)

	// Инициализируем репозитории
	routeRepo := repository.NewRouteRepository(database.DB)

	// Инициализируем сервисы
	routeService := service.NewRouteService(routeRepo, logger, staticDir)
	analyzerService := service.NewAnalyzerService(analyzer, terrarium, cfg.Analysis.ElevationBackfill, cfg.Analysis.ElevationZoom, logger)

	// Инициализируем обработчики
	routeHandler := handler.NewRouteHandler(analyzerService, routeService, database.HealthCheck, logger)
	analyzerHandler := handler.NewAnalyzerHandler(analyzerService, logger)
	tileHandler := handler.NewTileHandler(terrarium, logger)

	// Настраиваем Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Добавляем middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.Static("/static", staticDir)

	// Регистрируем маршруты
	routeHandler.RegisterRoutes(router)
	analyzerHandler.RegisterRoutes(router)
	tileHandler.RegisterRoutes(router)

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Route Analyzer API Server",
			"version": service.ServiceVersion,
			"status":  "running",
		})
	})

	addr := cfg.Addr()
	logger.Infof("Сервер запущен на %s", addr)
	logger.Infof("API доступно по адресу: http://%s/api/v1", addr)

	if err := router.Run(addr); err != nil {
		logger.Fatalf("Ошибка запуска сервера: %v", err)
	}
}

// corsMiddleware добавляет заголовки CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
