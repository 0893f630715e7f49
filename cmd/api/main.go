package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/yourusername/contest-exam-api/internal/config"
	"github.com/yourusername/contest-exam-api/internal/domain/entity"
	"github.com/yourusername/contest-exam-api/internal/handler"
	"github.com/yourusername/contest-exam-api/internal/middleware"
	pgRepo "github.com/yourusername/contest-exam-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/contest-exam-api/internal/repository/redis"
	"github.com/yourusername/contest-exam-api/internal/service"
	"github.com/yourusername/contest-exam-api/pkg/auth"
	"github.com/yourusername/contest-exam-api/pkg/database"
)

func main() {
	// .env необязателен: в Docker переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), !isProduction)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	migrationsDir := os.Getenv("MIGRATIONS_DIR")
	if migrationsDir == "" {
		migrationsDir = "migrations"
	}
	if err := database.MigrateDB(db, migrationsDir); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	txManager := pgRepo.NewTxManager(db)
	competitionRepo := pgRepo.NewCompetitionRepo(db)
	questionBankRepo := pgRepo.NewQuestionBankRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	paperRepo := pgRepo.NewExamPaperRepo(db)
	answerRepo := pgRepo.NewExamAnswerRepo(db)
	gradeRepo := pgRepo.NewGradeRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	rankingConfig := service.RankingConfig{
		Awards: entity.AwardThresholds{
			FirstPrize:    decimal.NewFromFloat(cfg.Exam.FirstPrize),
			SecondPrize:   decimal.NewFromFloat(cfg.Exam.SecondPrize),
			ThirdPrize:    decimal.NewFromFloat(cfg.Exam.ThirdPrize),
			Participation: decimal.NewFromFloat(cfg.Exam.Participation),
		},
		LockTTL:  cfg.Exam.RankingLockTTL(),
		LockWait: cfg.Exam.RankingLockWait(),
		CacheTTL: cfg.Exam.RankingCacheTTL(),
	}

	gradingService := service.NewGradingService(txManager, paperRepo, answerRepo, questionBankRepo, participantRepo)
	examService := service.NewExamService(txManager, paperRepo, answerRepo, questionBankRepo, participantRepo, gradingService)
	distributionService := service.NewDistributionService(txManager, competitionRepo, questionBankRepo, participantRepo, paperRepo)
	rankingService := service.NewRankingService(txManager, competitionRepo, paperRepo, gradeRepo, participantRepo,
		cacheRepo, cacheRepo, cacheRepo, rankingConfig)

	// Инициализируем обработчики и middleware
	examHandler := handler.NewExamHandler(distributionService, examService)
	scoreHandler := handler.NewScoreHandler(gradingService, rankingService)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)
	examWriteLimit := rateLimiter.Limit(middleware.ExamWriteRateLimitConfig(cfg.Exam.SubmitRateLimit, cfg.Exam.SubmitRateWindow()))

	// Инициализируем роутер Gin
	router := gin.Default()

	// В production не доверяем прокси-заголовкам: IP клиента пишется в лист
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	allowedOrigins := cfg.Server.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok", "redis": "ok"}
		code := http.StatusOK
		if sqlDB, err := database.GetSQLDB(db); err != nil || sqlDB.PingContext(ctx) != nil {
			status["database"] = "unavailable"
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			status["redis"] = "unavailable"
			status["status"] = "degraded"
		}
		c.JSON(code, status)
	})

	// Настраиваем маршруты API
	api := router.Group("/api")
	handler.RegisterRoutes(api, authMiddleware, examWriteLimit, examHandler, scoreHandler)

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exited properly")
}
