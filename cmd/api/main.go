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
	"github.com/yourusername/examprep-api/internal/config"
	"github.com/yourusername/examprep-api/internal/handler"
	"github.com/yourusername/examprep-api/internal/middleware"
	pgRepo "github.com/yourusername/examprep-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/examprep-api/internal/repository/redis"
	"github.com/yourusername/examprep-api/internal/service"
	"github.com/yourusername/examprep-api/pkg/auth"
	"github.com/yourusername/examprep-api/pkg/database"
)

func main() {
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

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	mockTestRepo := pgRepo.NewMockTestRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	attemptRepo := pgRepo.NewAttemptRepo(db)
	registrationRepo := pgRepo.NewRegistrationRepo(db)
	entitlementRepo := pgRepo.NewEntitlementRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT сервис
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Инициализируем почтовый сервис. Без API-ключа письма не отправляются,
	// но регистрация продолжает работать.
	var emailService service.EmailService
	if cfg.Email.ResendAPIKey != "" {
		resendService, err := service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.FromAddress)
		if err != nil {
			log.Printf("Failed to initialize Resend email service: %v", err)
			os.Exit(1)
		}
		emailService = resendService
		log.Println("Email notifications enabled (Resend)")
	} else {
		emailService = &service.NoopEmailService{}
		log.Println("RESEND_API_KEY not set, email notifications disabled")
	}

	// Инициализируем сервисы
	accessService := service.NewAccessService(mockTestRepo, entitlementRepo)
	mockTestService := service.NewMockTestService(mockTestRepo, questionRepo, cacheRepo)
	registrationService := service.NewRegistrationService(registrationRepo, mockTestRepo, emailService)
	attemptService := service.NewAttemptService(attemptRepo, mockTestRepo, questionRepo, registrationRepo, accessService, cacheRepo)

	// Инициализируем обработчики
	mockTestHandler := handler.NewMockTestHandler(mockTestService, registrationService, attemptService)
	attemptHandler := handler.NewAttemptHandler(attemptService)

	// Инициализируем middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		// Production: не доверять прокси-заголовкам
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		// Development: доверяем localhost
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		// Каталог тестов
		mockTests := api.Group("/mock-tests")
		mockTests.Use(authMiddleware.RequireAuth())
		{
			mockTests.GET("", mockTestHandler.ListMockTests)

			testWithID := mockTests.Group("/:id")
			testWithID.Use(middleware.ExtractUintParam("id", "mockTestID"))
			{
				testWithID.GET("", mockTestHandler.GetMockTest)
				testWithID.POST("/register", mockTestHandler.Register)
				testWithID.POST("/attempts",
					rateLimiter.Limit(middleware.StartAttemptRateLimitConfig()),
					attemptHandler.StartAttempt)
			}
		}

		// Попытки
		attempts := api.Group("/attempts")
		attempts.Use(authMiddleware.RequireAuth())
		{
			attempts.GET("", attemptHandler.GetHistory)

			attemptWithID := attempts.Group("/:id")
			attemptWithID.Use(middleware.ExtractUintParam("id", "attemptID"))
			{
				attemptWithID.GET("", attemptHandler.GetAttempt)
				attemptWithID.GET("/questions", attemptHandler.GetAttemptQuestions)
				attemptWithID.PUT("/answers",
					rateLimiter.Limit(middleware.AnswerRateLimitConfig()),
					attemptHandler.SaveAnswer)
				attemptWithID.POST("/submit", attemptHandler.SubmitAttempt)
				attemptWithID.GET("/review", attemptHandler.GetHistoryDetail)
			}
		}

		// Админка
		admin := api.Group("/admin")
		admin.Use(authMiddleware.RequireAuth(), authMiddleware.AdminOnly())
		{
			adminTests := admin.Group("/mock-tests")
			{
				adminTests.POST("", mockTestHandler.CreateMockTest)
				adminTests.POST("/validate", mockTestHandler.ValidateConfiguration)

				adminTestWithID := adminTests.Group("/:id")
				adminTestWithID.Use(middleware.ExtractUintParam("id", "mockTestID"))
				{
					adminTestWithID.GET("", mockTestHandler.GetMockTestDetail)
					adminTestWithID.PUT("", mockTestHandler.UpdateMockTest)
					adminTestWithID.POST("/questions", mockTestHandler.AddQuestions)
					adminTestWithID.PUT("/access-tier", mockTestHandler.SetAccessTier)
					adminTestWithID.PUT("/registration-gate", mockTestHandler.ConfigureGate)
					adminTestWithID.DELETE("", mockTestHandler.DeactivateMockTest)
					adminTestWithID.GET("/attempts/export", mockTestHandler.ExportAttempts)
				}
			}

			adminQuestions := admin.Group("/questions/:id")
			adminQuestions.Use(middleware.ExtractUintParam("id", "questionID"))
			{
				adminQuestions.PUT("", mockTestHandler.UpdateQuestion)
				adminQuestions.DELETE("", mockTestHandler.DeactivateQuestion)
			}
		}
	}

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

	log.Printf("Server started on port %s", cfg.Server.Port)

	// Ждем сигнал остановки и завершаем работу корректно
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

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
		if err := sqlDB.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}

	log.Println("Server exited properly")
}
