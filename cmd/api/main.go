// @title Examroom API
// @version 1.0
// @description Online examination service: device-gated student login, timed exam sessions, scoring and result review.
// @host localhost:8080
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"examroom/internal/adapter"
	"examroom/internal/cache"
	"examroom/internal/config"
	"examroom/internal/database"
	"examroom/internal/handler"
	"examroom/internal/logger"
	"examroom/internal/middleware"
	"examroom/internal/repository"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

// requestLogger is a middleware that logs HTTP requests
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		path := c.Path()
		method := c.Method()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()

		logger.Get().Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
			zap.String("ip", c.IP()),
			zap.String("user_agent", c.Get("User-Agent")),
		)

		return err
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	// Connect to database
	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Initialize repositories
	accountRepository := repository.NewSQLXAccountRepository(db)
	deviceRepository := repository.NewSQLXDeviceRepository(db)
	examRepository := repository.NewSQLXExamRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	contactRepository := repository.NewSQLXContactRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	// Initialize Redis client and cache adapter
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	appLogger.Info("Successfully connected to Redis")
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	// Initialize services
	authService, err := service.NewAuthService(accountRepository, deviceRepository, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create AuthService", zap.Error(err))
	}
	accountService := service.NewAccountService(accountRepository, deviceRepository)
	examService := service.NewExamService(examRepository, txManager)
	sessionService := service.NewSessionService(examRepository, attemptRepository, txManager, cfg.Session)
	defer sessionService.Close()
	importService := service.NewImportService(accountService, cfg.Import)
	resultService := service.NewResultService(attemptRepository, examRepository, accountRepository, cacheAdapter)
	contactService := service.NewContactService(contactRepository)

	validator := validation.NewValidator()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService, validator, cfg)
	sessionHandler := handler.NewSessionHandler(sessionService, validator)
	examHandler := handler.NewExamHandler(examService, validator)
	resultHandler := handler.NewResultHandler(resultService)
	studentHandler := handler.NewStudentHandler(accountService, importService, validator)
	contactHandler := handler.NewContactHandler(contactService, validator)
	uploadHandler := handler.NewUploadHandler(cfg.Upload)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  20 * time.Second,
		BodyLimit:    10 * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(requestLogger())
	app.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,PUT,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept,Authorization", MaxAge: 300}))
	app.Use(recover.New())

	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Static(cfg.Upload.PublicURL, cfg.Upload.Dir)

	// API group
	apiGroup := app.Group("/api")

	// Auth routes
	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)
	authGroup.Get("/google/login", authHandler.GoogleLogin)
	authGroup.Get("/google/callback", authHandler.GoogleCallback)
	authGroup.Post("/logout", middleware.Protected(authService), authHandler.Logout)

	// Public contact form
	apiGroup.Post("/contact", contactHandler.SubmitMessage)

	// Student routes (all protected)
	protected := middleware.Protected(authService)
	apiGroup.Get("/exams", protected, examHandler.ListPublishedExams)
	apiGroup.Post("/exams/:examID/sessions", protected, sessionHandler.StartSession)
	apiGroup.Get("/sessions/:attemptID", protected, sessionHandler.GetState)
	apiGroup.Put("/sessions/:attemptID/answers/:questionID", protected, sessionHandler.SelectAnswer)
	apiGroup.Post("/sessions/:attemptID/submit", protected, sessionHandler.Submit)
	apiGroup.Get("/me/attempts", protected, resultHandler.ListMyAttempts)
	apiGroup.Get("/attempts/:attemptID/review", protected, resultHandler.GetReview)

	// Admin routes
	adminGroup := apiGroup.Group("/admin", protected, middleware.AdminOnly())

	adminGroup.Get("/exams", examHandler.ListAllExams)
	adminGroup.Post("/exams", examHandler.CreateExam)
	adminGroup.Get("/exams/:examID", examHandler.GetExam)
	adminGroup.Put("/exams/:examID", examHandler.UpdateExam)
	adminGroup.Delete("/exams/:examID", examHandler.DeleteExam)
	adminGroup.Get("/exams/:examID/questions", examHandler.ListQuestions)
	adminGroup.Post("/exams/:examID/questions", examHandler.CreateQuestion)
	adminGroup.Put("/exams/:examID/questions/:questionID", examHandler.UpdateQuestion)
	adminGroup.Delete("/exams/:examID/questions/:questionID", examHandler.DeleteQuestion)
	adminGroup.Get("/exams/:examID/passages", examHandler.ListPassages)
	adminGroup.Post("/exams/:examID/passages", examHandler.CreatePassage)
	adminGroup.Put("/exams/:examID/passages/:passageID", examHandler.UpdatePassage)
	adminGroup.Delete("/exams/:examID/passages/:passageID", examHandler.DeletePassage)

	adminGroup.Get("/students", studentHandler.ListStudents)
	adminGroup.Post("/students", studentHandler.CreateStudent)
	adminGroup.Get("/students/import/template", studentHandler.ImportTemplate)
	adminGroup.Post("/students/import", studentHandler.ImportStudents)
	adminGroup.Post("/students/import/export", studentHandler.ExportImportResults)
	adminGroup.Get("/students/:studentID", studentHandler.GetStudent)
	adminGroup.Put("/students/:studentID", studentHandler.UpdateStudent)
	adminGroup.Delete("/students/:studentID", studentHandler.DeleteStudent)
	adminGroup.Delete("/students/:studentID/device", studentHandler.ResetDevice)

	adminGroup.Get("/attempts", resultHandler.ListAttempts)
	adminGroup.Get("/attempts/export", resultHandler.ExportResults)
	adminGroup.Delete("/attempts/:attemptID", resultHandler.GrantRetake)

	adminGroup.Post("/uploads", uploadHandler.UploadImage)

	adminGroup.Get("/contact", contactHandler.ListMessages)
	adminGroup.Post("/contact/:messageID/read", contactHandler.MarkRead)
	adminGroup.Delete("/contact/:messageID", contactHandler.DeleteMessage)

	// Start server
	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", os.Getenv("ENV")))
		if err := app.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
