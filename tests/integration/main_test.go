package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"examroom/internal/adapter"
	"examroom/internal/cache"
	"examroom/internal/config"
	dblogic "examroom/internal/database"
	"examroom/internal/handler"
	"examroom/internal/logger"
	"examroom/internal/middleware"
	"examroom/internal/repository"
	"examroom/internal/service"
	"examroom/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// These tests exercise the full HTTP surface against a real Oracle and Redis.
// They only run when INTEGRATION_TESTS=1 and a test config is reachable.
var (
	app            *fiber.App
	logInstance    *zap.Logger
	db             *sqlx.DB
	redisClient    *redis.Client
	cfg            *config.Config
	accountService service.AccountService
	examService    service.ExamService
	sessionService service.SessionService
)

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION_TESTS") != "1" {
		os.Exit(m.Run())
	}
	os.Setenv("ENV", "test")

	loadedCfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	cfg = loadedCfg

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	logInstance = logger.Get()
	defer func() {
		if logInstance != nil {
			_ = logInstance.Sync()
		}
	}()

	db, err = dblogic.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		logInstance.Fatal("Failed to connect to database", zap.Error(err))
	}

	redisClient, err = cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logInstance.Fatal("Failed to connect to test Redis", zap.Error(err))
	}
	cacheAdapter := adapter.NewRedisCacheAdapter(redisClient)

	accountRepository := repository.NewSQLXAccountRepository(db)
	deviceRepository := repository.NewSQLXDeviceRepository(db)
	examRepository := repository.NewSQLXExamRepository(db)
	attemptRepository := repository.NewSQLXAttemptRepository(db)
	contactRepository := repository.NewSQLXContactRepository(db)
	txManager := repository.NewTransactionManagerAdapter(db)

	authService, err := service.NewAuthService(accountRepository, deviceRepository, cfg)
	if err != nil {
		logInstance.Fatal("Failed to create AuthService", zap.Error(err))
	}
	accountService = service.NewAccountService(accountRepository, deviceRepository)
	examService = service.NewExamService(examRepository, txManager)
	sessionService = service.NewSessionService(examRepository, attemptRepository, txManager, cfg.Session)
	importService := service.NewImportService(accountService, cfg.Import)
	resultService := service.NewResultService(attemptRepository, examRepository, accountRepository, cacheAdapter)
	contactService := service.NewContactService(contactRepository)

	validator := validation.NewValidator()

	authHandler := handler.NewAuthHandler(authService, validator, cfg)
	sessionHandler := handler.NewSessionHandler(sessionService, validator)
	examHandler := handler.NewExamHandler(examService, validator)
	resultHandler := handler.NewResultHandler(resultService)
	studentHandler := handler.NewStudentHandler(accountService, importService, validator)
	contactHandler := handler.NewContactHandler(contactService, validator)

	app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler()})
	apiGroup := app.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	apiGroup.Post("/contact", contactHandler.SubmitMessage)

	protected := middleware.Protected(authService)
	apiGroup.Get("/exams", protected, examHandler.ListPublishedExams)
	apiGroup.Post("/exams/:examID/sessions", protected, sessionHandler.StartSession)
	apiGroup.Get("/sessions/:attemptID", protected, sessionHandler.GetState)
	apiGroup.Put("/sessions/:attemptID/answers/:questionID", protected, sessionHandler.SelectAnswer)
	apiGroup.Post("/sessions/:attemptID/submit", protected, sessionHandler.Submit)
	apiGroup.Get("/me/attempts", protected, resultHandler.ListMyAttempts)
	apiGroup.Get("/attempts/:attemptID/review", protected, resultHandler.GetReview)

	adminGroup := apiGroup.Group("/admin", protected, middleware.AdminOnly())
	adminGroup.Get("/attempts", resultHandler.ListAttempts)
	adminGroup.Get("/contact", contactHandler.ListMessages)
	adminGroup.Post("/students", studentHandler.CreateStudent)

	code := m.Run()

	sessionService.Close()
	_ = db.Close()
	_ = redisClient.Close()
	os.Exit(code)
}

// requireStack skips the test unless TestMain brought the full stack up.
func requireStack(t *testing.T) {
	t.Helper()
	if app == nil {
		t.Skip("Set INTEGRATION_TESTS=1 to run against a live Oracle and Redis.")
	}
}

// doJSON issues a request against the in-process app, encoding body as JSON
// and attaching token as a bearer credential when non-empty.
func doJSON(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
