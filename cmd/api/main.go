package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradebench/gradebench-api/internal/config"
	"github.com/gradebench/gradebench-api/internal/database"
	"github.com/gradebench/gradebench-api/internal/handler"
	"github.com/gradebench/gradebench-api/internal/middleware"
	"github.com/gradebench/gradebench-api/internal/models"
	"github.com/gradebench/gradebench-api/internal/repository"
	"github.com/gradebench/gradebench-api/internal/router"
	"github.com/gradebench/gradebench-api/internal/service"
	"github.com/gradebench/gradebench-api/pkg/ai"
	"github.com/gradebench/gradebench-api/pkg/sandbox"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.StudentProfile{},
		&models.InstructorProfile{},
		&models.Course{},
		&models.Enrollment{},
		&models.Assignment{},
		&models.TestCase{},
		&models.Submission{},
		&models.Result{},
		&models.Hint{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	queue, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	defer queue.Close()

	runner, err := sandbox.NewDockerRunner(sandbox.Config{
		Host:          cfg.DockerHost,
		Timeout:       cfg.GradingTimeout,
		MemoryLimitMB: int64(cfg.SandboxMemoryMB),
		CPUShares:     int64(cfg.SandboxCPUShares),
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("failed to create sandbox runner: %v", err)
	}
	defer runner.Close()

	validate := validator.New(validator.WithRequiredStructEnabled())

	txm := repository.NewTxManager(db)
	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	testCaseRepo := repository.NewTestCaseRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	resultRepo := repository.NewResultRepository(db)
	hintRepo := repository.NewHintRepository(db)

	var hintGenerator ai.HintGenerator
	if cfg.OpenAIAPIKey != "" {
		generator, err := ai.NewOpenAIHintGenerator(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
		if err != nil {
			log.Fatalf("failed to create hint generator: %v", err)
		}
		hintGenerator = generator
	}

	authService := service.NewAuthService(userRepo, validate, logger, service.AuthConfig{
		JWTSecret:        cfg.JWTSecret,
		JWTRefreshSecret: cfg.JWTRefreshSecret,
		AccessTokenTTL:   cfg.AccessTokenTTL,
		RefreshTokenTTL:  cfg.RefreshTokenTTL,
	})
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, validate, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, courseRepo, validate, logger)
	testCaseService := service.NewTestCaseService(testCaseRepo, assignmentRepo, courseRepo, validate, logger)
	submissionService := service.NewSubmissionService(txm, submissionRepo, assignmentRepo, enrollmentRepo, courseRepo, queue, validate, logger)
	scoringService := service.NewScoringService(txm, resultRepo, logger)
	gradingService := service.NewGradingService(submissionRepo, assignmentRepo, testCaseRepo, resultRepo, scoringService, runner, queue, logger)
	dashboardService := service.NewDashboardService(enrollmentRepo, assignmentRepo, submissionRepo, redisClient, cfg.DashboardCacheTTL, logger)
	hintService := service.NewHintService(submissionRepo, assignmentRepo, testCaseRepo, resultRepo, hintRepo, hintGenerator, logger)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	if err := gradingService.Start(workerCtx); err != nil {
		log.Fatalf("failed to start grading worker: %v", err)
	}
	defer gradingService.Stop()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app)
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:       handler.NewAuthHandler(authService, logger),
		CourseHandler:     handler.NewCourseHandler(courseService, logger),
		AssignmentHandler: handler.NewAssignmentHandler(assignmentService, logger),
		TestCaseHandler:   handler.NewTestCaseHandler(testCaseService, logger),
		SubmissionHandler: handler.NewSubmissionHandler(submissionService, scoringService, testCaseService, hintService, logger),
		DashboardHandler:  handler.NewDashboardHandler(dashboardService, logger),
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
