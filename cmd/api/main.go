package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supportops/operations-service/internal/api/handlers"
	"github.com/supportops/operations-service/internal/application"
	"github.com/supportops/operations-service/internal/domain"
	"github.com/supportops/operations-service/internal/infrastructure/ideris"
	mongoRepo "github.com/supportops/operations-service/internal/infrastructure/mongodb"
	"github.com/supportops/operations-service/internal/infrastructure/notifications"
	"github.com/supportops/operations-service/pkg/kafka"
	"github.com/supportops/operations-service/pkg/logging"
	"github.com/supportops/operations-service/pkg/metrics"
	"github.com/supportops/operations-service/pkg/middleware"
	"github.com/supportops/operations-service/pkg/mongodb"
	"github.com/supportops/operations-service/pkg/resilience"
	"github.com/supportops/operations-service/pkg/tracing"
)

const serviceName = "operations-service"

type server interface {
	ListenAndServe() error
	Shutdown(context.Context) error
}

type tracerProvider interface {
	Shutdown(context.Context) error
}

var (
	newMongoClient   func(context.Context, *mongodb.Config) (*mongodb.Client, error) = mongodb.NewClient
	newKafkaProducer func(*kafka.Config) *kafka.Producer                             = kafka.NewProducer
	newGateway       func(*ideris.Config, *logging.Logger, *metrics.Metrics) domain.InventoryGateway = func(config *ideris.Config, logger *logging.Logger, m *metrics.Metrics) domain.InventoryGateway {
		return ideris.NewClient(config, logger, m)
	}
	initializeTracing func(context.Context, *tracing.Config) (tracerProvider, error) = func(ctx context.Context, config *tracing.Config) (tracerProvider, error) {
		return tracing.Initialize(ctx, config)
	}
	newRouter func() *gin.Engine = func() *gin.Engine {
		return gin.New()
	}
	setupMiddleware func(*gin.Engine, *middleware.Config)          = middleware.Setup
	newServer       func(addr string, handler http.Handler) server = func(addr string, handler http.Handler) server {
		return &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		}
	}
)

func main() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	if err := run(context.Background(), quit); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, quit <-chan os.Signal) error {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting operations-service API")

	config := loadConfig()

	middleware.InitValidator()

	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := initializeTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	m := metrics.New(metrics.DefaultConfig(serviceName))
	logger.Info("Metrics initialized")

	// MongoDB can lag behind the service in a fresh deployment.
	var client *mongodb.Client
	err = resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
		var connErr error
		client, connErr = newMongoClient(ctx, config.MongoDB)
		return connErr
	})
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		return err
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(client, m, logger)
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	worksheetRepo := mongoRepo.NewWorksheetRepository(instrumentedMongo)

	kafkaProducer := newKafkaProducer(config.Kafka)
	defer kafkaProducer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	notifier := notifications.NewPublisher(kafkaProducer, logger, logger.Logger)

	gateway := newGateway(config.Ideris, logger, m)

	reconciliationService := application.NewReconciliationService(gateway, worksheetRepo, notifier, m, logger)
	verificationService := application.NewVerificationService(gateway, notifier, m, logger)
	dashboardService := application.NewDashboardService(gateway, m, logger)

	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService, logger)
	verificationHandler := handlers.NewVerificationHandler(verificationService, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, logger)

	router := newRouter()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	setupMiddleware(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.SimpleTracingMiddleware(serviceName))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return instrumentedMongo.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	api := router.Group("/api/v1")
	reconciliationHandler.RegisterRoutes(api)
	verificationHandler.RegisterRoutes(api)
	dashboardHandler.RegisterRoutes(api)

	srv := newServer(config.ServerAddr, router)

	go func() {
		logger.Info("Server started", "addr", config.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

// Config holds application configuration
type Config struct {
	ServerAddr string
	MongoDB    *mongodb.Config
	Kafka      *kafka.Config
	Ideris     *ideris.Config
}

func loadConfig() *Config {
	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaConfig.ClientID = serviceName

	iderisConfig := ideris.DefaultConfig()
	iderisConfig.BaseURL = getEnv("IDERIS_BASE_URL", iderisConfig.BaseURL)
	iderisConfig.PrivateKey = getEnv("IDERIS_PRIVATE_KEY", "")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "operations_db"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka:  kafkaConfig,
		Ideris: iderisConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
