package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
	redisstore "github.com/Alex2744-cyber/Hoff-AppV2/internal/redis"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/version"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/api/config"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/api/handler"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/api/middleware"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("http-port", "8080", "HTTP server port")
	serveCmd.Flags().String("metrics-addr", ":9095", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("jwt-secret", "changeme", "JWT signing secret")
	serveCmd.Flags().Int("login-rate-limit", 5, "login attempts per username per minute")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("http_port", serveCmd.Flags(), "http-port")
	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("jwt_secret", serveCmd.Flags(), "jwt-secret")
	bindFlag("login_rate_limit", serveCmd.Flags(), "login-rate-limit")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "hoff-api")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "hoff-api", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()
	cache := redisstore.NewTaskCache(redisClient)
	limiter := redisstore.NewRateLimiter(redisClient, cfg.LoginRateLimit, time.Minute)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	h := handler.New(handler.Deps{
		Tasks:     postgres.NewTaskRepository(pool),
		Users:     postgres.NewUserRepository(pool),
		Clients:   postgres.NewClientRepository(pool),
		Addresses: postgres.NewAddressRepository(pool),
		Cache:     cache,
		Limiter:   limiter,
		Producer:  producer,
		JWTSecret: cfg.JWTSecret,
		Logger:    logger,
	})

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1MB limit
	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret))

			r.Route("/tareas", func(r chi.Router) {
				r.Get("/", h.ListTasks)
				r.Get("/{id}", h.GetTask)
				r.Post("/{id}/completar", h.CompleteTask)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Post("/", h.CreateTask)
					r.Put("/{id}", h.UpdateTask)
					r.Post("/{id}/asignar", h.AssignWorker)
					r.Post("/{id}/desasignar", h.UnassignWorker)
					r.Post("/{id}/horas", h.SetHours)
					r.Post("/{id}/aprobar", h.ApproveTask)
					r.Post("/{id}/devolver", h.ReturnTask)
					r.Post("/{id}/cancelar", h.CancelTask)
					r.Delete("/{id}", h.CancelTask)
					r.Post("/{id}/marcar-pagado", h.MarkPaid)
				})
			})

			r.Route("/trabajadores", func(r chi.Router) {
				r.Get("/{id}/horas-aprobadas", h.ApprovedHours)
				r.Get("/{id}/horas-asignadas", h.AssignedHours)
				r.Get("/{id}/tareas-aprobadas", h.ApprovedTasks)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAdmin)
					r.Get("/", h.ListWorkers)
					r.Post("/", h.CreateWorker)
					r.Get("/{id}", h.GetWorker)
					r.Put("/{id}", h.UpdateWorker)
					r.Delete("/{id}", h.DeactivateWorker)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Route("/clientes", func(r chi.Router) {
					r.Get("/", h.ListClients)
					r.Post("/", h.CreateClient)
					r.Get("/{id}", h.GetClient)
					r.Put("/{id}", h.UpdateClient)
					r.Delete("/{id}", h.DeleteClient)
					r.Get("/{id}/direcciones", h.ListAddresses)
					r.Post("/{id}/direcciones", h.CreateAddress)
				})
				r.Put("/direcciones/{id}", h.UpdateAddress)
				r.Delete("/direcciones/{id}", h.DeleteAddress)

				r.Get("/finanzas/ingresos", h.Income)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	go func() {
		logger.Info("hoff-api starting",
			slog.String("addr", httpSrv.Addr),
			slog.String("version", version.String()))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down...")
	runCancel()

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutCancel()
	if err := httpSrv.Shutdown(shutCtx); err != nil {
		logger.Error("HTTP shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("stopped")
	return nil
}
