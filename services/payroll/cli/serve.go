package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
	redisstore "github.com/Alex2744-cyber/Hoff-AppV2/internal/redis"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/payroll"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/payroll/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the payroll digest scheduler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("metrics-addr", ":9097", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("redis-addr", "localhost:6379", "Redis address (host:port)")
	serveCmd.Flags().String("cron-expr", "0 8 1 * *", "digest schedule in standard cron syntax")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("redis_addr", serveCmd.Flags(), "redis-addr")
	bindFlag("cron_expr", serveCmd.Flags(), "cron-expr")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	_ = viper.BindEnv("postgres_dsn", "POSTGRES_DSN")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "hoff-payroll")
	instanceID := "payroll-" + uuid.New().String()[:8]

	schedule, err := cron.ParseStandard(cfg.CronExpr)
	if err != nil {
		return fmt.Errorf("parse cron %q: %w", cfg.CronExpr, err)
	}

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "hoff-payroll", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	redisClient := redisstore.NewClient(cfg.RedisAddr)
	defer func() { _ = redisClient.Close() }()

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := postgres.NewPool(initCtx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	runCtx, runCancel := context.WithCancel(context.Background())
	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-quit
		logger.Info("shutting down...")
		runCancel()
	}()

	p := payroll.New(postgres.NewTaskRepository(pool), producer, redisClient, instanceID, schedule, logger)
	logger.Info("hoff-payroll starting",
		slog.String("instance_id", instanceID),
		slog.String("schedule", cfg.CronExpr),
	)
	p.Run(runCtx)
	logger.Info("stopped")
	return nil
}
