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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/kafka"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/notify"
	"github.com/Alex2744-cyber/Hoff-AppV2/pkg/telemetry"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/notifier"
	"github.com/Alex2744-cyber/Hoff-AppV2/services/notifier/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start consuming task events and delivering notifications",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("metrics-addr", ":9096", "Prometheus metrics server address")
	serveCmd.Flags().String("kafka-brokers", "localhost:9092", "comma-separated Kafka broker addresses")
	serveCmd.Flags().String("group-id", "hoff-notifier", "Kafka consumer group id")
	serveCmd.Flags().Int("max-retries", 3, "delivery attempts per channel before dead-lettering")
	serveCmd.Flags().String("otel-endpoint", "", "OTLP HTTP endpoint for tracing (e.g. localhost:4318); empty disables tracing")

	bindFlag("metrics_addr", serveCmd.Flags(), "metrics-addr")
	bindFlag("kafka_brokers", serveCmd.Flags(), "kafka-brokers")
	bindFlag("group_id", serveCmd.Flags(), "group-id")
	bindFlag("max_retries", serveCmd.Flags(), "max-retries")
	bindFlag("otel_endpoint", serveCmd.Flags(), "otel-endpoint")
	_ = viper.BindEnv("otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(viper.GetViper())
	logger := buildLogger(cfg.LogLevel, "hoff-notifier")

	shutdownTracer, err := telemetry.InitTracer(context.Background(), "hoff-notifier", cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracer: %w", err)
	}
	defer shutdownTracer()

	registry := buildRegistry(cfg, logger)

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	consumer := kafka.NewConsumer(brokers, kafka.TopicTaskEvents, cfg.GroupID, logger)
	defer func() { _ = consumer.Close() }()
	producer := kafka.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	n := notifier.New(consumer, producer, registry,
		notifier.WithRetries(cfg.MaxRetries),
		notifier.WithLogger(logger),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	telemetry.StartMetricsServer(runCtx, cfg.MetricsAddr, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("hoff-notifier starting",
			slog.String("topic", kafka.TopicTaskEvents),
			slog.String("group", cfg.GroupID))
		errCh <- n.Run(runCtx)
	}()

	select {
	case <-quit:
		logger.Info("shutting down...")
		runCancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("consumer: %w", err)
		}
	}

	// In-flight deliveries finish before the process exits.
	done := make(chan struct{})
	go func() { n.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		logger.Warn("timed out waiting for in-flight deliveries")
	}

	logger.Info("stopped")
	return nil
}

// buildRegistry wires channels from config. Email covers the events the
// office follows up on; the webhook mirrors everything for external systems.
func buildRegistry(cfg config.Config, logger *slog.Logger) *notify.Registry {
	registry := notify.NewRegistry()

	if cfg.SMTPHost != "" && len(cfg.EmailRecipients) > 0 {
		email := notify.NewEmailChannel(notify.EmailConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			From:       cfg.SMTPFrom,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			Recipients: cfg.EmailRecipients,
		})
		registry.Subscribe(email,
			domain.EventTaskAssigned,
			domain.EventTaskCompleted,
			domain.EventTaskReturned,
		)
		logger.Info("email channel enabled", slog.Int("recipients", len(cfg.EmailRecipients)))
	}

	if cfg.WebhookURL != "" {
		webhook := notify.NewWebhookChannel(cfg.WebhookURL, cfg.WebhookSecret)
		registry.Subscribe(webhook,
			domain.EventTaskCreated,
			domain.EventTaskAssigned,
			domain.EventTaskCompleted,
			domain.EventTaskReturned,
			domain.EventTaskApproved,
			domain.EventTaskPaid,
			domain.EventTaskCancelled,
		)
		logger.Info("webhook channel enabled")
	}

	return registry
}
