package config

import "github.com/spf13/viper"

// Config holds typed configuration for the notifier service.
type Config struct {
	LogLevel     string
	MetricsAddr  string
	KafkaBrokers string
	GroupID      string
	OTelEndpoint string

	MaxRetries int

	SMTPHost        string
	SMTPPort        int
	SMTPFrom        string
	SMTPUsername    string
	SMTPPassword    string
	EmailRecipients []string

	WebhookURL    string
	WebhookSecret string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		MetricsAddr:  v.GetString("metrics_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		GroupID:      v.GetString("group_id"),
		OTelEndpoint: v.GetString("otel_endpoint"),

		MaxRetries: v.GetInt("max_retries"),

		SMTPHost:        v.GetString("smtp_host"),
		SMTPPort:        v.GetInt("smtp_port"),
		SMTPFrom:        v.GetString("smtp_from"),
		SMTPUsername:    v.GetString("smtp_username"),
		SMTPPassword:    v.GetString("smtp_password"),
		EmailRecipients: v.GetStringSlice("email_recipients"),

		WebhookURL:    v.GetString("webhook_url"),
		WebhookSecret: v.GetString("webhook_secret"),
	}
}
