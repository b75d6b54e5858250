package config

import "github.com/spf13/viper"

// Config holds typed configuration for the payroll service.
type Config struct {
	LogLevel     string
	MetricsAddr  string
	KafkaBrokers string
	RedisAddr    string
	PostgresDSN  string
	CronExpr     string
	OTelEndpoint string
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:     v.GetString("log_level"),
		MetricsAddr:  v.GetString("metrics_addr"),
		KafkaBrokers: v.GetString("kafka_brokers"),
		RedisAddr:    v.GetString("redis_addr"),
		PostgresDSN:  v.GetString("postgres_dsn"),
		CronExpr:     v.GetString("cron_expr"),
		OTelEndpoint: v.GetString("otel_endpoint"),
	}
}
