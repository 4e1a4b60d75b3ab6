package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/adapters/out/simulated"
	"fulfillment/internal/core/application/pipeline"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/jobs"
)

const (
	DefaultHTTPPort        = "8080"
	DefaultKafkaTopic      = "fulfillment.events"
	DefaultServiceName     = "fulfillment"
	DefaultStaleClaimAfter = 30 * time.Minute
)

type Config struct {
	HTTPPort string

	DB postgres.ConnectionParams

	RedisAddr string

	KafkaBrokers []string
	KafkaTopic   string

	Pipeline     pipeline.Config
	CancelPolicy order.CancelPolicy

	Invoices simulated.Config
	Labels   simulated.Config

	Jobs jobs.JobsConfig

	SeedFile    string
	LogLevel    string
	ServiceName string
}

// UsePostgres reports whether orders and attempts live in Postgres rather than memory.
func (c Config) UsePostgres() bool {
	return c.DB.Host != ""
}

// LoadConfig reads the configuration through getenv (usually os.Getenv).
// Malformed values are reported together.
func LoadConfig(getenv func(string) string) (Config, error) {
	env := envReader{getenv: getenv}

	cfg := Config{
		HTTPPort: env.string("HTTP_PORT", DefaultHTTPPort),
		DB: postgres.ConnectionParams{
			Host:     getenv("DB_HOST"),
			Port:     getenv("DB_PORT"),
			User:     getenv("DB_USER"),
			Password: getenv("DB_PASSWORD"),
			Name:     getenv("DB_NAME"),
			SSLMode:  getenv("DB_SSLMODE"),
		},
		RedisAddr:    getenv("REDIS_ADDR"),
		KafkaBrokers: env.list("KAFKA_BROKERS"),
		KafkaTopic:   env.string("KAFKA_FULFILLMENT_TOPIC", DefaultKafkaTopic),
		Pipeline: pipeline.Config{
			StepTimeout:         env.duration("PIPELINE_STEP_TIMEOUT", pipeline.DefaultStepTimeout),
			ReuseCompletedSteps: env.bool("PIPELINE_REUSE_COMPLETED_STEPS", true),
		},
		CancelPolicy: order.CancelPolicy{
			AllowAfterShipped:   env.bool("CANCEL_AFTER_SHIPPED", true),
			AllowAfterDelivered: env.bool("CANCEL_AFTER_DELIVERED", true),
		},
		Jobs: jobs.JobsConfig{
			StaleClaimAfter:    env.duration("STALE_CLAIM_AFTER", DefaultStaleClaimAfter),
			StaleClaimSchedule: env.string("STALE_CLAIM_SCHEDULE", jobs.DefaultStaleClaimSchedule),
		},
		SeedFile:    getenv("SEED_FILE"),
		LogLevel:    env.string("LOG_LEVEL", "info"),
		ServiceName: env.string("SERVICE_NAME", DefaultServiceName),
	}

	latency := env.duration("SIMULATED_LATENCY", 0)
	cfg.Invoices = simulated.Config{
		FailureRate: env.float("INVOICE_FAILURE_RATE", simulated.DefaultInvoiceFailureRate),
		Latency:     latency,
	}
	cfg.Labels = simulated.Config{
		FailureRate: env.float("LABEL_FAILURE_RATE", simulated.DefaultLabelFailureRate),
		Latency:     latency,
	}

	if err := errors.Join(env.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type envReader struct {
	getenv func(string) string
	errs   []error
}

func (e *envReader) lookup(key string) (string, bool) {
	v := strings.TrimSpace(e.getenv(key))
	return v, v != ""
}

func (e *envReader) string(key, fallback string) string {
	if v, ok := e.lookup(key); ok {
		return v
	}
	return fallback
}

func (e *envReader) list(key string) []string {
	v, ok := e.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func (e *envReader) bool(key string, fallback bool) bool {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (e *envReader) float(key string, fallback float64) float64 {
	v, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return f
}
