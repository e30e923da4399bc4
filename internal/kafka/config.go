// Package kafka runs the in-process email worker and builds Kafka client settings.
package kafka

import (
	"crypto/tls"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// Config holds the Kafka settings read from the environment
type Config struct {
	Brokers   []string
	APIKey    string
	APISecret string
	Topic     string
	GroupID   string
}

// ConfigFromEnv reads KAFKA_BROKERS, KAFKA_API_KEY, KAFKA_API_SECRET and KAFKA_EMAIL_TOPIC.
// Enabled reports false when no brokers are configured.
func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:    os.Getenv("KAFKA_API_KEY"),
		APISecret: os.Getenv("KAFKA_API_SECRET"),
		Topic:     "user-email-events",
		GroupID:   "users-backend-mailer",
	}
	if topic := os.Getenv("KAFKA_EMAIL_TOPIC"); topic != "" {
		cfg.Topic = topic
	}
	for _, b := range strings.Split(os.Getenv("KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.Brokers = append(cfg.Brokers, b)
		}
	}
	return cfg
}

// Enabled reports whether a broker list is configured
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

func (c Config) secure() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// Dialer returns the dialer used by readers and the connection check.
// SASL/PLAIN over TLS is only configured when credentials are provided.
func (c Config) Dialer() *kafka.Dialer {
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if c.secure() {
		dialer.SASLMechanism = plain.Mechanism{Username: c.APIKey, Password: c.APISecret}
		dialer.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return dialer
}

// Transport returns the writer transport, or nil for a plain local broker
func (c Config) Transport() *kafka.Transport {
	if !c.secure() {
		return nil
	}
	return &kafka.Transport{
		SASL: plain.Mechanism{Username: c.APIKey, Password: c.APISecret},
		TLS:  &tls.Config{MinVersion: tls.VersionTLS12},
	}
}
