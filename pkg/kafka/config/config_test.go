package kafka_config

import (
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, "a:9092, b:9092")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "b:9092" {
		t.Errorf("brokers = %v", cfg.Brokers)
	}
	if got := cfg.DLQTopic("booking-notifications"); got != "booking-notifications.dlq" {
		t.Errorf("DLQTopic = %s", got)
	}
}

func TestValidate_ReportsProblems(t *testing.T) {
	t.Setenv(EnvKafkaProducerCompression, "brotli")
	t.Setenv(EnvKafkaConsumerGroupID, " ")

	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected error, got config %+v", cfg)
	}
	if !strings.Contains(err.Error(), "ProducerCompression") {
		t.Errorf("error = %v", err)
	}
}
