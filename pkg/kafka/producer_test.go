package kafka

import (
	"context"
	"errors"
	"io"
	"testing"

	kafka_config "stayhub/pkg/kafka/config"
	"stayhub/pkg/logger"
)

func testProducerConfig() *kafka_config.Config {
	return &kafka_config.Config{
		Brokers:             []string{"localhost:9092"},
		ProducerMaxAttempts: 3,
		ProducerRequireAcks: -1,
		ProducerCompression: "snappy",
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func TestNewProducerRejectsBadInput(t *testing.T) {
	log := testLogger()

	if _, err := NewProducer(nil, "topic", log); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewProducer(&kafka_config.Config{}, "topic", log); err == nil {
		t.Fatal("expected error for missing brokers")
	}
	if _, err := NewProducer(testProducerConfig(), "", log); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestNewProducerWiresErrorLogger(t *testing.T) {
	p, err := NewProducer(testProducerConfig(), "stayhub.bookings", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	if p.writer.ErrorLogger == nil {
		t.Fatal("writer must report async errors somewhere")
	}
}

func TestPublishValidatesBeforeWriting(t *testing.T) {
	p, err := NewProducer(testProducerConfig(), "stayhub.bookings", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	// Both rejections happen before any broker I/O.
	if err := p.Publish(context.Background(), Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(context.Background(), Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Fatalf("expected ErrEmptyValue, got %v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	p, err := NewProducer(testProducerConfig(), "stayhub.bookings", testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	err = p.Publish(context.Background(), Message{Key: "k", Value: []byte("x")})
	if !errors.Is(err, ErrProducerClosed) {
		t.Fatalf("expected ErrProducerClosed, got %v", err)
	}
}
