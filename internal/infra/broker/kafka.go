package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront/internal/domain/event"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// kafka.Writer のうち使う部分（テストで差し替える）
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
}

// 注文イベント用。同じtopicに書き続ける
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}

	return &Producer{writer: writer}
}

// 同じキー（注文）は同じパーティションへ
func (p *Producer) Publish(ctx context.Context, key string, ev event.Envelope) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(ev.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	zap.L().Debug("event published", zap.String("key", key), zap.String("type", string(ev.Type)))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// ブローカー未設定時に使う
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, key string, ev event.Envelope) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
