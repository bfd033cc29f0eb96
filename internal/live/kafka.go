package live

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	TopicMessages   = "chat-messages"
	TopicDeliveries = "delivery-locations"
)

// MessageReader is the subset of *kafka.Reader a KafkaSource consumes.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// NewKafkaReader builds a reader that starts at the end of the topic. Each
// subscription gets its own reader so every subscriber sees every event.
func NewKafkaReader(brokers []string, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		StartOffset: kafka.LastOffset,
		MaxBytes:    10e6, // 10MB
	})
}

// KafkaSource is a Feed over JSON events whose message key is the
// subscription key (conversation id, order id).
type KafkaSource[T any] struct {
	newReader  func() MessageReader
	log        *zap.Logger
	retryDelay time.Duration
}

func NewKafkaSource[T any](newReader func() MessageReader, log *zap.Logger) *KafkaSource[T] {
	if log == nil {
		log = zap.NewNop()
	}
	return &KafkaSource[T]{newReader: newReader, log: log, retryDelay: time.Second}
}

func (s *KafkaSource[T]) Subscribe(ctx context.Context, key string) <-chan Update[T] {
	out := make(chan Update[T], 1)
	reader := s.newReader()

	go func() {
		defer close(out)
		defer func() {
			if err := reader.Close(); err != nil {
				s.log.Warn("error closing kafka reader", zap.Error(err))
			}
		}()

		for {
			m, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, context.Canceled) {
					return
				}
				s.log.Warn("error reading message", zap.Error(err))
				if !s.send(ctx, out, Update[T]{Err: err, At: time.Now().UTC()}) {
					return
				}
				select {
				case <-time.After(s.retryDelay):
				case <-ctx.Done():
					return
				}
				continue
			}

			if string(m.Key) != key {
				continue
			}

			var v T
			if err := json.Unmarshal(m.Value, &v); err != nil {
				s.log.Warn("error parsing message", zap.String("topic", m.Topic), zap.Int64("offset", m.Offset), zap.Error(err))
				continue
			}

			at := m.Time.UTC()
			if m.Time.IsZero() {
				at = time.Now().UTC()
			}
			if !s.send(ctx, out, Update[T]{Value: v, At: at}) {
				return
			}
		}
	}()

	return out
}

func (s *KafkaSource[T]) send(ctx context.Context, out chan<- Update[T], u Update[T]) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
