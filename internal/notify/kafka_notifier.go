package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// KafkaNotifier publishes notification events to Kafka. Produces are
// asynchronous; a failed delivery is logged, never surfaced to the caller.
type KafkaNotifier struct {
	client *kgo.Client
	logger *zap.Logger
}

// NewKafkaNotifier creates a producer for the given brokers
func NewKafkaNotifier(brokers []string, clientID string, logger *zap.Logger) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaNotifier{client: client, logger: logger}, nil
}

// SendEmail publishes an email event
func (n *KafkaNotifier) SendEmail(ctx context.Context, event *EmailEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: TopicEmailNotifications,
		Key:   []byte(event.Key()),
		Value: value,
	}
	n.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			n.logger.Warn("notification publish failed",
				zap.String("topic", r.Topic),
				zap.String("event_type", event.EventType),
				zap.Error(err),
			)
		}
	})
	return nil
}

// Close flushes pending records and closes the producer
func (n *KafkaNotifier) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = n.client.Flush(ctx)
	n.client.Close()
}
