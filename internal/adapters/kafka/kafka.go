package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"channel-chat/internal/models"

	"github.com/IBM/sarama"
)

var ErrProducerBusy = errors.New("kafka producer buffer is full")

// Publisher writes message lifecycle events to a topic, keyed by channel id.
type Publisher struct {
	producer sarama.AsyncProducer
	topic    string
	done     chan struct{}
}

func NewProducerConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 5
	config.Producer.Return.Errors = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Version = sarama.V2_0_0_0
	config.ClientID = "channel-chat"
	config.Producer.MaxMessageBytes = 1000000
	return config
}

func InitKafkaProducer(brokers []string, topic string) (*Publisher, error) {
	producer, err := sarama.NewAsyncProducer(brokers, NewProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	slog.Info("Kafka producer started", "brokers", brokers, "topic", topic)
	return NewPublisher(producer, topic), nil
}

// NewPublisher takes ownership of producer.
func NewPublisher(producer sarama.AsyncProducer, topic string) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		done:     make(chan struct{}),
	}
	go p.drainErrors()
	return p
}

func (p *Publisher) drainErrors() {
	defer close(p.done)
	for perr := range p.producer.Errors() {
		slog.Warn("Failed to deliver event", "topic", perr.Msg.Topic, "error", perr.Err)
	}
}

// Publish enqueues env without waiting for the broker. It fails fast when the
// producer's input buffer is full.
func (p *Publisher) Publish(ctx context.Context, channelID uint, env *models.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(uint64(channelID), 10)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(env.Type)},
		},
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.producer.Input() <- msg:
		return nil
	default:
		return ErrProducerBusy
	}
}

// Close flushes buffered events and stops the producer.
func (p *Publisher) Close() error {
	err := p.producer.Close()
	<-p.done
	return err
}
