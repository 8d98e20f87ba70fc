package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/giovaniif/vending/infra"
	protocols "github.com/giovaniif/vending/protocols"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "vending.purchases"

type PublisherKafka struct {
	writer *kafka.Writer
}

// NewPublisherKafka writes receipts to topic, keyed by item id so one item's sales stay ordered.
func NewPublisherKafka(brokers []string, topic string) *PublisherKafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &PublisherKafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			WriteTimeout:           5 * time.Second,
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *PublisherKafka) Publish(ctx context.Context, receipt protocols.Receipt) error {
	message, err := encodeReceipt(receipt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return classify(err)
	}
	return nil
}

func (p *PublisherKafka) Close() error {
	return p.writer.Close()
}

func encodeReceipt(receipt protocols.Receipt) (kafka.Message, error) {
	value, err := json.Marshal(receipt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode receipt: %w", err)
	}
	return kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", receipt.ItemId)),
		Value: value,
		Time:  receipt.CreatedAt,
		Headers: []kafka.Header{
			{Key: "transaction-id", Value: []byte(receipt.TransactionId)},
		},
	}, nil
}

func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return infra.NewTimeoutError(err.Error())
	}
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) {
		if kafkaErr.Temporary() || kafkaErr.Timeout() {
			return infra.NewNetworkError(err.Error())
		}
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return infra.NewTimeoutError(err.Error())
		}
		return infra.NewNetworkError(err.Error())
	}
	return err
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
