// Package kafka wraps the franz-go client used to publish workflow events.
package kafka

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Client is a thin wrapper over kgo with topic bootstrap.
type Client struct {
	client *kgo.Client
}

// New connects to the brokers. Returns nil when no brokers are configured so
// main can wire Kafka conditionally.
func New(ctx context.Context, brokers []string) (*Client, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping failed: %w", err)
	}
	return &Client{client: client}, nil
}

// EnsureTopic creates the topic if it does not exist yet. Existing topics are
// left untouched.
func (c *Client) EnsureTopic(ctx context.Context, topic string, partitions int32) error {
	adm := kadm.NewClient(c.client)

	topics, err := adm.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("list topics: %w", err)
	}
	if topics.Has(topic) {
		return nil
	}

	if _, err := adm.CreateTopic(ctx, partitions, 1, nil, topic); err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

// Produce writes one record synchronously. The workflow event worker calls
// this off the transition's critical path, so waiting for the ack is fine.
func (c *Client) Produce(ctx context.Context, topic string, key, value []byte) error {
	record := &kgo.Record{Topic: topic, Key: key, Value: value}
	if err := c.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

func (c *Client) Close() {
	c.client.Close()
}
