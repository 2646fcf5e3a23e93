package events

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/pubsub"
	"github.com/pepperswap/apiserver/config"
	"google.golang.org/api/option"
)

// PubSubBackend publishes events to a single Google Cloud Pub/Sub topic,
// tagging each message with its channel name.
type PubSubBackend struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubBackend constructs a Pub/Sub backend from config, creating the
// configured topic when it does not exist yet.
func NewPubSubBackend(ctx context.Context, cfg config.PubSubConfig) (*PubSubBackend, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("pubsub topic is required")
	}

	var opts []option.ClientOption
	if strings.TrimSpace(cfg.CredentialsFile) != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, err
	}

	topic := client.Topic(cfg.Topic)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, cfg.Topic)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
	}

	return &PubSubBackend{client: client, topic: topic}, nil
}

// Publish sends an event to the configured topic.
func (p *PubSubBackend) Publish(ctx context.Context, channel string, data []byte) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("pubsub channel is required")
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"channel": channel},
	})
	_, err := result.Get(ctx)
	return err
}

// Close flushes pending messages and closes the client.
func (p *PubSubBackend) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
