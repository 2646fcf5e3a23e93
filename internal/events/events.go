// Package events publishes member lifecycle events to a message broker.
// Publishing is best-effort from the HTTP layer: a registration that
// already committed is never rolled back because its event failed.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Channel names.
const ChannelUserRegistered = "user.registered"

// UserRegistered announces a newly created account.
type UserRegistered struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	CountryCode string    `json:"country_code"`
	At          time.Time `json:"at"`
}

// Backend defines the broker-agnostic publish operation.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte) error
	Close() error
}

// Publisher serializes member events and hands them to a backend.
type Publisher struct {
	backend Backend
}

// NewPublisher constructs a Publisher for the provided backend.
func NewPublisher(backend Backend) *Publisher {
	return &Publisher{backend: backend}
}

// UserRegistered publishes a user.registered event.
func (p *Publisher) UserRegistered(ctx context.Context, event UserRegistered) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.backend.Publish(ctx, ChannelUserRegistered, data)
}

// Close closes the underlying backend.
func (p *Publisher) Close() error {
	return p.backend.Close()
}
