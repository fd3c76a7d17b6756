package service

import (
	"context"
	"time"

	"github.com/ikkim/provider-portal-backend/internal/storage"
	"github.com/ikkim/provider-portal-backend/internal/websocket"
	"github.com/ikkim/provider-portal-backend/pkg/mailer"
	"github.com/ikkim/provider-portal-backend/pkg/stripeclient"
)

// ObjectStorage is satisfied by *storage.S3Storage.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (*storage.StoredObject, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// IdentityVerifier is satisfied by *stripeclient.Client.
type IdentityVerifier interface {
	CreateIdentitySession(ctx context.Context, businessID uint) (*stripeclient.IdentitySession, error)
	GetIdentitySession(ctx context.Context, id string) (*stripeclient.IdentitySession, error)
}

// PayoutProvider is satisfied by *stripeclient.Client.
type PayoutProvider interface {
	CreateConnectAccount(ctx context.Context, email string, businessID uint) (string, error)
	CreateAccountLink(ctx context.Context, accountID string) (*stripeclient.AccountLink, error)
	GetAccount(ctx context.Context, accountID string) (*stripeclient.AccountStatus, error)
}

// Mailer is satisfied by *mailer.SMTPMailer.
type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// IdempotencyStore is satisfied by *redis.Store.
type IdempotencyStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// EventPublisher is satisfied by *websocket.Hub.
type EventPublisher interface {
	Publish(event websocket.Event)
}

type noopPublisher struct{}

func (noopPublisher) Publish(websocket.Event) {}

func publisherOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return noopPublisher{}
	}
	return p
}
