package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces token keys.
const DefaultPrefix = "homecare:auth:"

// farFuture scores index members of tokens that never expire (2100-01-01).
const farFuture = 4102444800

// Store implements ports.TokenStore using Redis.
// Clients are indexed in a ZSET scored by expiry so List can prune lazily.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for tokens; the user logs in again afterwards.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for tokens.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(clientID string) string {
	return s.prefix + clientID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Save persists the token with the configured TTL.
func (s *Store) Save(ctx context.Context, clientID string, token ports.Token) error {
	if clientID == "" {
		return fmt.Errorf("clientID cannot be empty")
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(clientID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: clientID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the token from Redis.
func (s *Store) Load(ctx context.Context, clientID string) (ports.Token, error) {
	val, err := s.client.Get(ctx, s.key(clientID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return ports.Token{}, domain.ErrTokenNotFound
		}
		return ports.Token{}, fmt.Errorf("failed to get from redis: %w", err)
	}

	var token ports.Token
	if err := json.Unmarshal([]byte(val), &token); err != nil {
		return ports.Token{}, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return token, nil
}

// Delete removes the token and its index entry.
func (s *Store) Delete(ctx context.Context, clientID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(clientID))
	pipe.ZRem(ctx, s.indexKey(), clientID)
	_, err := pipe.Exec(ctx)
	return err
}

// List returns the clients with a live token, dropping expired index entries first.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired tokens: %w", err)
	}

	clients, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return clients, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
