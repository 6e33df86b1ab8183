package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/showlist/internal/models"
	"github.com/redis/go-redis/v9"
)

// TokenStore persists the current [models.Credential] for a [TokenManager].
//
// Load returns ok=false when nothing usable is stored.
type TokenStore interface {
	Load(ctx context.Context) (cred models.Credential, ok bool, err error)
	Save(ctx context.Context, cred models.Credential) error
}

// MemoryTokenStore keeps the credential in process memory.
type MemoryTokenStore struct {
	mu   sync.RWMutex
	cred models.Credential
	set  bool
}

// NewMemoryTokenStore creates an empty [MemoryTokenStore].
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

func (s *MemoryTokenStore) Load(ctx context.Context) (models.Credential, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.set, nil
}

func (s *MemoryTokenStore) Save(ctx context.Context, cred models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cred = cred
	s.set = true
	return nil
}

type storedCredential struct {
	AccessToken string    `json:"access_token"`
	Expiry      time.Time `json:"expiry"`
}

// RedisTokenStore shares one credential between processes through a Redis key.
//
// The key expires together with the credential.
type RedisTokenStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// NewRedisTokenStore creates a store that reads and writes key on client.
func NewRedisTokenStore(client *redis.Client, key string) *RedisTokenStore {
	if key == "" {
		key = "showlist:spotify:token"
	}
	return &RedisTokenStore{client: client, key: key, now: time.Now}
}

// NewRedisTokenStoreFromURL parses a redis:// URL and creates a store for key.
func NewRedisTokenStoreFromURL(rawURL, key string) (*RedisTokenStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return NewRedisTokenStore(redis.NewClient(opts), key), nil
}

func (s *RedisTokenStore) Load(ctx context.Context) (models.Credential, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Credential{}, false, nil
	}
	if err != nil {
		return models.Credential{}, false, fmt.Errorf("failed to read token from redis: %w", err)
	}

	var stored storedCredential
	if err := json.Unmarshal(data, &stored); err != nil {
		return models.Credential{}, false, fmt.Errorf("failed to decode stored token: %w", err)
	}
	return models.Credential{AccessToken: stored.AccessToken, Expiry: stored.Expiry}, true, nil
}

// Save writes cred with a TTL matching its remaining lifetime. Already expired credentials are not written.
func (s *RedisTokenStore) Save(ctx context.Context, cred models.Credential) error {
	ttl := cred.Expiry.Sub(s.now())
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(storedCredential{AccessToken: cred.AccessToken, Expiry: cred.Expiry})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write token to redis: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (s *RedisTokenStore) Close() error {
	return s.client.Close()
}
