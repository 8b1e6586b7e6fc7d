// Package redis stores operator sessions in Redis so several API instances can share them.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marque-api/internal/config"
	"github.com/marque-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "marque:admin_session:"

// record is the stored shape; the token itself is the key.
type record struct {
	AdminID   int64         `json:"admin_id"`
	Market    domain.Market `json:"market"`
	IssuedAt  time.Time     `json:"issued_at"`
	ExpiresAt time.Time     `json:"expires_at"`
}

type SessionStore struct {
	client *goredis.Client
}

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewSessionStore(client *goredis.Client) *SessionStore {
	return &SessionStore{client: client}
}

func key(token string) string { return keyPrefix + token }

// Save writes the session and lets Redis expire it at the session's expiry.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	b, err := json.Marshal(record{
		AdminID:   sess.AdminID,
		Market:    sess.Market,
		IssuedAt:  sess.IssuedAt,
		ExpiresAt: sess.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, key(sess.Token), b, 0)
		pipe.ExpireAt(ctx, key(sess.Token), sess.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	b, err := s.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &domain.Session{
		Token:     token,
		AdminID:   r.AdminID,
		Market:    r.Market,
		IssuedAt:  r.IssuedAt,
		ExpiresAt: r.ExpiresAt,
		TTL:       r.ExpiresAt.Unix(),
	}, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, key(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
