// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/socialite/internal/platform/apperr"
	"github.com/taibuivan/socialite/internal/platform/constants"
)

// RedisHandshakeRepository implements HandshakeRepository using Redis.
type RedisHandshakeRepository struct {
	client redis.Cmdable
}

// NewHandshakeRepository creates a new Redis-backed HandshakeRepository.
func NewHandshakeRepository(client redis.Cmdable) *RedisHandshakeRepository {
	return &RedisHandshakeRepository{client: client}
}

func handshakeKey(state string) string {
	return constants.RedisPrefixOAuthState + state
}

/*
Save stores a pending handshake keyed by its state value.

Parameters:
  - context: context.Context
  - state: string
  - handshake: Handshake
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisHandshakeRepository) Save(context context.Context, state string, handshake Handshake, ttl time.Duration) error {
	payload, err := json.Marshal(handshake)
	if err != nil {
		return fmt.Errorf("redis_handshake_encode_failed: %w", err)
	}

	if err := repository.client.Set(context, handshakeKey(state), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis_handshake_set_failed: %w", err)
	}

	return nil
}

/*
Consume fetches and deletes a handshake with a single GETDEL.

Description: Two callbacks racing on the same state cannot both succeed.

Parameters:
  - context: context.Context
  - state: string

Returns:
  - *Handshake: The pending handshake
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisHandshakeRepository) Consume(context context.Context, state string) (*Handshake, error) {
	payload, err := repository.client.GetDel(context, handshakeKey(state)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Handshake")
		}
		return nil, fmt.Errorf("redis_handshake_getdel_failed: %w", err)
	}

	handshake := &Handshake{}
	if err := json.Unmarshal(payload, handshake); err != nil {
		return nil, fmt.Errorf("redis_handshake_decode_failed: %w", err)
	}

	return handshake, nil
}
