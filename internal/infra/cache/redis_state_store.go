// Package cache keeps chat states in Redis so identities survive restarts.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"coach_digital_bot/internal/app"
)

const (
	keyPrefix  = "coach_bot:chat:"
	scanBatch  = 100
	defaultTTL = 30 * 24 * time.Hour
)

// errCorruptState marks a stored value that is not a chat state.
var errCorruptState = errors.New("corrupt chat state")

// RedisStateStore implements app.StateStore. Every save refreshes the key TTL.
type RedisStateStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStateStore(client *redis.Client, ttl time.Duration) *RedisStateStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStateStore{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func key(chatID int64) string {
	return keyPrefix + strconv.FormatInt(chatID, 10)
}

func (s *RedisStateStore) Load(ctx context.Context, chatID int64) (*app.ChatState, error) {
	data, err := s.client.Get(ctx, key(chatID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, app.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error loading chat state: %w", err)
	}
	st := &app.ChatState{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w %d: %v", errCorruptState, chatID, err)
	}
	return st, nil
}

func (s *RedisStateStore) Save(ctx context.Context, st *app.ChatState) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("error encoding chat state: %w", err)
	}
	if err := s.client.Set(ctx, key(st.ChatID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("error saving chat state: %w", err)
	}
	return nil
}

func (s *RedisStateStore) Delete(ctx context.Context, chatID int64) error {
	if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
		return fmt.Errorf("error deleting chat state: %w", err)
	}
	return nil
}

// ChatsOfCoach walks the chat keys and returns the chats where coachID is selected.
func (s *RedisStateStore) ChatsOfCoach(ctx context.Context, coachID string) ([]int64, error) {
	var ids []int64
	err := s.each(ctx, func(chatID int64, st *app.ChatState, _ error) error {
		if st != nil && st.Identity.Coach != nil && st.Identity.Coach.ID == coachID {
			ids = append(ids, chatID)
		}
		return nil
	})
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, err
}

// each loads every stored chat state. Undecodable states are passed with their error.
func (s *RedisStateStore) each(ctx context.Context, fn func(chatID int64, st *app.ChatState, err error) error) error {
	iter := s.client.Scan(ctx, 0, keyPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		chatID, err := strconv.ParseInt(strings.TrimPrefix(iter.Val(), keyPrefix), 10, 64)
		if err != nil {
			continue
		}
		st, err := s.Load(ctx, chatID)
		if errors.Is(err, app.ErrStateNotFound) {
			continue
		}
		if err := fn(chatID, st, err); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning chat states: %w", err)
	}
	return nil
}

// DeleteIdle walks the chat keys and drops the ones not updated since before.
// Keys holding something that does not decode are dropped as well; any other
// read error stops the sweep and leaves the key alone.
func (s *RedisStateStore) DeleteIdle(ctx context.Context, before time.Time) (int, error) {
	deleted := 0
	err := s.each(ctx, func(chatID int64, st *app.ChatState, loadErr error) error {
		switch {
		case loadErr == nil && !st.UpdatedAt.Before(before):
			return nil
		case loadErr != nil && !errors.Is(loadErr, errCorruptState):
			return loadErr
		}
		if err := s.client.Del(ctx, key(chatID)).Err(); err != nil {
			return fmt.Errorf("error deleting idle chat state: %w", err)
		}
		deleted++
		return nil
	})
	return deleted, err
}
