// Package redisstore backs the kvstore contract with Redis strings plus a
// pub/sub change channel. Each handle publishes under its own origin id so
// subscribers can drop their own echoes.
package redisstore

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"restodash/backend/internal/kvstore"
	"restodash/backend/internal/xid"
)

const (
	keyPrefix   = "restodash:kv:"
	changesChan = "restodash:kv-changes"
)

type Store struct {
	client *redis.Client
	origin string
}

var _ kvstore.Store = (*Store)(nil)

func New(addr string, password string, db int) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Store{client: client, origin: xid.New("kv")}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, kvstore.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return err
	}
	return s.publish(ctx, key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, keyPrefix+key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	return s.publish(ctx, key)
}

func (s *Store) publish(ctx context.Context, key string) error {
	return s.client.Publish(ctx, changesChan, s.origin+"|"+key).Err()
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, keyPrefix+prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (s *Store) Watch(ctx context.Context) (<-chan kvstore.Event, error) {
	sub := s.client.Subscribe(ctx, changesChan)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan kvstore.Event)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				origin, key, found := strings.Cut(msg.Payload, "|")
				if !found || origin == s.origin {
					continue
				}
				select {
				case out <- kvstore.Event{Key: key}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return s.client.Close()
}
