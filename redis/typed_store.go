package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// TypedStore keeps JSON documents at "<prefix>:<id>" and tracks every saved
// id in the set at idsKey, so a namespace can be listed and cleared without
// scanning the keyspace. An empty idsKey disables tracking.
type TypedStore[T any] struct {
	client *Client
	prefix string
	idsKey string
}

// NewTypedStore returns a store for documents under prefix.
func NewTypedStore[T any](client *Client, prefix, idsKey string) *TypedStore[T] {
	return &TypedStore[T]{client: client, prefix: prefix, idsKey: idsKey}
}

// Key returns the Redis key of document id.
func (s *TypedStore[T]) Key(id string) string {
	if s.prefix == "" {
		return id
	}
	return s.prefix + ":" + id
}

// Load returns document id, or (nil, nil) when it does not exist.
func (s *TypedStore[T]) Load(ctx context.Context, id string) (*T, error) {
	raw, err := s.client.Get(ctx, s.Key(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", s.Key(id), err)
	}
	var doc T
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Key(id), err)
	}
	return &doc, nil
}

// Save writes document id and records it in the id set in one round trip.
// A ttl of 0 keeps the document until it is deleted.
func (s *TypedStore[T]) Save(ctx context.Context, id string, doc *T, ttl time.Duration) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.Key(id), err)
	}
	err = s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.Key(id), data, ttl)
		if s.idsKey != "" {
			p.SAdd(ctx, s.idsKey, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", s.Key(id), err)
	}
	return nil
}

// IDs returns the tracked ids in lexical order. Ids of expired documents
// stay listed until Delete.
func (s *TypedStore[T]) IDs(ctx context.Context) ([]string, error) {
	if s.idsKey == "" {
		return nil, nil
	}
	ids, err := s.client.SMembers(ctx, s.idsKey)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.idsKey, err)
	}
	slices.Sort(ids)
	return ids, nil
}

// Keys returns every key the store owns: one per tracked document plus the
// id set itself.
func (s *TypedStore[T]) Keys(ctx context.Context) ([]string, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.Key(id))
	}
	if s.idsKey != "" {
		keys = append(keys, s.idsKey)
	}
	return keys, nil
}

// Delete removes document id and forgets it.
func (s *TypedStore[T]) Delete(ctx context.Context, id string) error {
	err := s.client.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, s.Key(id))
		if s.idsKey != "" {
			p.SRem(ctx, s.idsKey, id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.Key(id), err)
	}
	return nil
}
