package catalogcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sunilverma11/town-book/model"
)

// Store is a cache-aside layer for the book catalog. Writers invalidate,
// readers repopulate. A nil client disables caching entirely, so callers
// never branch on whether Redis is configured.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func (s *Store) GetList(ctx context.Context) ([]model.Book, bool) {
	if s == nil || s.client == nil {
		return nil, false
	}
	val, err := s.client.Get(ctx, listKey).Result()
	if err != nil {
		return nil, false
	}
	var books []model.Book
	if err := json.Unmarshal([]byte(val), &books); err != nil {
		return nil, false
	}
	return books, true
}

func (s *Store) SetList(ctx context.Context, books []model.Book) {
	if s == nil || s.client == nil {
		return
	}
	val, err := json.Marshal(books)
	if err != nil {
		return
	}
	s.client.Set(ctx, listKey, val, s.ttl)
}

func (s *Store) GetDetail(ctx context.Context, id int64) (*model.Book, bool) {
	if s == nil || s.client == nil {
		return nil, false
	}
	val, err := s.client.Get(ctx, detailKey(id)).Result()
	if err != nil {
		return nil, false
	}
	var b model.Book
	if err := json.Unmarshal([]byte(val), &b); err != nil {
		return nil, false
	}
	return &b, true
}

func (s *Store) SetDetail(ctx context.Context, b *model.Book) {
	if s == nil || s.client == nil || b == nil {
		return
	}
	val, err := json.Marshal(b)
	if err != nil {
		return
	}
	s.client.Set(ctx, detailKey(b.ID), val, s.ttl)
}

// Invalidate drops the list and, when id > 0, the detail entry. Deleting
// rather than updating keeps concurrent writers from racing each other into
// stale entries.
func (s *Store) Invalidate(ctx context.Context, id int64) {
	if s == nil || s.client == nil {
		return
	}
	keys := []string{listKey}
	if id > 0 {
		keys = append(keys, detailKey(id))
	}
	s.client.Del(ctx, keys...)
}

const listKey = "catalog:list"

func detailKey(id int64) string { return fmt.Sprintf("catalog:detail:%d", id) }
