package operational

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "controlos:monthly:"

type redisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client, now: time.Now}
}

func recordKey(restaurantID uint, month string) string {
	return fmt.Sprintf("%s%d:%s", keyPrefix, restaurantID, month)
}

func indexKey(restaurantID uint) string {
	return fmt.Sprintf("%s%d:index", keyPrefix, restaurantID)
}

func (s *redisStore) Get(ctx context.Context, restaurantID uint, month string) (*Record, error) {
	if _, err := ParseMonth(month); err != nil {
		return nil, err
	}

	raw, err := s.client.Get(ctx, recordKey(restaurantID, month)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Empty(month), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrStore, month, err)
	}
	if rec.Days == nil {
		rec.Days = map[string]DayFigures{}
	}
	return &rec, nil
}

func (s *redisStore) Put(ctx context.Context, restaurantID uint, rec *Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	now := s.now().UTC()
	rec.UpdatedAt = &now

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, recordKey(restaurantID, rec.Month), raw, 0)
	pipe.SAdd(ctx, indexKey(restaurantID), rec.Month)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, restaurantID uint, month string) error {
	if _, err := ParseMonth(month); err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, recordKey(restaurantID, month))
	pipe.SRem(ctx, indexKey(restaurantID), month)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrStore, err)
	}
	return nil
}

func (s *redisStore) ListMonths(ctx context.Context, restaurantID uint) ([]string, error) {
	months, err := s.client.SMembers(ctx, indexKey(restaurantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	// YYYY-MM sorts lexically
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months, nil
}
