package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fadedwholesale/wholesale-service/internal/domain/cart"
	"github.com/fadedwholesale/wholesale-service/internal/pkg/logger"
)

const cartTTL = 7 * 24 * time.Hour

// CartStore keeps one JSON record per user identity. A missing key decodes to
// an empty cart.
type CartStore struct {
	client *redis.Client
	logger *logger.Logger
}

func NewCartStore(client *redis.Client, log *logger.Logger) *CartStore {
	return &CartStore{
		client: client,
		logger: log,
	}
}

func (s *CartStore) Get(ctx context.Context, userID string) ([]cart.Line, error) {
	result, err := s.client.Get(ctx, cartKey(userID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var lines []cart.Line
	if err := json.Unmarshal([]byte(result), &lines); err != nil {
		// A corrupt record is unrecoverable; treat it as an empty cart
		// rather than locking the buyer out.
		s.logger.Error("Discarding corrupt cart record", "user_id", userID, "error", err)
		return nil, nil
	}

	return lines, nil
}

func (s *CartStore) Set(ctx context.Context, userID string, lines []cart.Line) error {
	if len(lines) == 0 {
		return s.Delete(ctx, userID)
	}

	data, err := json.Marshal(lines)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, cartKey(userID), data, cartTTL).Err()
}

func (s *CartStore) Delete(ctx context.Context, userID string) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:user:%s", userID)
}
