package redisx

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

type SellerStats struct {
	Orders   int64
	Products int64
}

// StatsStore keeps per-seller counters fed by the stats worker.
type StatsStore struct{ rdb *redis.Client }

func NewStatsStore(rdb *redis.Client) *StatsStore { return &StatsStore{rdb: rdb} }

// recordOnce sets the dedup key and bumps the counters in one step, so a
// failure leaves neither behind and a redelivery is counted exactly once.
var recordOnce = redis.NewScript(`
if redis.call('SET', KEYS[1], '1', 'NX', 'EX', ARGV[1]) then
  redis.call('HINCRBY', KEYS[2], 'orders', 1)
  redis.call('HINCRBY', KEYS[2], 'products', ARGV[2])
  return 1
end
return 0
`)

// RecordOrderOnce counts an order for sellerID unless service already
// counted eventID. It reports whether the counters changed.
func (s *StatsStore) RecordOrderOnce(ctx context.Context, service, eventID, sellerID string, products int) (bool, error) {
	keys := []string{fmt.Sprintf(KeyDedup, service, eventID), fmt.Sprintf(KeySellerStats, sellerID)}
	n, err := recordOnce.Run(ctx, s.rdb, keys, int64(TTLDedup.Seconds()), products).Int()
	if err != nil {
		return false, fmt.Errorf("record order %s: %w", eventID, err)
	}
	return n == 1, nil
}

func (s *StatsStore) SellerStats(ctx context.Context, sellerID string) (SellerStats, error) {
	m, err := s.rdb.HGetAll(ctx, fmt.Sprintf(KeySellerStats, sellerID)).Result()
	if err != nil {
		return SellerStats{}, err
	}
	var out SellerStats
	if v, ok := m["orders"]; ok {
		out.Orders, _ = strconv.ParseInt(v, 10, 64)
	}
	if v, ok := m["products"]; ok {
		out.Products, _ = strconv.ParseInt(v, 10, 64)
	}
	return out, nil
}
