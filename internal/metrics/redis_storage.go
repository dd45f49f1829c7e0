package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists time-series buckets in Redis sorted sets so
// chart history survives server restarts.
//
// Each series lives in one sorted set keyed cards:metrics:<name>. The
// bucket timestamp is the score; the member embeds the timestamp
// alongside the value so two buckets with equal values stay distinct.
type RedisStorage struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStorage connects to Redis at url and verifies the
// connection before returning.
func NewRedisStorage(url string) (*RedisStorage, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStorage{
		client: client,
		prefix: "cards:metrics:",
		ttl:    24 * time.Hour,
	}, nil
}

func (rs *RedisStorage) key(metric string) string {
	return rs.prefix + metric
}

func member(dp DataPoint) string {
	return fmt.Sprintf("%d:%.2f", dp.Timestamp.Unix(), dp.Value)
}

func parseMember(z redis.Z) (DataPoint, bool) {
	raw, ok := z.Member.(string)
	if !ok {
		return DataPoint{}, false
	}
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[i+1:]
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return DataPoint{}, false
	}
	return DataPoint{Timestamp: time.Unix(int64(z.Score), 0), Value: value}, true
}

// SaveDataPoint appends one bucket and drops buckets past the
// retention window, in a single pipeline round trip.
func (rs *RedisStorage) SaveDataPoint(ctx context.Context, metric string, dp DataPoint) error {
	return rs.save(ctx, metric, []redis.Z{{
		Score:  float64(dp.Timestamp.Unix()),
		Member: member(dp),
	}})
}

// SaveBatch appends several buckets at once, used when flushing
// accumulated history in one shot.
func (rs *RedisStorage) SaveBatch(ctx context.Context, metric string, dataPoints []DataPoint) error {
	if len(dataPoints) == 0 {
		return nil
	}
	members := make([]redis.Z, len(dataPoints))
	for i, dp := range dataPoints {
		members[i] = redis.Z{Score: float64(dp.Timestamp.Unix()), Member: member(dp)}
	}
	return rs.save(ctx, metric, members)
}

func (rs *RedisStorage) save(ctx context.Context, metric string, members []redis.Z) error {
	cutoff := time.Now().Add(-rs.ttl).Unix()

	pipe := rs.client.Pipeline()
	pipe.ZAdd(ctx, rs.key(metric), members...)
	pipe.ZRemRangeByScore(ctx, rs.key(metric), "-inf", strconv.FormatInt(cutoff, 10))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving data points: %w", err)
	}
	return nil
}

// LoadHistory returns the buckets recorded at or after since, oldest
// first.
func (rs *RedisStorage) LoadHistory(ctx context.Context, metric string, since time.Time) ([]DataPoint, error) {
	results, err := rs.client.ZRangeByScoreWithScores(ctx, rs.key(metric), &redis.ZRangeBy{
		Min: strconv.FormatInt(since.Unix(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	points := make([]DataPoint, 0, len(results))
	for _, z := range results {
		if dp, ok := parseMember(z); ok {
			points = append(points, dp)
		}
	}
	return points, nil
}

// GetMetricNames lists the series currently stored. Uses SCAN rather
// than KEYS so large keyspaces do not block the server.
func (rs *RedisStorage) GetMetricNames(ctx context.Context) ([]string, error) {
	var names []string
	iter := rs.client.Scan(ctx, 0, rs.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), rs.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("listing metric names: %w", err)
	}
	return names, nil
}

// DeleteMetric removes all stored buckets for one series.
func (rs *RedisStorage) DeleteMetric(ctx context.Context, metric string) error {
	if err := rs.client.Del(ctx, rs.key(metric)).Err(); err != nil {
		return fmt.Errorf("deleting metric: %w", err)
	}
	return nil
}

// SetTTL changes the retention window applied on subsequent saves.
func (rs *RedisStorage) SetTTL(ttl time.Duration) {
	rs.ttl = ttl
}

// GetStats reports storage-level numbers.
func (rs *RedisStorage) GetStats(ctx context.Context) (map[string]interface{}, error) {
	info, err := rs.client.Info(ctx, "stats").Result()
	if err != nil {
		return nil, fmt.Errorf("getting redis stats: %w", err)
	}
	names, err := rs.GetMetricNames(ctx)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"total_metrics": len(names),
		"redis_info":    info,
		"prefix":        rs.prefix,
		"ttl_hours":     rs.ttl.Hours(),
	}, nil
}

// Close closes the Redis connection.
func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}
