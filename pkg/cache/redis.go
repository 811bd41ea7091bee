package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Snapshots caches availability snapshots in Redis. A nil *Snapshots is a
// valid no-op cache, so callers degrade gracefully when Redis is down or
// not configured.
type Snapshots struct {
	rdb *redis.Client
	ttl time.Duration
	log *logrus.Entry
}

// NewSnapshots connects to Redis and returns the snapshot cache. It returns
// nil when the server is unreachable; the service then runs uncached.
func NewSnapshots(addr, password string, ttl time.Duration) *Snapshots {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logrus.WithError(err).Warn("redis unreachable, availability caching disabled")
		return nil
	}

	return &Snapshots{
		rdb: rdb,
		ttl: ttl,
		log: logrus.WithField("component", "cache"),
	}
}

func availabilityKey(eventID string) string {
	return "availability:" + eventID
}

func (s *Snapshots) GetAvailability(ctx context.Context, eventID string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	raw, err := s.rdb.Get(ctx, availabilityKey(eventID)).Bytes()
	if err != nil {
		return nil, false
	}
	return raw, true
}

func (s *Snapshots) SetAvailability(ctx context.Context, eventID string, payload []byte) {
	if s == nil {
		return
	}
	if err := s.rdb.Set(ctx, availabilityKey(eventID), payload, s.ttl).Err(); err != nil {
		s.log.WithError(err).Warn("failed to cache availability snapshot")
	}
}

func (s *Snapshots) InvalidateAvailability(ctx context.Context, eventID string) {
	if s == nil {
		return
	}
	if err := s.rdb.Del(ctx, availabilityKey(eventID)).Err(); err != nil {
		s.log.WithError(err).Warn("failed to invalidate availability snapshot")
	}
}

func (s *Snapshots) Close() {
	if s == nil {
		return
	}
	_ = s.rdb.Close()
}
