package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"civicpulse/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

// FeedChannel is the Redis pub/sub channel feed events fan out on.
const FeedChannel = "feed:events"

const leaderboardKey = "leaderboard"

// PublishEvent stores a feed event (assigning its cursor) and broadcasts it
// over Redis pub/sub for live subscribers.
func (s *Service) PublishEvent(ev *models.FeedEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	if err := s.DB.Create(ev).Error; err != nil {
		return fmt.Errorf("failed to store feed event: %w", err)
	}

	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := s.Redis.Publish(s.Ctx, FeedChannel, payload).Err(); err != nil {
		// live delivery is best effort; the event is durable and reachable
		// via the cursor API
		log.Printf("WARN: failed to publish feed event: %v", err)
	}
	return nil
}

// EventsSince returns feed events with a cursor greater than the given one,
// oldest first, for catch-up polling.
func (s *Service) EventsSince(cursor uint, limit int) ([]models.FeedEvent, error) {
	var out []models.FeedEvent
	q := s.DB.Where("id > ?", cursor).Order("id asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list feed events: %w", err)
	}
	return out, nil
}

// SubscribeFeed subscribes to the live feed channel.
func (s *Service) SubscribeFeed() *redis.PubSub {
	return s.Redis.Subscribe(s.Ctx, FeedChannel)
}

// Leaderboard returns the top users by XP. Reads go to the Redis sorted set,
// rebuilt from PostgreSQL when empty; member scores are kept in step with
// every XP increment.
func (s *Service) Leaderboard(limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 10
	}

	uids := s.leaderboardUIDs(limit)
	if uids == nil {
		// cache miss or no Redis: serve from the database and rebuild
		var users []models.User
		err := s.DB.Order("xp desc").Limit(limit).Find(&users).Error
		if err != nil {
			return nil, fmt.Errorf("failed to read leaderboard: %w", err)
		}
		s.rebuildLeaderboard(users)
		return users, nil
	}

	users := make([]models.User, 0, len(uids))
	for _, uid := range uids {
		u, err := s.GetUser(uid)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}

func (s *Service) leaderboardUIDs(limit int) []string {
	if s.Redis == nil {
		return nil
	}
	uids, err := s.Redis.ZRevRange(s.Ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil || len(uids) == 0 {
		return nil
	}
	return uids
}

func (s *Service) rebuildLeaderboard(users []models.User) {
	if s.Redis == nil {
		return
	}
	members := make([]redis.Z, 0, len(users))
	for _, u := range users {
		members = append(members, redis.Z{Score: float64(u.XP), Member: u.UID})
	}
	if len(members) == 0 {
		return
	}
	if err := s.Redis.ZAdd(s.Ctx, leaderboardKey, members...).Err(); err != nil {
		log.Printf("WARN: failed to rebuild leaderboard cache: %v", err)
	}
}

// bumpLeaderboard mirrors an XP delta into the cache. Best effort: the
// database remains the source of truth and the cache self-heals on rebuild.
func (s *Service) bumpLeaderboard(uid string, delta int) {
	if s.Redis == nil || delta == 0 {
		return
	}
	err := s.Redis.ZIncrBy(s.Ctx, leaderboardKey, float64(delta), uid).Err()
	if err != nil {
		log.Printf("WARN: failed to bump leaderboard for %s by %d: %v", uid, delta, err)
	}
}
