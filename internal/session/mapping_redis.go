package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// RedisMappingStore keeps presentation mappings in redis with a TTL so that
// several server processes can share sessions.
type RedisMappingStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMappingStore(client *redis.Client, ttl time.Duration) *RedisMappingStore {
	return &RedisMappingStore{client: client, ttl: ttl}
}

func (s *RedisMappingStore) Put(ctx context.Context, sessionID string, p quiz.Presentation) error {
	val, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session: encode presentation: %w", err)
	}
	if err := s.client.Set(ctx, mappingKey(sessionID, p.QuestionID), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: save presentation: %w", err)
	}
	return nil
}

func (s *RedisMappingStore) Get(ctx context.Context, sessionID string, questionID int64) (quiz.Presentation, bool, error) {
	raw, err := s.client.Get(ctx, mappingKey(sessionID, questionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return quiz.Presentation{}, false, nil
	}
	if err != nil {
		return quiz.Presentation{}, false, fmt.Errorf("session: load presentation: %w", err)
	}
	var p quiz.Presentation
	if err := json.Unmarshal(raw, &p); err != nil {
		// unreadable entries are treated as absent
		return quiz.Presentation{}, false, nil
	}
	return p, true, nil
}

func (s *RedisMappingStore) Delete(ctx context.Context, sessionID string, questionID int64) error {
	if err := s.client.Del(ctx, mappingKey(sessionID, questionID)).Err(); err != nil {
		return fmt.Errorf("session: delete presentation: %w", err)
	}
	return nil
}
