package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fuelpass/internal/repositories/cache"
)

// redisStore keeps challenges, confirmed identity results, and cached bureau
// reports in Redis. TTLs do the expiry work: a vanished challenge key is an
// expired challenge, a vanished report key is a stale report.
type redisStore struct {
	cache *cache.CacheService
}

// NewRedisStore returns a ChallengeStore and ReportCache backed by Redis.
func NewRedisStore(c *cache.CacheService) *redisStore {
	return &redisStore{cache: c}
}

func challengeKey(subjectID string) string {
	return fmt.Sprintf("identity:challenge:%s", subjectID)
}

func resultKey(subjectID string) string {
	return fmt.Sprintf("identity:result:%s", subjectID)
}

func reportKey(subjectID string) string {
	return fmt.Sprintf("credit:report:%s", subjectID)
}

func (s *redisStore) PutChallenge(ctx context.Context, subjectID string, ch *IdentityChallenge, ttl time.Duration) error {
	return s.cache.SetWithTTL(ctx, challengeKey(subjectID), ch, ttl)
}

func (s *redisStore) GetChallenge(ctx context.Context, subjectID string) (*IdentityChallenge, bool, error) {
	var ch IdentityChallenge
	ok, err := s.cache.Get(ctx, challengeKey(subjectID), &ch)
	if err != nil || !ok {
		return nil, false, err
	}
	return &ch, true, nil
}

func (s *redisStore) DeleteChallenge(ctx context.Context, subjectID string) error {
	return s.cache.Delete(ctx, challengeKey(subjectID))
}

func (s *redisStore) PutResult(ctx context.Context, subjectID string, res *IdentityResult, ttl time.Duration) error {
	return s.cache.SetWithTTL(ctx, resultKey(subjectID), res, ttl)
}

func (s *redisStore) GetResult(ctx context.Context, subjectID string) (*IdentityResult, bool, error) {
	var res IdentityResult
	ok, err := s.cache.Get(ctx, resultKey(subjectID), &res)
	if err != nil || !ok {
		return nil, false, err
	}
	return &res, true, nil
}

func (s *redisStore) PutReport(ctx context.Context, subjectID string, report *CreditReport, ttl time.Duration) error {
	return s.cache.SetWithTTL(ctx, reportKey(subjectID), report, ttl)
}

func (s *redisStore) GetReport(ctx context.Context, subjectID string) (*CreditReport, bool, error) {
	var report CreditReport
	ok, err := s.cache.Get(ctx, reportKey(subjectID), &report)
	if err != nil || !ok {
		return nil, false, err
	}
	return &report, true, nil
}

// MemoryStore is an in-process ChallengeStore/ReportCache for tests and
// local runs without Redis.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     interface{}
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) put(key string, value interface{}, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}

func (s *MemoryStore) get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return entry.value, true
}

func (s *MemoryStore) PutChallenge(_ context.Context, subjectID string, ch *IdentityChallenge, ttl time.Duration) error {
	s.put(challengeKey(subjectID), ch, ttl)
	return nil
}

func (s *MemoryStore) GetChallenge(_ context.Context, subjectID string) (*IdentityChallenge, bool, error) {
	v, ok := s.get(challengeKey(subjectID))
	if !ok {
		return nil, false, nil
	}
	return v.(*IdentityChallenge), true, nil
}

func (s *MemoryStore) DeleteChallenge(_ context.Context, subjectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, challengeKey(subjectID))
	return nil
}

func (s *MemoryStore) PutResult(_ context.Context, subjectID string, res *IdentityResult, ttl time.Duration) error {
	s.put(resultKey(subjectID), res, ttl)
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, subjectID string) (*IdentityResult, bool, error) {
	v, ok := s.get(resultKey(subjectID))
	if !ok {
		return nil, false, nil
	}
	return v.(*IdentityResult), true, nil
}

func (s *MemoryStore) PutReport(_ context.Context, subjectID string, report *CreditReport, ttl time.Duration) error {
	s.put(reportKey(subjectID), report, ttl)
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, subjectID string) (*CreditReport, bool, error) {
	v, ok := s.get(reportKey(subjectID))
	if !ok {
		return nil, false, nil
	}
	return v.(*CreditReport), true, nil
}
