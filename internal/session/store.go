// Package session keeps per-tenant conversation state in redis: a liveness
// record per issued session and a bounded history list per (company, session).
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	redisv9 "github.com/redis/go-redis/v9"
)

// Entry is one conversation turn half.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Store struct {
	client     *redisv9.Client
	window     int
	sessionTTL time.Duration
	historyTTL time.Duration
}

func NewStore(client *redisv9.Client, window int, sessionTTL, historyTTL time.Duration) *Store {
	if window <= 0 {
		window = 10
	}
	if sessionTTL <= 0 {
		sessionTTL = 2 * time.Hour
	}
	if historyTTL <= 0 {
		historyTTL = 24 * time.Hour
	}
	return &Store{
		client:     client,
		window:     window,
		sessionTTL: sessionTTL,
		historyTTL: historyTTL,
	}
}

// Create mints a new session id and writes its liveness record.
func (s *Store) Create(ctx context.Context, companyID uint) (string, error) {
	sessionID := uuid.NewString()
	key := s.sessionKey(companyID, sessionID)
	if err := s.client.Set(ctx, key, time.Now().Unix(), s.sessionTTL).Err(); err != nil {
		return "", fmt.Errorf("redis create session failed: %w", err)
	}
	return sessionID, nil
}

// IsLive reports whether the session record still exists, independent of the
// cryptographic expiry of any token carrying the session id.
func (s *Store) IsLive(ctx context.Context, companyID uint, sessionID string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.sessionKey(companyID, sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check session failed: %w", err)
	}
	return exists > 0, nil
}

// AppendHistory appends entries and trims the list to the most recent window
// in one transactional pipeline, so a concurrent append on the same session
// cannot interleave between the append and the trim.
func (s *Store) AppendHistory(ctx context.Context, companyID uint, sessionID string, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	key := s.historyKey(companyID, sessionID)

	payloads := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal history entry failed: %w", err)
		}
		payloads = append(payloads, raw)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payloads...)
	pipe.LTrim(ctx, key, int64(-s.window), -1)
	pipe.Expire(ctx, key, s.historyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis append history failed: %w", err)
	}
	return nil
}

// LoadHistory returns the stored window, oldest first.
func (s *Store) LoadHistory(ctx context.Context, companyID uint, sessionID string) ([]Entry, error) {
	key := s.historyKey(companyID, sessionID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load history failed: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("unmarshal history entry failed: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) sessionKey(companyID uint, sessionID string) string {
	return fmt.Sprintf("chat:session:%d:%s", companyID, sessionID)
}

func (s *Store) historyKey(companyID uint, sessionID string) string {
	return fmt.Sprintf("chat:history:%d:%s", companyID, sessionID)
}
