package editing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists edit sessions in Redis for the lifetime of one editing
// flow. Sessions are JSON under a uuid key with a TTL refreshed on every
// write; a second short-lived key per session serializes saves.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store with the given session lifetime.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// TTL exposes the configured session lifetime.
func (st *Store) TTL() time.Duration {
	return st.ttl
}

func sessionKey(id string) string {
	return "editsess:" + id
}

func saveLockKey(id string) string {
	return "editsess:" + id + ":save"
}

// Put writes the session, stamps its activity time, and refreshes the TTL.
func (st *Store) Put(ctx context.Context, sess *Session) error {
	sess.Touch()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := st.client.Set(ctx, sessionKey(sess.ID), data, st.ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get loads a session by id. Expired and unknown ids both come back as
// ErrSessionNotFound.
func (st *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := st.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Delete discards a session together with its save lock.
func (st *Store) Delete(ctx context.Context, id string) error {
	if err := st.client.Del(ctx, sessionKey(id), saveLockKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AcquireSaveLock marks a save in flight for the session. ErrSaveInFlight
// comes back while another save holds the lock. The lock expires on its
// own should the holder die mid-save.
func (st *Store) AcquireSaveLock(ctx context.Context, id string, ttl time.Duration) error {
	ok, err := st.client.SetNX(ctx, saveLockKey(id), "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire save lock: %w", err)
	}
	if !ok {
		return ErrSaveInFlight
	}
	return nil
}

// ReleaseSaveLock clears the save marker.
func (st *Store) ReleaseSaveLock(ctx context.Context, id string) error {
	if err := st.client.Del(ctx, saveLockKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release save lock: %w", err)
	}
	return nil
}

// SaveInFlight checks if a save lock is currently held for the session.
func (st *Store) SaveInFlight(ctx context.Context, id string) (bool, error) {
	n, err := st.client.Exists(ctx, saveLockKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check save lock: %w", err)
	}
	return n > 0, nil
}

// IdleSessions scans for sessions whose last activity is older than the
// cutoff and returns their ids, at most limit when limit > 0. The sweep
// job uses this to reclaim abandoned sessions early; the absolute TTL
// remains the backstop.
func (st *Store) IdleSessions(ctx context.Context, cutoff time.Duration, limit int) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	now := time.Now().UTC()
	for {
		keys, next, err := st.client.Scan(ctx, cursor, sessionKey("*"), 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}
		for _, key := range keys {
			if strings.HasSuffix(key, ":save") {
				continue
			}
			sess, err := st.Get(ctx, strings.TrimPrefix(key, "editsess:"))
			if err != nil {
				continue
			}
			if sess.IdleSince(now) >= cutoff {
				ids = append(ids, sess.ID)
				if limit > 0 && len(ids) >= limit {
					return ids, nil
				}
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}
