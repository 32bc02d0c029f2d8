package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"penpal/utils"
)

type sessionRecord struct {
	Value     []byte `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix nanoseconds, 0 never expires
}

// SessionStorage keeps fiber sessions in the Sessions bucket. It
// implements fiber.Storage.
type SessionStorage struct {
	db   *bbolt.DB
	now  func() time.Time
	stop chan struct{}
	once sync.Once
}

// NewSessionStorage creates the storage. Expired sessions are removed
// every gcInterval; zero disables the background sweep.
func NewSessionStorage(db *bbolt.DB, gcInterval time.Duration) *SessionStorage {
	s := &SessionStorage{
		db:   db,
		now:  time.Now,
		stop: make(chan struct{}),
	}
	if gcInterval > 0 {
		go s.gcLoop(gcInterval)
	}
	return s
}

// Get returns the session data for key, or nil when it is missing or
// expired
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(SessionsBucket)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var rec sessionRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("failed to decode session %s: %w", key, err)
		}
		if rec.expired(s.now()) {
			return nil
		}
		value = rec.Value
		return nil
	})
	return value, err
}

// Set stores val under key for exp; zero exp keeps it until deleted
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	rec := sessionRecord{Value: val}
	if exp > 0 {
		rec.ExpiresAt = s.now().Add(exp).UnixNano()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SessionsBucket)).Put([]byte(key), data)
	})
}

// Delete removes key
func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SessionsBucket)).Delete([]byte(key))
	})
}

// Reset removes every session
func (s *SessionStorage) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(SessionsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(SessionsBucket))
		return err
	})
}

// Close stops the background sweep. The database stays open.
func (s *SessionStorage) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *SessionStorage) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n, err := s.gc(); err != nil {
				utils.Log.Error("session cleanup failed: %v", err)
			} else if n > 0 {
				utils.Log.Debug("removed %d expired sessions", n)
			}
		case <-s.stop:
			return
		}
	}
}

// gc deletes expired sessions and returns how many were removed
func (s *SessionStorage) gc() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(SessionsBucket))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var rec sessionRecord
			if json.Unmarshal(v, &rec) != nil || rec.expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

func (r sessionRecord) expired(now time.Time) bool {
	return r.ExpiresAt != 0 && now.UnixNano() >= r.ExpiresAt
}
