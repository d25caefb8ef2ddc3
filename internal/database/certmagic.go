package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"time"

	"github.com/caddyserver/certmagic"
)

// CertStorage implements certmagic.Storage on top of the application
// database so that certificates survive restarts without a data directory.
type CertStorage struct {
	db *DB

	mu    sync.Mutex
	locks map[string]chan struct{}
}

var _ certmagic.Storage = (*CertStorage)(nil)

// NewCertStorage creates a new CertStorage instance
func NewCertStorage(db *DB) *CertStorage {
	return &CertStorage{db: db, locks: make(map[string]chan struct{})}
}

// Store saves data to the database
func (s *CertStorage) Store(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO certificates (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`), key, value)
	return err
}

// Load retrieves data from the database
func (s *CertStorage) Load(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT value FROM certificates WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fs.ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Delete removes a key and everything below it
func (s *CertStorage) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM certificates WHERE key = ? OR key LIKE ?"),
		key, strings.TrimSuffix(key, "/")+"/%")
	return err
}

// Exists checks if a key exists
func (s *CertStorage) Exists(ctx context.Context, key string) bool {
	var count int
	err := s.db.GetContext(ctx, &count, s.db.Rebind("SELECT COUNT(*) FROM certificates WHERE key = ?"), key)
	return err == nil && count > 0
}

// List returns the keys below prefix. Without recursion only the
// immediate children are returned, as a directory listing would.
func (s *CertStorage) List(ctx context.Context, prefix string, recursive bool) ([]string, error) {
	dir := strings.TrimSuffix(prefix, "/")
	var keys []string
	err := s.db.SelectContext(ctx, &keys,
		s.db.Rebind("SELECT key FROM certificates WHERE key LIKE ? ORDER BY key"), dir+"/%")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fs.ErrNotExist
	}
	if recursive {
		return keys, nil
	}

	seen := make(map[string]bool)
	var children []string
	for _, key := range keys {
		rel := strings.TrimPrefix(key, dir+"/")
		if idx := strings.Index(rel, "/"); idx != -1 {
			rel = rel[:idx]
		}
		child := dir + "/" + rel
		if !seen[child] {
			seen[child] = true
			children = append(children, child)
		}
	}
	return children, nil
}

// Stat returns information about a key
func (s *CertStorage) Stat(ctx context.Context, key string) (certmagic.KeyInfo, error) {
	var row struct {
		Size     int64     `db:"size"`
		Modified time.Time `db:"updated_at"`
	}
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT length(value) AS size, updated_at FROM certificates WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		if children, lerr := s.List(ctx, key, false); lerr == nil && len(children) > 0 {
			return certmagic.KeyInfo{Key: key, IsTerminal: false}, nil
		}
		return certmagic.KeyInfo{}, fs.ErrNotExist
	}
	if err != nil {
		return certmagic.KeyInfo{}, err
	}

	return certmagic.KeyInfo{
		Key:        key,
		Modified:   row.Modified,
		Size:       row.Size,
		IsTerminal: true,
	}, nil
}

// Lock acquires an in-process lock for name, waiting until it is free or
// ctx is done. Only one server instance is expected per database.
func (s *CertStorage) Lock(ctx context.Context, name string) error {
	for {
		s.mu.Lock()
		held, ok := s.locks[name]
		if !ok {
			s.locks[name] = make(chan struct{})
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		select {
		case <-held:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Unlock releases the lock for name
func (s *CertStorage) Unlock(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	held, ok := s.locks[name]
	if !ok {
		return errors.New("lock not held: " + name)
	}
	close(held)
	delete(s.locks, name)
	return nil
}
