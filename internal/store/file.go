package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/hokm/internal/fileutil"
)

const fileExt = ".json"

// FileStore writes one JSON file per room into a directory. Writes are
// atomic so a crash never leaves a truncated snapshot.
type FileStore struct {
	dir    string
	ttl    time.Duration
	clock  quartz.Clock
	logger *log.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there
func NewFileStore(dir string, ttl time.Duration, clock quartz.Clock, logger *log.Logger) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("store directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{dir: dir, ttl: ttl, clock: clock, logger: logger.WithPrefix("store")}, nil
}

func (s *FileStore) path(code string) (string, error) {
	if code == "" || strings.ContainsAny(code, `/\.`) {
		return "", fmt.Errorf("invalid room code %q", code)
	}
	return filepath.Join(s.dir, code+fileExt), nil
}

func (s *FileStore) Save(_ context.Context, code string, snapshot []byte) error {
	path, err := s.path(code)
	if err != nil {
		return err
	}
	data, err := json.Marshal(newRecord(code, snapshot, s.clock.Now(), s.ttl))
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o600)
}

func (s *FileStore) Load(_ context.Context, code string) ([]byte, error) {
	path, err := s.path(code)
	if err != nil {
		return nil, err
	}
	rec, err := readRecord(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.Expired(s.clock.Now()) {
		s.logger.Debug("Dropping expired snapshot", "code", code)
		if err := fileutil.RemoveIfExists(path); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return rec.Snapshot, nil
}

func (s *FileStore) Delete(_ context.Context, code string) error {
	path, err := s.path(code)
	if err != nil {
		return err
	}
	return fileutil.RemoveIfExists(path)
}

// List returns unexpired codes and deletes expired or unreadable files.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read store directory: %w", err)
	}
	now := s.clock.Now()
	var codes []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		rec, err := readRecord(path)
		if err != nil {
			s.logger.Warn("Removing unreadable snapshot", "file", e.Name(), "error", err)
			_ = fileutil.RemoveIfExists(path)
			continue
		}
		if rec.Expired(now) {
			_ = fileutil.RemoveIfExists(path)
			continue
		}
		codes = append(codes, rec.Code)
	}
	slices.Sort(codes)
	return codes, nil
}

func readRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}
