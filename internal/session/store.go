package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/approvalflow/workflow-client/internal/session/model"
)

// ErrNoSession is returned by Load when nothing has been persisted
var ErrNoSession = errors.New("no persisted session")

// Snapshot is the persisted form of an authenticated session
type Snapshot struct {
	Token     string         `yaml:"token"`
	Identity  model.Identity `yaml:"identity"`
	ExpiresAt time.Time      `yaml:"expires_at,omitempty"`
	SavedAt   time.Time      `yaml:"saved_at"`
}

// Store persists session snapshots between runs
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	Delete(ctx context.Context) error
}

// FileStore keeps one session snapshot in a YAML file guarded by an advisory
// lock on a sibling ".lock" file, so concurrent CLI invocations never read a
// half written snapshot.
type FileStore struct {
	path        string
	lockTimeout time.Duration
	fileLock    *flock.Flock
	mu          sync.Mutex
}

// NewFileStore creates a store for path. A leading "~" is expanded to the home directory.
func NewFileStore(path string, lockTimeout time.Duration) (*FileStore, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	return &FileStore{
		path:        expanded,
		lockTimeout: lockTimeout,
		fileLock:    flock.New(expanded + ".lock"),
	}, nil
}

// Path returns the snapshot file location
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the persisted snapshot. It returns ErrNoSession when no file exists.
func (s *FileStore) Load(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, ErrNoSession
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrNoSession
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	if snapshot.Token == "" {
		return nil, fmt.Errorf("session file has no token")
	}
	return &snapshot, nil
}

// Save writes the snapshot, replacing any previous one
func (s *FileStore) Save(ctx context.Context, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	data, err := yaml.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// Delete removes the persisted snapshot. Deleting a missing snapshot is not an error.
func (s *FileStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

func (s *FileStore) lock(ctx context.Context) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	locked, err := s.fileLock.TryLockContext(lockCtx, 50*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire session lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("could not acquire session lock")
	}
	return func() { _ = s.fileLock.Unlock() }, nil
}

func expandHome(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("session file path is required")
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
