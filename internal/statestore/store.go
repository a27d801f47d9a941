// Package statestore owns every byte written under the state/
// directory. The enforcement record is mutated only through Mutate,
// which serializes writers with an exclusive advisory lock and makes
// each write atomic with a temp-file rename: a crash mid-transition
// leaves either the old document or the new one, never a torn file.
package statestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/cadence-flow/cadence/internal/clock"
	"github.com/cadence-flow/cadence/internal/enforcement"
)

const (
	enforcementFile = "enforcement.json"
	lockFile        = "enforcement.json.lock"

	// DefaultLockTimeout bounds how long a command waits for the
	// advisory lock before giving up.
	DefaultLockTimeout = 3 * time.Second

	lockRetryInterval = 50 * time.Millisecond
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("statestore: document not found")

// ErrLockTimeout is returned when the advisory lock cannot be acquired
// within the timeout. Fatal for the invocation: acting on state that
// another process may be mid-way through mutating is worse than
// failing the command.
var ErrLockTimeout = errors.New("statestore: timed out waiting for state lock")

// Store persists the enforcement record and the transient session
// documents for one cadence directory.
type Store struct {
	dir         string
	clock       clock.Clock
	lockTimeout time.Duration
}

// Option customizes Store construction.
type Option func(*Store)

// WithClock injects a clock, used by tests to control lock waits.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLockTimeout overrides the advisory-lock timeout.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// New creates a store rooted at the given state directory.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:         dir,
		clock:       clock.Real(),
		lockTimeout: DefaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the state directory backing this store.
func (s *Store) Dir() string { return s.dir }

// Mutate runs fn inside an exclusive lock over the enforcement record:
// load, transform, save. If fn returns an error the on-disk record is
// left untouched. A missing record starts from the initial state.
func (s *Store) Mutate(fn func(*enforcement.State) error) error {
	return s.withLock(func() error {
		state, err := s.loadEnforcement()
		if err != nil {
			return err
		}
		if err := fn(&state); err != nil {
			return err
		}
		return s.saveEnforcement(state)
	})
}

// View runs fn with a read snapshot of the enforcement record under
// the same lock, without writing anything back.
func (s *Store) View(fn func(enforcement.State) error) error {
	return s.withLock(func() error {
		state, err := s.loadEnforcement()
		if err != nil {
			return err
		}
		return fn(state)
	})
}

func (s *Store) loadEnforcement() (enforcement.State, error) {
	path := filepath.Join(s.dir, enforcementFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return enforcement.NewState(), nil
		}
		return enforcement.State{}, fmt.Errorf("statestore: read %s: %w", path, err)
	}
	var state enforcement.State
	if err := json.Unmarshal(data, &state); err != nil {
		return enforcement.State{}, fmt.Errorf("statestore: parse %s: %w", path, err)
	}
	if err := state.Validate(); err != nil {
		return enforcement.State{}, fmt.Errorf("statestore: %s: %w", path, err)
	}
	return state, nil
}

func (s *Store) saveEnforcement(state enforcement.State) error {
	return s.writeAtomic(enforcementFile, state)
}

// withLock acquires the exclusive advisory lock, retrying until the
// timeout, then runs fn while holding it.
func (s *Store) withLock(fn func() error) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("statestore: ensure state dir: %w", err)
	}
	path := filepath.Join(s.dir, lockFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("statestore: open lock file: %w", err)
	}
	defer file.Close()

	deadline := s.clock.Now().Add(s.lockTimeout)
	for {
		err := unix.Flock(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			return fmt.Errorf("statestore: acquire lock: %w", err)
		}
		if !s.clock.Now().Before(deadline) {
			return ErrLockTimeout
		}
		s.clock.Sleep(lockRetryInterval)
	}
	defer unix.Flock(int(file.Fd()), unix.LOCK_UN)

	return fn()
}

// LoadDoc reads a named JSON document from the state directory.
func (s *Store) LoadDoc(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("statestore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("statestore: parse %s: %w", path, err)
	}
	return nil
}

// SaveDoc writes a named JSON document atomically.
func (s *Store) SaveDoc(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("statestore: ensure state dir: %w", err)
	}
	return s.writeAtomic(name, v)
}

// RemoveDoc deletes a named document. Removing a document that does
// not exist is not an error.
func (s *Store) RemoveDoc(name string) error {
	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("statestore: remove %s: %w", path, err)
	}
	return nil
}

// HasDoc reports whether a named document exists.
func (s *Store) HasDoc(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.dir, name))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("statestore: stat %s: %w", name, err)
}

// writeAtomic marshals v and renames a temp file over the target so a
// crash between the two steps never produces a partial document.
func (s *Store) writeAtomic(name string, v any) error {
	path := filepath.Join(s.dir, name)
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("statestore: encode %s: %w", name, err)
	}
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("statestore: create temp for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(append(encoded, '\n')); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("statestore: write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("statestore: sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("statestore: close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("statestore: replace %s: %w", name, err)
	}
	return nil
}
