// Package facts implements the append-only fact store backing the Facts
// context adapter. Records are optionally persisted as a YAML document so an
// iso's accumulated facts survive process restarts.
package facts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/isokit/core"
)

// file is the on-disk YAML document shape.
type file struct {
	Facts []core.Fact `yaml:"facts"`
}

// Store is a YAML-persisted append-only fact store with supersession.
// When constructed without a path it behaves as a volatile in-memory store.
//
// Concurrency: guarded by an RWMutex. The owning iso's loop is the single
// writer; adapters read concurrently through Recent.
type Store struct {
	mu    sync.RWMutex
	path  string
	facts []core.Fact
}

// NewStore creates a fact store. If path is non-empty the store loads any
// existing YAML document at that location and saves after every mutation;
// missing files are created lazily on first write.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("facts: load %s: %w", path, err)
	}
	return s, nil
}

// Append stores a new fact unless an identical non-superseded text already
// exists, in which case the existing record is returned unchanged.
func (s *Store) Append(text, source string) (core.Fact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, f := range s.facts {
		if !f.Superseded && strings.ToLower(strings.TrimSpace(f.Text)) == normalized {
			return f, nil
		}
	}

	fact := core.NewFact(text, source)
	s.facts = append(s.facts, fact)
	if err := s.saveLocked(); err != nil {
		// roll back the in-memory append so a failed write is not half-applied
		s.facts = s.facts[:len(s.facts)-1]
		return core.Fact{}, err
	}
	return fact, nil
}

// MarkSuperseded flags a fact so Recent no longer returns it.
func (s *Store) MarkSuperseded(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.facts {
		if s.facts[i].ID == id {
			if s.facts[i].Superseded {
				return nil
			}
			s.facts[i].Superseded = true
			if err := s.saveLocked(); err != nil {
				s.facts[i].Superseded = false
				return err
			}
			return nil
		}
	}
	return fmt.Errorf("facts: %w: %s", core.ErrNotFound, id)
}

// Recent returns up to limit non-superseded facts, newest first. A limit of
// zero or less means no cap.
func (s *Store) Recent(limit int) ([]core.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := make([]core.Fact, 0, len(s.facts))
	for i := len(s.facts) - 1; i >= 0; i-- {
		if s.facts[i].Superseded {
			continue
		}
		recent = append(recent, s.facts[i])
		if limit > 0 && len(recent) >= limit {
			break
		}
	}
	return recent, nil
}

// All returns every fact including superseded ones, in insertion order.
func (s *Store) All() ([]core.Fact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]core.Fact, len(s.facts))
	copy(all, s.facts)
	return all, nil
}

// load reads the YAML document if it exists. Idempotent: loading the output
// of saveLocked reproduces the same record slice.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	s.facts = doc.Facts
	return nil
}

// saveLocked writes the full document atomically (temp file + rename) so a
// cancelled turn never leaves a torn file. Caller must hold the write lock.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(file{Facts: s.facts})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
