// Package task implements the ordered task list with monotonic status
// transitions. Like the fact store it persists to a YAML document so task
// state survives restarts.
package task

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/isokit/core"
)

// file is the on-disk YAML document shape.
type file struct {
	Tasks []core.Task `yaml:"tasks"`
}

// Store is a YAML-persisted ordered task store. Construction without a path
// yields a volatile in-memory store.
type Store struct {
	mu    sync.RWMutex
	path  string
	tasks []core.Task
}

// NewStore creates a task store, loading any existing document at path.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("task: load %s: %w", path, err)
	}
	return s, nil
}

// Add appends a pending task. An open task with the same description is
// treated as a duplicate and returned unchanged.
func (s *Store) Add(description string) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized := strings.ToLower(strings.TrimSpace(description))
	for _, t := range s.tasks {
		if t.Open() && strings.ToLower(strings.TrimSpace(t.Description)) == normalized {
			return t, nil
		}
	}

	t := core.NewTask(description)
	s.tasks = append(s.tasks, t)
	if err := s.saveLocked(); err != nil {
		s.tasks = s.tasks[:len(s.tasks)-1]
		return core.Task{}, err
	}
	return t, nil
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return core.Task{}, fmt.Errorf("task: %w: %s", core.ErrNotFound, id)
}

// Transition moves a task to the given status. Regressions and transitions
// out of a terminal status fail with core.ErrInvalidTaskTransition and leave
// the store unchanged.
func (s *Store) Transition(id string, status core.TaskStatus) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Task{}, fmt.Errorf("task: %w: %s", core.ErrNotFound, id)
	}

	current := s.tasks[idx]
	if !current.Status.CanTransitionTo(status) {
		return core.Task{}, fmt.Errorf("task %s: %w: %s -> %s", id, core.ErrInvalidTaskTransition, current.Status, status)
	}
	if current.Status == status {
		return current, nil
	}

	return s.mutateLocked(idx, func(t *core.Task) { t.Status = status })
}

// EditDescription rewrites a task's description in place.
func (s *Store) EditDescription(id, description string) (core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Task{}, fmt.Errorf("task: %w: %s", core.ErrNotFound, id)
	}
	return s.mutateLocked(idx, func(t *core.Task) { t.Description = description })
}

// Delete removes a task from the list.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("task: %w: %s", core.ErrNotFound, id)
	}
	removed := s.tasks[idx]
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	if err := s.saveLocked(); err != nil {
		s.tasks = append(s.tasks[:idx], append([]core.Task{removed}, s.tasks[idx:]...)...)
		return err
	}
	return nil
}

// List returns all tasks in insertion order.
func (s *Store) List() ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]core.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks, nil
}

func (s *Store) indexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// mutateLocked applies fn to the task at idx, bumps UpdatedAt, and persists.
// On a failed save the previous record is restored so writes stay atomic at
// the record level.
func (s *Store) mutateLocked(idx int, fn func(*core.Task)) (core.Task, error) {
	prev := s.tasks[idx]
	fn(&s.tasks[idx])
	s.tasks[idx].UpdatedAt = nowUTC()
	if err := s.saveLocked(); err != nil {
		s.tasks[idx] = prev
		return core.Task{}, err
	}
	return s.tasks[idx], nil
}

func nowUTC() time.Time { return time.Now().UTC() }

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
	s.tasks = doc.Tasks
	return nil
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := yaml.Marshal(file{Tasks: s.tasks})
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
