// Package history stores the cross-turn transcript of an iso. Completed
// turns are appended by the loop and replayed into prompts by the History
// adapter. Optional JSONL persistence keeps transcripts across restarts, one
// message object per line, appended incrementally.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hupe1980/isokit/core"
)

// Store is an in-memory transcript with optional JSONL file persistence.
type Store struct {
	mu       sync.RWMutex
	path     string
	messages []core.Message
}

// NewStore creates a history store. A non-empty path enables persistence;
// existing lines are loaded eagerly and every append is flushed to disk.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}
	if err := s.load(); err != nil {
		return nil, fmt.Errorf("history: load %s: %w", path, err)
	}
	return s, nil
}

// Append adds messages to the transcript in order.
func (s *Store) Append(messages ...core.Message) error {
	if len(messages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := s.appendFileLocked(messages); err != nil {
			return err
		}
	}
	s.messages = append(s.messages, messages...)
	return nil
}

// Recent returns up to n most recent messages in chronological order.
// n <= 0 returns the full transcript.
func (s *Store) Recent(n int) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && len(s.messages) > n {
		start = len(s.messages) - n
	}
	out := make([]core.Message, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out, nil
}

// Len returns the transcript length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var m core.Message
		if err := json.Unmarshal(line, &m); err != nil {
			return fmt.Errorf("corrupt line: %w", err)
		}
		s.messages = append(s.messages, m)
	}
	return scanner.Err()
}

// appendFileLocked writes messages as JSONL, one fsync'd batch per call so a
// cancelled turn cannot leave a torn record visible to the next load.
func (s *Store) appendFileLocked(messages []core.Message) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Sync()
}
