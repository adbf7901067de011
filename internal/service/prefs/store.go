// Package prefs persists the user's tone question in a TOML file.
package prefs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"tone-monitor-service/internal/service/tone"
)

// PromptKey is the key of the custom question in the preference file.
const PromptKey = "agreeable_prompt"

type fileData struct {
	AgreeablePrompt string `toml:"agreeable_prompt,omitempty"`
}

// Store holds the custom tone question. Reads fall back to
// tone.DefaultQuestion when no custom question is set.
type Store struct {
	path string

	mu        sync.RWMutex
	custom    string
	listeners []func(prompt string)
}

// Open loads the preference file at path. A missing file is an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	var fd fileData
	if _, err := toml.DecodeFile(path, &fd); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read preferences %s: %w", path, err)
		}
	}
	s.custom = strings.TrimSpace(fd.AgreeablePrompt)
	return s, nil
}

// Path returns the preference file location.
func (s *Store) Path() string {
	return s.path
}

// Prompt returns the question to ask the classifier.
func (s *Store) Prompt() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.custom == "" {
		return tone.DefaultQuestion
	}
	return s.custom
}

// Custom returns the user's question and whether one is set.
func (s *Store) Custom() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.custom, s.custom != ""
}

// SetPrompt stores a trimmed question. An empty question clears the override.
func (s *Store) SetPrompt(prompt string) error {
	return s.update(strings.TrimSpace(prompt))
}

// ResetPrompt removes the custom question.
func (s *Store) ResetPrompt() error {
	return s.update("")
}

// Subscribe registers fn to be called with the effective question after
// every SetPrompt or ResetPrompt.
func (s *Store) Subscribe(fn func(prompt string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) update(custom string) error {
	s.mu.Lock()
	if err := s.save(custom); err != nil {
		s.mu.Unlock()
		return err
	}
	s.custom = custom
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	effective := s.Prompt()
	for _, fn := range listeners {
		fn(effective)
	}
	return nil
}

// save writes the file atomically. Caller holds s.mu.
func (s *Store) save(custom string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".preferences-*.toml")
	if err != nil {
		return fmt.Errorf("create preferences file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(fileData{AgreeablePrompt: custom}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace preferences: %w", err)
	}
	return nil
}
