package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papercomputeco/igw/pkg/llm"
)

const (
	chatFile = "chat.json"
)

// LoadChat loads the saved chat transcript from .igw/chat.json.
// Returns nil, nil if no transcript has been saved.
func (m *Manager) LoadChat(overrideDir string) (*llm.Conversation, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, chatFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading chat transcript: %w", err)
	}

	conv := &llm.Conversation{}
	if err := json.Unmarshal(data, conv); err != nil {
		return nil, fmt.Errorf("parsing chat transcript: %w", err)
	}

	return conv, nil
}

// SaveChat writes conv to .igw/chat.json, replacing any earlier transcript.
func (m *Manager) SaveChat(conv *llm.Conversation, overrideDir string) error {
	if conv == nil {
		return errors.New("cannot save nil conversation")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling chat transcript: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, chatFile), data, 0o600); err != nil {
		return fmt.Errorf("writing chat transcript: %w", err)
	}

	return nil
}

// ClearChat removes the saved transcript so the next session starts fresh.
// Returns nil if there is nothing to remove.
func (m *Manager) ClearChat(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(dir, chatFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing chat transcript: %w", err)
	}

	return nil
}
