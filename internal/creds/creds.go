package creds

import (
	"context"
	"sync"

	"github.com/xaenox/chat-analyzer/internal/provider"
)

// Source resolves the API credential for a provider.
type Source interface {
	Get(ctx context.Context, providerID string) (string, error)
}

// Prompter obtains a credential out-of-band when none is stored, e.g. by
// asking the user on the terminal.
type Prompter func(providerID string) (string, error)

// ConfigSource serves credentials seeded from configuration. On a miss it
// asks the Prompter, if one is set, and remembers the answer for later calls;
// without a Prompter a miss is a hard MissingCredentialError.
type ConfigSource struct {
	mu       sync.RWMutex
	keys     map[string]string
	prompter Prompter
}

func NewConfigSource(keys map[string]string, prompter Prompter) *ConfigSource {
	if keys == nil {
		keys = make(map[string]string)
	}
	return &ConfigSource{keys: keys, prompter: prompter}
}

func (s *ConfigSource) Get(ctx context.Context, providerID string) (string, error) {
	s.mu.RLock()
	key := s.keys[providerID]
	s.mu.RUnlock()
	if key != "" {
		return key, nil
	}

	if s.prompter == nil {
		return "", &provider.MissingCredentialError{Provider: providerID}
	}

	key, err := s.prompter(providerID)
	if err != nil || key == "" {
		return "", &provider.MissingCredentialError{Provider: providerID}
	}

	s.mu.Lock()
	s.keys[providerID] = key
	s.mu.Unlock()
	return key, nil
}
