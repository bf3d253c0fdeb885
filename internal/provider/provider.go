package provider

import (
	"context"
	"fmt"
	"regexp"

	"github.com/xaenox/chat-analyzer/internal/models"
)

// Adapter maps the provider-neutral analysis request onto one provider
// family's wire format and maps the response back. The credential is resolved
// by the caller and passed per invocation; adapters hold no secrets.
type Adapter interface {
	Name() string
	Invoke(ctx context.Context, apiKey string, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Registry routes a configured model name to a provider adapter. Routing is a
// pure function of the model name: the first matching rule wins, otherwise the
// fallback provider is used. Adding a provider means registering one adapter
// and one rule here; callers never branch on provider names.
type Registry struct {
	rules      []rule
	adapters   map[string]Adapter
	fallbackID string
}

type rule struct {
	pattern    *regexp.Regexp
	providerID string
}

func NewRegistry(fallbackID string) *Registry {
	return &Registry{
		adapters:   make(map[string]Adapter),
		fallbackID: fallbackID,
	}
}

func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

func (r *Registry) AddRule(pattern, providerID string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid routing pattern %q: %w", pattern, err)
	}
	r.rules = append(r.rules, rule{pattern: re, providerID: providerID})
	return nil
}

// ProviderFor returns the provider id the model name routes to.
func (r *Registry) ProviderFor(model string) string {
	for _, ru := range r.rules {
		if ru.pattern.MatchString(model) {
			return ru.providerID
		}
	}
	return r.fallbackID
}

// Route resolves the adapter for a model name.
func (r *Registry) Route(model string) (Adapter, error) {
	id := r.ProviderFor(model)
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider %q (model %q)", id, model)
	}
	return a, nil
}
