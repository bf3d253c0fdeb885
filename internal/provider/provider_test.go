package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/chat-analyzer/internal/models"
	"go.uber.org/zap"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	logger := zap.NewNop()

	r := NewRegistry("openai")
	r.Register(NewChatCompletionAdapter("openai", "", 30*time.Second, logger))
	r.Register(NewChatCompletionAdapter("xai", "https://api.x.ai/v1", 30*time.Second, logger))
	r.Register(NewGenerateAdapter("gemini", "", 30*time.Second, logger))
	require.NoError(t, r.AddRule(`(?i)^xai`, "xai"))
	require.NoError(t, r.AddRule(`(?i)gemini`, "gemini"))
	return r
}

func TestRegistryRouting(t *testing.T) {
	r := testRegistry(t)

	cases := map[string]string{
		"gpt-4o":               "openai",
		"o3-mini":              "openai",
		"xai/grok-3":           "xai",
		"XAI-grok-beta":        "xai",
		"gemini-2.0-flash":     "gemini",
		"models/Gemini-pro":    "gemini",
		"grok-but-not-prefixed": "openai",
	}
	for model, want := range cases {
		assert.Equal(t, want, r.ProviderFor(model), "model %q", model)
	}
}

func TestRegistryRouteIsDeterministic(t *testing.T) {
	r := testRegistry(t)

	first, err := r.Route("gemini-2.0-flash")
	require.NoError(t, err)
	second, err := r.Route("gemini-2.0-flash")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry("openai")
	require.NoError(t, r.AddRule(`^x`, "unregistered"))

	_, err := r.Route("x-model")
	assert.Error(t, err)
}

func TestRegistryRejectsBadPattern(t *testing.T) {
	r := NewRegistry("openai")
	assert.Error(t, r.AddRule(`(`, "openai"))
}

func TestAdaptersRequireCredential(t *testing.T) {
	logger := zap.NewNop()
	req := &models.AnalysisRequest{Model: "gpt-4o", SystemPrompt: "s", UserContent: "u"}

	adapters := []Adapter{
		NewChatCompletionAdapter("openai", "", time.Second, logger),
		NewGenerateAdapter("gemini", "", time.Second, logger),
	}
	for _, a := range adapters {
		_, err := a.Invoke(context.Background(), "", req)
		var missing *MissingCredentialError
		assert.ErrorAs(t, err, &missing, "adapter %s", a.Name())
	}
}
