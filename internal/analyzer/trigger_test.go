package analyzer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaenox/chat-analyzer/internal/models"
)

func TestTriggerCollapsesBursts(t *testing.T) {
	adapter := &fakeAdapter{invoke: func(ctx context.Context, _ string, _ *models.AnalysisRequest) (*models.AnalysisResult, error) {
		return okResult(), nil
	}}
	a, store := newTestAnalyzer(t, mapSource{"c1": twoPlusTwoConversation()}, adapter)

	trigger := NewTrigger(a, 50*time.Millisecond, a.logger)

	signals := make(chan Signal)
	done := make(chan struct{})
	go func() {
		trigger.Run(context.Background(), signals)
		close(done)
	}()

	// A bursty watcher fires the signal many times in quick succession.
	for i := 0; i < 5; i++ {
		signals <- Signal{ConversationID: "c1"}
		time.Sleep(5 * time.Millisecond)
	}
	close(signals)
	<-done

	assert.Equal(t, 1, adapter.callCount())
	reports, err := store.ListFor(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestTriggerHandlesConversationsIndependently(t *testing.T) {
	adapter := &fakeAdapter{invoke: func(ctx context.Context, _ string, _ *models.AnalysisRequest) (*models.AnalysisResult, error) {
		return okResult(), nil
	}}
	source := mapSource{
		"c1": twoPlusTwoConversation(),
		"c2": twoPlusTwoConversation(),
	}
	a, store := newTestAnalyzer(t, source, adapter)

	trigger := NewTrigger(a, 20*time.Millisecond, a.logger)

	signals := make(chan Signal)
	done := make(chan struct{})
	go func() {
		trigger.Run(context.Background(), signals)
		close(done)
	}()

	signals <- Signal{ConversationID: "c1"}
	signals <- Signal{ConversationID: "c2"}
	close(signals)
	<-done

	for _, id := range []string{"c1", "c2"} {
		reports, err := store.ListFor(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, reports, 1, "conversation %s", id)
	}
}

func TestTriggerSkipsAnalyzedConversations(t *testing.T) {
	adapter := &fakeAdapter{invoke: func(ctx context.Context, _ string, _ *models.AnalysisRequest) (*models.AnalysisResult, error) {
		return okResult(), nil
	}}
	a, store := newTestAnalyzer(t, mapSource{"c1": twoPlusTwoConversation()}, adapter)

	// The round was already analyzed once.
	_, err := a.Analyze(context.Background(), "c1", false)
	require.NoError(t, err)

	trigger := NewTrigger(a, 20*time.Millisecond, a.logger)
	signals := make(chan Signal)
	done := make(chan struct{})
	go func() {
		trigger.Run(context.Background(), signals)
		close(done)
	}()

	signals <- Signal{ConversationID: "c1"}
	close(signals)
	<-done

	// Auto mode is a pure read for analyzed conversations: no extra call,
	// no extra report.
	assert.Equal(t, 1, adapter.callCount())
	reports, _ := store.ListFor(context.Background(), "c1")
	assert.Len(t, reports, 1)
}

func TestTriggerStopsOnContextCancel(t *testing.T) {
	adapter := &fakeAdapter{invoke: func(ctx context.Context, _ string, _ *models.AnalysisRequest) (*models.AnalysisResult, error) {
		return okResult(), nil
	}}
	a, store := newTestAnalyzer(t, mapSource{"c1": twoPlusTwoConversation()}, adapter)

	trigger := NewTrigger(a, time.Hour, a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan Signal, 1)
	signals <- Signal{ConversationID: "c1"}

	done := make(chan struct{})
	go func() {
		trigger.Run(ctx, signals)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("trigger did not stop on cancel")
	}

	reports, _ := store.ListFor(context.Background(), "c1")
	assert.Empty(t, reports)
}
