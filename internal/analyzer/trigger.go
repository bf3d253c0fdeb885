package analyzer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Signal reports that a generation round finished for a conversation. How the
// signal is produced (DOM observation, polling, webhooks) is the emitter's
// concern; the trigger only sees the event.
type Signal struct {
	ConversationID string
}

const defaultDebounceWindow = 1500 * time.Millisecond

// Trigger collapses bursts of round-complete signals into at most one
// automatic analysis per conversation, fired once the burst has settled.
// Failures are logged and never retried; a failed run is re-triggered
// explicitly or not at all.
type Trigger struct {
	analyzer *Analyzer
	window   time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

func NewTrigger(a *Analyzer, window time.Duration, logger *zap.Logger) *Trigger {
	if window <= 0 {
		window = defaultDebounceWindow
	}
	return &Trigger{
		analyzer: a,
		window:   window,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
	}
}

// Run consumes signals until the channel closes or the context ends. A closed
// channel lets already-settled bursts fire before returning; a canceled
// context drops them.
func (t *Trigger) Run(ctx context.Context, signals <-chan Signal) {
	defer t.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			t.cancelPending()
			return
		case sig, ok := <-signals:
			if !ok {
				return
			}
			t.schedule(ctx, sig.ConversationID)
		}
	}
}

func (t *Trigger) schedule(ctx context.Context, conversationID string) {
	if conversationID == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Still inside the burst: drop the old deadline and start a fresh one.
	if old, ok := t.pending[conversationID]; ok {
		if old.Stop() {
			t.wg.Done()
		}
		delete(t.pending, conversationID)
	}

	t.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(t.window, func() {
		defer t.wg.Done()
		t.mu.Lock()
		if t.pending[conversationID] == timer {
			delete(t.pending, conversationID)
		}
		t.mu.Unlock()
		t.fire(ctx, conversationID)
	})
	t.pending[conversationID] = timer
}

func (t *Trigger) fire(ctx context.Context, conversationID string) {
	if ctx.Err() != nil {
		return
	}

	// reanalysis=false: if a report already exists this is a pure read, so
	// auto mode never burns an extra provider call on an analyzed round.
	if _, err := t.analyzer.Analyze(ctx, conversationID, false); err != nil {
		t.logger.Warn("automatic analysis failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return
	}
	t.logger.Info("automatic analysis finished",
		zap.String("conversation_id", conversationID))
}

func (t *Trigger) cancelPending() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, timer := range t.pending {
		if timer.Stop() {
			t.wg.Done()
		}
		delete(t.pending, id)
	}
}
