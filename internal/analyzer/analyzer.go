package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xaenox/chat-analyzer/internal/creds"
	"github.com/xaenox/chat-analyzer/internal/history"
	"github.com/xaenox/chat-analyzer/internal/models"
	"github.com/xaenox/chat-analyzer/internal/provider"
	"github.com/xaenox/chat-analyzer/internal/storage"
	"github.com/xaenox/chat-analyzer/internal/transcript"
	"go.uber.org/zap"
)

// ErrAnalysisInProgress is returned when an analysis for the same conversation
// is already running. Analyses for different conversations run independently.
var ErrAnalysisInProgress = errors.New("analysis already in progress for this conversation")

// Report titles start with the question truncated to this many runes.
const titleQuestionLimit = 15

// Config is the fully-populated analysis configuration supplied by the
// caller per Analyzer; there is no ambient settings state.
type Config struct {
	Model             string
	Temperature       float64
	TopP              float64
	ReasoningEffort   string
	SystemPrompt      string // overrides the built-in base prompt when set
	MergeSystemPrompt string // overrides the built-in merge prompt when set
	RequestTimeout    time.Duration
}

// Analyzer drives one analysis pass: load prior reports, normalize the
// conversation, assemble the transcript, dispatch to a provider and commit
// the result. Either a full report is appended or none is.
type Analyzer struct {
	source   history.Source
	registry *provider.Registry
	creds    creds.Source
	storage  storage.ReportStorage
	config   Config
	logger   *zap.Logger

	mu   sync.Mutex
	busy map[string]bool
}

func New(source history.Source, registry *provider.Registry, credentials creds.Source,
	store storage.ReportStorage, config Config, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		source:   source,
		registry: registry,
		creds:    credentials,
		storage:  store,
		config:   config,
		logger:   logger,
		busy:     make(map[string]bool),
	}
}

// Analyze runs one analysis for the conversation. With reanalysis=false and an
// existing report it is a pure read: the latest report is returned with no
// network call. With reanalysis=true the latest report is folded into the
// request as prior context and a new report is appended.
func (a *Analyzer) Analyze(ctx context.Context, conversationID string, reanalysis bool) (*models.Report, error) {
	if conversationID == "" {
		return nil, history.ErrInvalidID
	}
	if !a.acquire(conversationID) {
		return nil, ErrAnalysisInProgress
	}
	defer a.release(conversationID)

	reports, err := a.storage.ListFor(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !reanalysis && len(reports) > 0 {
		a.logger.Debug("report exists, returning it without re-analyzing",
			zap.String("conversation_id", conversationID),
			zap.String("report_id", reports[0].ID))
		return reports[0], nil
	}

	conv, err := a.source.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	hist, err := history.Normalize(conv)
	if err != nil {
		return nil, err
	}

	previousSummary := ""
	if reanalysis && len(reports) > 0 {
		previousSummary = reports[0].Content
	}

	payload, err := transcript.Assemble(hist, previousSummary)
	if err != nil {
		return nil, err
	}

	adapter, err := a.registry.Route(a.config.Model)
	if err != nil {
		return nil, err
	}
	apiKey, err := a.creds.Get(ctx, adapter.Name())
	if err != nil {
		return nil, err
	}

	req := &models.AnalysisRequest{
		ProviderID:      adapter.Name(),
		Model:           a.config.Model,
		Temperature:     a.config.Temperature,
		TopP:            a.config.TopP,
		ReasoningEffort: a.config.ReasoningEffort,
		SystemPrompt:    a.systemPrompt(previousSummary != ""),
		UserContent:     payload.UserContent,
	}

	a.logger.Info("dispatching analysis",
		zap.String("conversation_id", conversationID),
		zap.String("provider", adapter.Name()),
		zap.String("model", a.config.Model),
		zap.Bool("incremental", previousSummary != ""))

	callCtx := ctx
	if a.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := adapter.Invoke(callCtx, apiKey, req)
	if err != nil {
		a.logger.Warn("analysis failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return nil, err
	}
	elapsed := time.Since(start)

	// A canceled run must not commit anything.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := time.Now()
	content := result.Content + footer(elapsed, result.Usage)
	title := reportTitle(payload.LastUserQuestion, now)

	report, err := a.storage.Append(ctx, conversationID, title, content)
	if err != nil {
		return nil, err
	}

	a.logger.Info("analysis committed",
		zap.String("conversation_id", conversationID),
		zap.String("report_id", report.ID),
		zap.Duration("elapsed", elapsed))

	return report, nil
}

func (a *Analyzer) systemPrompt(incremental bool) string {
	if incremental {
		if a.config.MergeSystemPrompt != "" {
			return a.config.MergeSystemPrompt
		}
		return transcript.MergeSystemPrompt
	}
	if a.config.SystemPrompt != "" {
		return a.config.SystemPrompt
	}
	return transcript.BaseSystemPrompt
}

func (a *Analyzer) acquire(conversationID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy[conversationID] {
		return false
	}
	a.busy[conversationID] = true
	return true
}

func (a *Analyzer) release(conversationID string) {
	a.mu.Lock()
	delete(a.busy, conversationID)
	a.mu.Unlock()
}

// footer renders the human-readable report trailer. The token line is only
// present when the provider reported usage; an unknown cost is not printed
// as zero.
func footer(elapsed time.Duration, usage *models.TokenUsage) string {
	var sb strings.Builder
	sb.WriteString("\n\n---\n")
	fmt.Fprintf(&sb, "Analysis completed in %.2fs", elapsed.Seconds())
	if usage != nil {
		fmt.Fprintf(&sb, " · tokens: %d prompt + %d completion = %d total",
			usage.PromptTokens, usage.CompletionTokens, usage.TotalTokens)
	}
	sb.WriteString("\n")
	return sb.String()
}

// reportTitle is the question, whitespace-collapsed and truncated, followed
// by a minute-resolution timestamp.
func reportTitle(question string, now time.Time) string {
	q := strings.Join(strings.Fields(question), " ")
	if runes := []rune(q); len(runes) > titleQuestionLimit {
		q = string(runes[:titleQuestionLimit]) + "…"
	}
	return strings.TrimSpace(q + " " + now.Format("2006-01-02 15:04"))
}
