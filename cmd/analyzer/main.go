package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/xaenox/chat-analyzer/internal/analyzer"
	"github.com/xaenox/chat-analyzer/internal/creds"
	"github.com/xaenox/chat-analyzer/internal/history"
	"github.com/xaenox/chat-analyzer/internal/provider"
	"github.com/xaenox/chat-analyzer/internal/storage"
	"github.com/xaenox/chat-analyzer/pkg/config"
	"go.uber.org/zap"
)

const xaiBaseURL = "https://api.x.ai/v1"

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	conversationID := flag.String("conversation", "", "conversation id to analyze")
	reanalyze := flag.Bool("reanalyze", false, "fold the latest report into a fresh analysis")
	list := flag.Bool("list", false, "print stored reports for the conversation instead of analyzing")
	watch := flag.Bool("watch", false, "keep running and auto-analyze when the conversation export changes")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if *conversationID == "" {
		fmt.Fprintln(os.Stderr, "usage: analyzer -conversation <id> [-reanalyze] [-list] [-config config.yaml]")
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize storage
	var store storage.ReportStorage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *list {
		reports, err := store.ListFor(ctx, *conversationID)
		if err != nil {
			logger.Fatal("Failed to list reports", zap.Error(err))
		}
		if len(reports) == 0 {
			fmt.Println("No reports for this conversation yet.")
			return
		}
		for _, r := range reports {
			fmt.Printf("%s  %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Title)
		}
		return
	}

	requestTimeout := time.Duration(cfg.Analyzer.RequestTimeoutSeconds) * time.Second

	// Provider registry: model-name patterns pick the adapter, unknown
	// models fall through to openai.
	registry := provider.NewRegistry("openai")
	registry.Register(provider.NewChatCompletionAdapter("openai", cfg.Providers.OpenAI.BaseURL, requestTimeout, logger))
	xaiURL := cfg.Providers.XAI.BaseURL
	if xaiURL == "" {
		xaiURL = xaiBaseURL
	}
	registry.Register(provider.NewChatCompletionAdapter("xai", xaiURL, requestTimeout, logger))
	registry.Register(provider.NewGenerateAdapter("gemini", cfg.Providers.Gemini.BaseURL, requestTimeout, logger))
	for _, rule := range []struct{ pattern, providerID string }{
		{`(?i)^xai`, "xai"},
		{`(?i)gemini`, "gemini"},
	} {
		if err := registry.AddRule(rule.pattern, rule.providerID); err != nil {
			logger.Fatal("Failed to register routing rule", zap.Error(err), zap.String("pattern", rule.pattern))
		}
	}

	credentials := creds.NewConfigSource(map[string]string{
		"openai": cfg.Providers.OpenAI.APIKey,
		"xai":    cfg.Providers.XAI.APIKey,
		"gemini": cfg.Providers.Gemini.APIKey,
	}, promptForKey)

	a := analyzer.New(
		history.NewFileSource(cfg.History.ExportDir),
		registry,
		credentials,
		store,
		analyzer.Config{
			Model:             cfg.Analyzer.Model,
			Temperature:       cfg.Analyzer.Temperature,
			TopP:              cfg.Analyzer.TopP,
			ReasoningEffort:   cfg.Analyzer.ReasoningEffort,
			SystemPrompt:      cfg.Analyzer.SystemPrompt,
			MergeSystemPrompt: cfg.Analyzer.MergeSystemPrompt,
			RequestTimeout:    requestTimeout,
		},
		logger,
	)

	if *watch {
		if !cfg.Analyzer.AutoAnalyze {
			logger.Fatal("Watch mode requires analyzer.auto_analyze to be enabled")
		}
		window := time.Duration(cfg.Analyzer.DebounceMillis) * time.Millisecond
		trigger := analyzer.NewTrigger(a, window, logger)
		signals := make(chan analyzer.Signal)
		go watchExport(ctx, cfg.History.ExportDir, *conversationID, signals, logger)
		trigger.Run(ctx, signals)
		return
	}

	report, err := a.Analyze(ctx, *conversationID, *reanalyze)
	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err), zap.String("conversation", *conversationID))
	}

	fmt.Printf("%s\n\n%s\n", report.Title, report.Content)
}

// watchExport polls the conversation export file and emits a signal whenever
// its modification time moves forward. Closes the channel when ctx ends.
func watchExport(ctx context.Context, dir, conversationID string, signals chan<- analyzer.Signal, logger *zap.Logger) {
	defer close(signals)

	path := filepath.Join(dir, conversationID+".json")
	var lastMod time.Time
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().After(lastMod) {
				lastMod = info.ModTime()
				select {
				case signals <- analyzer.Signal{ConversationID: conversationID}:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// promptForKey asks for a provider credential on the terminal when the
// config carries none.
func promptForKey(providerID string) (string, error) {
	fmt.Fprintf(os.Stderr, "Enter API key for %s: ", providerID)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
