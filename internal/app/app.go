package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docscope/internal/classify"
	"github.com/dgallion1/docscope/internal/config"
	"github.com/dgallion1/docscope/internal/embed"
	"github.com/dgallion1/docscope/internal/heading"
	"github.com/dgallion1/docscope/internal/parser"
	"github.com/dgallion1/docscope/internal/pipeline"
	"github.com/dgallion1/docscope/internal/query"
	"github.com/dgallion1/docscope/internal/stats"
	"github.com/dgallion1/docscope/internal/store"
	"github.com/dgallion1/docscope/internal/summarize"
)

const latencyWindow = time.Hour

// App holds the components shared by the server and the CLI. Everything is
// constructed once here and passed down explicitly.
type App struct {
	Config   config.Config
	Store    store.Store
	Detector *heading.Detector
	Encoder  *embed.Service
	Engine   *query.Engine
	Worker   *pipeline.Worker
	Latency  map[string]*stats.Latency

	closers []func()
}

// New wires the components named by cfg.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		Config: cfg,
		Latency: map[string]*stats.Latency{
			"classifier": stats.NewLatency(latencyWindow),
			"encoder":    stats.NewLatency(latencyWindow),
		},
	}

	c, err := a.classifier(cfg)
	if err != nil {
		return nil, err
	}
	a.Detector = heading.NewDetector(c, cfg.Classifier.Threshold, log)

	enc, err := embed.NewEncoder(cfg.EncoderConfig())
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}
	a.Encoder = embed.NewService(enc, cfg.Embeddings.MaxTokens, a.Latency["encoder"])

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("store: %w", err)
	}
	a.Store = st

	a.Engine = query.NewEngine(st, a.Encoder, summarize.New(nil, cfg.Query.SummarySentences), query.Options{
		TopK:         cfg.Query.TopK,
		MinDocuments: cfg.Query.MinDocuments,
		MaxDocuments: cfg.Query.MaxDocuments,
		Concurrency:  cfg.Query.Concurrency,
		Timeout:      cfg.Query.Timeout,
	}, log)
	a.Worker = pipeline.NewWorker(a.Detector, st, log, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})

	log.Info("components ready",
		"store", cfg.Store.Backend,
		"classifier", cfg.Classifier.Provider,
		"encoder", a.Encoder.ModelID())
	return a, nil
}

func (a *App) classifier(cfg config.Config) (classify.Classifier, error) {
	var c classify.Classifier
	switch cfg.Classifier.Provider {
	case "none":
		return nil, nil
	case "", "lexical":
		c = classify.NewLexicalClassifier()
	case "anthropic":
		ac, err := classify.NewAnthropicClassifier(cfg.Classifier.AnthropicAPIKey, cfg.Classifier.AnthropicModel, cfg.Classifier.AnthropicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("classifier: %w", err)
		}
		a.closers = append(a.closers, ac.Close)
		c = ac
	default:
		return nil, fmt.Errorf("unknown classifier provider: %s", cfg.Classifier.Provider)
	}
	return classify.WithLatency(c, a.Latency["classifier"]), nil
}

// Close releases the store and any clients.
func (a *App) Close(ctx context.Context) error {
	for _, fn := range a.closers {
		fn()
	}
	a.closers = nil
	if a.Store == nil {
		return nil
	}
	err := a.Store.Close(ctx)
	a.Store = nil
	return err
}
