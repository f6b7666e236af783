package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"sync"

	"go-tempo/internal/api/handler"
	"go-tempo/internal/api/server"
	"go-tempo/internal/config"
	"go-tempo/internal/dispatcher"
	"go-tempo/internal/domain"
	"go-tempo/internal/janitor"
	"go-tempo/internal/metrics"
	"go-tempo/internal/publisher"
	"go-tempo/internal/query"
	"go-tempo/internal/store"
	"go-tempo/internal/template"
)

// scenarioTracker records every scenario id the publisher has produced,
// so the janitor has something to sweep without a global secondary
// index in the store.
type scenarioTracker struct {
	mu  sync.Mutex
	ids []string
}

func (t *scenarioTracker) add(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ids = append(t.ids, id)
}

func (t *scenarioTracker) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.ids))
	copy(out, t.ids)
	return out
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	ctx := context.Background()

	st, err := store.New(ctx, cfg.StoreURL)
	if err != nil {
		log.Fatal("failed to connect to store:", err)
	}
	defer st.Close()

	registry, err := template.LoadDir(cfg.TemplateDir)
	if err != nil {
		log.Fatal("failed to load templates:", err)
	}

	collector := metrics.NewCollector()

	pub := publisher.New(registry, st, collector)
	tracker := &scenarioTracker{}

	disp := dispatcher.New(st, dispatcher.Options{
		CascadeFail:  cfg.CascadeFail,
		ClaimTimeout: cfg.ClaimTimeout,
		Metrics:      collector,
		OnTerminated: func(e domain.TerminatedEvent) {
			logger.Warn("task terminated", "scenario_id", e.ScenarioID, "task_id", e.TaskID, "service", e.Service, "kind", e.Kind, "error", e.Error)
		},
	}, logger)

	q := query.New(st)

	jan := janitor.New(st, disp, cfg.JanitorHorizon, cfg.JanitorInterval, tracker.list, collector, logger)
	janitorCtx, cancelJanitor := context.WithCancel(ctx)
	defer cancelJanitor()
	go jan.Run(janitorCtx)

	h := handler.New(pub, q)
	h.OnSubmit(tracker.add)
	router := server.New(h, collector)

	logger.Info("server starting", "addr", cfg.HTTPAddr)
	if err := router.Run(cfg.HTTPAddr); err != nil {
		log.Fatal("failed to start server:", err)
	}
}
