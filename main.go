package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/msomdec/localstore/internal/domain"
	"github.com/msomdec/localstore/internal/service"
	"github.com/msomdec/localstore/internal/store"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	dataDir := envOrDefault("DATA_DIR", "localstore-data")

	st := store.New(dataDir)
	st.Notify(func(s store.Status) {
		slog.Debug("store state changed", "state", s.State, "version", s.SchemaVersion, "active", s.ActiveBackend)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := st.Open(ctx); err != nil {
		slog.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	if status := st.Status(); status.LastError != "" {
		slog.Warn("store opened with degraded schema", "error", status.LastError)
	}

	// Optional one-shot backend switch, e.g. BACKEND=kv.
	if b := os.Getenv("BACKEND"); b != "" {
		if err := st.SwitchBackend(ctx, domain.ParsePreference(b)); err != nil {
			slog.Error("failed to switch backend", "error", err)
			os.Exit(1)
		}
		slog.Info("backend switched", "preference", b, "active", st.ActiveBackend())
	}

	todos := service.NewTodoService(st)

	if len(os.Args) > 1 {
		if err := todos.AddBatch(ctx, os.Args[1:]); err != nil {
			slog.Error("failed to add todos", "error", err)
			os.Exit(1)
		}
		if err := st.Save(ctx); err != nil {
			slog.Error("failed to save", "error", err)
			os.Exit(1)
		}
	}

	list, err := todos.List(ctx)
	if err != nil {
		slog.Error("failed to list todos", "error", err)
		os.Exit(1)
	}
	for _, t := range list {
		mark := " "
		if t.Done {
			mark = "x"
		}
		fmt.Printf("[%s] %s  %s\n", mark, t.ID, t.Title)
	}
	slog.Info("done",
		"todos", len(list),
		"schema_version", st.SchemaVersion(),
		"active_backend", st.ActiveBackend())
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
