package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/mood-journal/internal/auth"
	"github.com/Veraticus/mood-journal/internal/common"
	"github.com/Veraticus/mood-journal/internal/config"
	"github.com/Veraticus/mood-journal/internal/journal"
	"github.com/Veraticus/mood-journal/internal/llm"
	"github.com/Veraticus/mood-journal/internal/model"
	"github.com/Veraticus/mood-journal/internal/storage"
	"github.com/spf13/viper"
)

// app holds the wired dependencies for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	db      *storage.SQLiteStorage
	auth    *auth.Local
	repo    *journal.Repository
	manager *journal.Manager
}

// newApp opens the local database, the session store and the entry store
// selected by store.backend.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	db, err := openDatabase(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	local, err := auth.NewLocal(auth.LocalConfig{
		Users:      db,
		Logger:     logger,
		SessionDir: cfg.Auth.SessionDir,
		TTL:        cfg.Auth.SessionTTL,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	var store journal.Store = db
	if cfg.Store.Backend == config.BackendREST {
		rest, restErr := storage.NewRESTStore(storage.RESTConfig{
			BaseURL: cfg.Store.RESTURL,
			APIKey:  cfg.Store.RESTAPIKey,
			Table:   cfg.Store.RESTTable,
		})
		if restErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create REST store: %w", restErr)
		}
		store = rest
	}

	repo := journal.NewRepository(store, local, logger)
	return &app{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		auth:    local,
		repo:    repo,
		manager: journal.NewManager(repo, local, logger),
	}, nil
}

func openDatabase(ctx context.Context, path string) (*storage.SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", "error", err)
	}
}

// requireUser fails early with a friendly message when nobody is signed in.
func (a *app) requireUser() (string, error) {
	userID := a.auth.CurrentUserID()
	if userID == "" {
		return "", common.NewUserError("Sign in first: journal auth signin", common.ErrUnauthenticated)
	}
	return userID, nil
}

func (a *app) analyzer() (*llm.Analyzer, error) {
	c := a.cfg.Analysis
	if c.Provider == llm.ProviderHTTP && c.Endpoint == "" {
		return nil, common.NewUserError("Set analysis.endpoint (or JOURNAL_ANALYSIS_ENDPOINT) to analyze entries", common.ErrMissingConfig)
	}
	return llm.NewAnalyzer(llm.Config{
		Provider:  c.Provider,
		Endpoint:  c.Endpoint,
		APIKey:    c.APIKey,
		Model:     c.Model,
		RateLimit: c.RateLimit,
	}, a.logger)
}

// session builds a composition session that saves through the manager.
// analyzer may be nil when analysis is not configured; Analyze then fails.
func (a *app) session(analyzer journal.Analyzer) *journal.Session {
	if analyzer == nil {
		analyzer = unconfiguredAnalyzer{}
	}
	return journal.NewSession(analyzer, a.manager, a.auth, a.logger,
		journal.WithTimeout(a.cfg.Analysis.Timeout),
		journal.WithRetry(common.RetryOptions{MaxAttempts: a.cfg.Analysis.MaxAttempts}),
	)
}

var errAnalysisUnavailable = errors.New("analysis is not configured")

type unconfiguredAnalyzer struct{}

func (unconfiguredAnalyzer) Analyze(context.Context, string, string) (model.MoodAnalysisResult, error) {
	return model.MoodAnalysisResult{}, common.NewUserError("Analysis is not configured. Set analysis.endpoint or analysis.provider.", errAnalysisUnavailable)
}

// friendly attaches the journal's user-facing message to a repository or
// analysis error.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	return common.NewUserError(journal.Message(err), err)
}
