package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ai-tutor-orchestrator/server/internal/agent/graph"
	"github.com/ai-tutor-orchestrator/server/internal/agent/graph/nodes"
	"github.com/ai-tutor-orchestrator/server/internal/agent/model"
	"github.com/ai-tutor-orchestrator/server/internal/agent/repo"
	"github.com/ai-tutor-orchestrator/server/internal/api"
	logx "github.com/ai-tutor-orchestrator/server/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the orchestrator HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "Listen port (overrides SERVER_PORT)")
}

func runServe(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetInt("port"); p > 0 {
		cfg.Server.Port = p
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = cfg.Redis.New(ctx)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		logx.Info().Msg("Connected to Redis")
	}

	profiles, closeProfiles, err := openProfiles(ctx, cfg.Profiles, rdb)
	if err != nil {
		return err
	}
	defer closeProfiles()

	var sessions model.SessionRepository
	if rdb != nil {
		sessions = repo.NewRedisSessionRepository(rdb, cfg.Sessions.TTL, cfg.Sessions.MaxTurns)
	}

	var chatModels *nodes.ChatModels
	if cfg.APIKey != "" {
		chatModels, err = nodes.NewChatModels(ctx, nodes.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			LLM:     &cfg.LLM,
		})
		if err != nil {
			return err
		}
	}

	runner, err := graph.BuildTutorGraph(ctx, graph.Config{
		ChatModels: chatModels,
		Profiles:   profiles,
		Sessions:   sessions,
		Tools:      cfg.Tools,
	})
	if err != nil {
		return fmt.Errorf("build tutor graph: %w", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewHandler(api.Deps{Runner: runner, Profiles: profiles, Sessions: sessions}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logx.Info().Str("addr", srv.Addr).Bool("llm", chatModels != nil).Msg("Orchestrator listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logx.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openProfiles selects the profile store and, when Redis is available, fronts it with the cache.
func openProfiles(ctx context.Context, cfg model.ProfileConfig, rdb *redis.Client) (model.ProfileRepository, func(), error) {
	var (
		store   model.ProfileRepository
		closeFn = func() {}
	)

	switch cfg.Store {
	case "sqlite":
		db, err := repo.OpenSQLiteProfileRepository(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open profile store: %w", err)
		}
		if cfg.Seed {
			if err := db.Seed(ctx, model.SampleProfiles()); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("seed profile store: %w", err)
			}
		}
		store = db
		closeFn = func() { db.Close() }
		logx.Info().Str("path", cfg.SQLitePath).Msg("Using SQLite profile store")
	case "memory", "":
		store = repo.NewMemoryProfileRepository(model.SampleProfiles()...)
		logx.Info().Msg("Using in-memory profile store")
	default:
		return nil, nil, fmt.Errorf("unknown PROFILE_STORE %q (want memory or sqlite)", cfg.Store)
	}

	if rdb != nil && cfg.CacheTTL > 0 {
		store = repo.NewCachedProfileRepository(store, rdb, cfg.CacheTTL)
	}
	return store, closeFn, nil
}
