package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/inkfall/storyloom/internal/api"
	"github.com/inkfall/storyloom/internal/assembly"
	"github.com/inkfall/storyloom/internal/bible"
	"github.com/inkfall/storyloom/internal/config"
	"github.com/inkfall/storyloom/internal/graph"
	"github.com/inkfall/storyloom/internal/notify"
	"github.com/inkfall/storyloom/internal/provider"
	pgstore "github.com/inkfall/storyloom/internal/store"
	"github.com/inkfall/storyloom/internal/writer"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Storyloom...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/storyloom.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Initialize provider router
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey,
			Models: pc.Models,
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// Story bible storage: PostgreSQL when configured, in-memory otherwise.
	var (
		store  bible.Store
		drafts bible.DraftStore
	)
	var pg *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, falling back to in-memory bible", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pg = ps
		}
	}
	if pg != nil {
		store = pg
		drafts = pg
	} else {
		mem := bible.NewMemoryStore()
		store = mem
		drafts = mem
	}

	// Relationship graph: Neo4j when configured, otherwise the relations
	// live in the primary store.
	var relations bible.RelationRepo = store
	var relGraph *graph.RelationGraph
	if cfg.Database.Neo4j.URI != "" {
		rg, gErr := graph.New(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if gErr != nil {
			logger.Warn("Neo4j unavailable, reading relations from primary store", zap.Error(gErr))
		} else {
			relGraph = rg
			relations = rg
		}
	}

	// Event bus is optional.
	var bus *notify.Bus
	if cfg.Database.Redis.URL != "" {
		b, busErr := notify.NewBus(cfg.Database.Redis.URL, logger)
		if busErr != nil {
			logger.Warn("Redis unavailable, running without event stream", zap.Error(busErr))
		} else {
			bus = b
		}
	}

	// Context assembly
	budget := assembly.Budget{
		Ceiling:       cfg.Assembly.TokenCeiling,
		OutputReserve: cfg.Assembly.OutputReserve,
		PromptReserve: cfg.Assembly.PromptReserve,
	}
	src := assembly.Sources{
		Chapters:      store,
		Characters:    store,
		Locations:     store,
		Arcs:          store,
		Relations:     relations,
		Foreshadowing: store,
		Hooks:         store,
		World:         store,
	}
	chapterBuilder := assembly.NewChapterBuilder(src, budget, logger)
	projectBuilder := assembly.NewProjectBuilder(src, budget, logger)

	var w *writer.Writer
	if len(cfg.Providers) > 0 {
		var pub writer.Publisher
		if bus != nil {
			pub = bus
		}
		w = writer.New(chapterBuilder, router, drafts, pub, logger)
	} else {
		logger.Warn("no providers configured, draft generation disabled")
	}

	// Build HTTP handler
	handler := api.NewHandler(store, drafts, chapterBuilder, projectBuilder, w, router, logger)

	// Start server
	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Storyloom listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Storyloom...")
	ctx := context.Background()
	srv.Shutdown(ctx)
	if relGraph != nil {
		relGraph.Close(ctx)
	}
	if bus != nil {
		bus.Close()
	}
	if pg != nil {
		pg.Close()
	}
}
