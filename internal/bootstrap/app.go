package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/zachzeid/prompteval/internal/analyses"
	"github.com/zachzeid/prompteval/internal/documents"
	"github.com/zachzeid/prompteval/internal/heuristics"
	"github.com/zachzeid/prompteval/internal/llm"
	"github.com/zachzeid/prompteval/internal/llm/anthropic"
	"github.com/zachzeid/prompteval/internal/llm/gemini"
	openai "github.com/zachzeid/prompteval/internal/llm/openai"
	"github.com/zachzeid/prompteval/internal/prompts"
	"github.com/zachzeid/prompteval/internal/quota"
	"github.com/zachzeid/prompteval/internal/revisions"
	"github.com/zachzeid/prompteval/internal/services/health"
	"github.com/zachzeid/prompteval/internal/shared/config"
	"github.com/zachzeid/prompteval/internal/shared/server"
	"github.com/zachzeid/prompteval/internal/shared/storage/db"
	"github.com/zachzeid/prompteval/internal/shared/storage/object"
	localstore "github.com/zachzeid/prompteval/internal/shared/storage/object/local"
)

// App holds shared dependencies wired from config.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	PromptsRepo   prompts.Repo
	DocumentsRepo documents.Repo
	AnalysesRepo  analyses.Repo
	RevisionsRepo revisions.Repo

	PromptsService    *prompts.Service
	DocumentsService  *documents.Service
	HeuristicsService *heuristics.Service
	QuotaService      *quota.Service
	RevisionsService  *revisions.Service
	AnalysesService   *analyses.Service
	HealthService     *health.Service

	PromptsHandler    *prompts.Handler
	DocumentsHandler  *documents.Handler
	HeuristicsHandler *heuristics.Handler
	AnalysesHandler   *analyses.Handler
	RevisionsHandler  *revisions.Handler
	QuotaHandler      *quota.Handler

	Janitor   *analyses.Janitor
	DirLoader *prompts.DirLoader

	stopWatch context.CancelFunc
}

// Build wires repositories, services, background workers, and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.LLMProvider) == "" {
		cfg.LLMProvider = "placeholder"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  localstore.New(cfg.LocalStoreDir),
	}

	if err := buildServices(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	if err := app.Janitor.Start(); err != nil {
		app.Close()
		return nil, err
	}

	if strings.TrimSpace(cfg.PromptsDir) != "" {
		startDirLoader(ctx, app, cfg.PromptsDir)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:     app.Config,
		Health:     app.HealthService,
		Prompts:    app.PromptsHandler,
		Documents:  app.DocumentsHandler,
		Heuristics: app.HeuristicsHandler,
		Analyses:   app.AnalysesHandler,
		Revisions:  app.RevisionsHandler,
		Quota:      app.QuotaHandler,
	})

	return app, nil
}

// Close stops background workers and releases the database pool. Safe to
// call on a partially built App.
func (a *App) Close() {
	if a.Janitor != nil {
		a.Janitor.Stop()
	}
	if a.stopWatch != nil {
		a.stopWatch()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: migrations failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(ctx context.Context, app *App) error {
	cfg := app.Config

	var promptRepo prompts.Repo
	var docRepo documents.Repo
	var analysisRepo analyses.Repo
	var revisionRepo revisions.Repo
	var quotaSvc *quota.Service

	if app.DB != nil {
		promptRepo = &prompts.PGRepo{DB: app.DB}
		docRepo = documents.NewPGRepo(app.DB)
		analysisRepo = analyses.NewPGRepo(app.DB)
		revisionRepo = revisions.NewPGRepo(app.DB)
		quotaSvc = quota.NewPostgresService(cfg.LLMDailyLimit, quota.NewPGStore(app.DB))
	} else {
		promptRepo = prompts.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
		analysisRepo = analyses.NewMemoryRepo()
		revisionRepo = revisions.NewMemoryRepo()
		quotaSvc = quota.NewService(cfg.LLMDailyLimit)
	}

	rules := heuristics.DefaultConfig()
	if strings.TrimSpace(cfg.RulesConfigPath) != "" {
		loaded, err := heuristics.LoadFile(cfg.RulesConfigPath)
		if err != nil {
			return fmt.Errorf("load rules config: %w", err)
		}
		rules = loaded
	}
	heuristicSvc := heuristics.NewService(rules)

	llmClient, model, err := BuildLLM(ctx, cfg)
	if err != nil {
		return err
	}

	promptSvc := &prompts.Service{
		Repo:         promptRepo,
		Store:        app.Store,
		ExportPrefix: cfg.ExportPrefix,
	}
	docSvc := &documents.Service{
		Repo:    docRepo,
		Store:   app.Store,
		Prompts: promptSvc,
	}
	revisionSvc := &revisions.Service{
		Repo:    revisionRepo,
		Prompts: promptSvc,
	}

	analysisSvc := &analyses.Service{
		Repo:          analysisRepo,
		Prompts:       promptSvc,
		Heuristics:    heuristicSvc,
		Revisions:     revisionSvc,
		LLM:           llmClient,
		Provider:      cfg.LLMProvider,
		Model:         model,
		Timeout:       time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		MaxConcurrent: cfg.MaxConcurrentAnalyses,
	}
	// Placeholder runs cost nothing; only real providers consume quota.
	if cfg.LLMProvider != "placeholder" {
		analysisSvc.Quota = quotaSvc
	}

	docHandler := documents.NewHandler(docSvc)
	docHandler.MaxUploadBytes = int64(cfg.MaxUploadMB) << 20

	app.PromptsRepo = promptRepo
	app.DocumentsRepo = docRepo
	app.AnalysesRepo = analysisRepo
	app.RevisionsRepo = revisionRepo
	app.PromptsService = promptSvc
	app.DocumentsService = docSvc
	app.HeuristicsService = heuristicSvc
	app.QuotaService = quotaSvc
	app.RevisionsService = revisionSvc
	app.AnalysesService = analysisSvc
	app.HealthService = health.NewService(app.DB, cfg.LLMProvider)
	app.PromptsHandler = prompts.NewHandler(promptSvc)
	app.DocumentsHandler = docHandler
	app.HeuristicsHandler = heuristics.NewHandler(heuristicSvc, promptSvc)
	app.AnalysesHandler = analyses.NewHandler(analysisSvc)
	app.RevisionsHandler = revisions.NewHandler(revisionSvc)
	app.QuotaHandler = quota.NewHandler(quotaSvc)
	app.Janitor = &analyses.Janitor{
		Repo:      analysisRepo,
		Revisions: revisionSvc,
		Schedule:  cfg.JanitorSchedule,
		Retention: cfg.JobRetention,
	}

	return nil
}

// BuildLLM selects the provider client and resolves the model name the
// analyses service records on each job.
func BuildLLM(ctx context.Context, cfg config.Config) (llm.Client, string, error) {
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.NewClient(os.Getenv("OPENAI_API_KEY"), cfg.LLMModel)
		if err != nil {
			return nil, "", err
		}
		return client, cfg.LLMModel, nil
	case "anthropic":
		client, err := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"), cfg.LLMModel)
		if err != nil {
			return nil, "", err
		}
		return client, modelOrDefault(cfg.LLMModel, anthropic.DefaultModel), nil
	case "gemini":
		client, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), cfg.LLMModel)
		if err != nil {
			return nil, "", err
		}
		return client, modelOrDefault(cfg.LLMModel, gemini.DefaultModel), nil
	default:
		return llm.PlaceholderClient{}, "", nil
	}
}

func modelOrDefault(model, fallback string) string {
	if strings.TrimSpace(model) == "" {
		return fallback
	}
	return model
}

// startDirLoader seeds the library from the prompts directory and keeps it
// in sync while the server runs. Load failures are logged, not fatal, so a
// misconfigured dir does not block startup.
func startDirLoader(ctx context.Context, app *App, dir string) {
	loader := prompts.NewDirLoader(app.PromptsService, dir)
	loaded, err := loader.LoadAll(ctx)
	if err != nil {
		log.Printf("bootstrap: prompts dir load failed: %v", err)
	} else {
		log.Printf("bootstrap: loaded %d prompts from %s", loaded, dir)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	app.DirLoader = loader
	app.stopWatch = cancel
	go func() {
		if err := loader.Watch(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("bootstrap: prompts dir watch stopped: %v", err)
		}
	}()
}
