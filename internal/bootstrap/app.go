package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"applyflow-backend/internal/applications"
	"applyflow-backend/internal/approvals"
	"applyflow-backend/internal/bridge"
	"applyflow-backend/internal/classify"
	"applyflow-backend/internal/clients"
	"applyflow-backend/internal/discovery"
	"applyflow-backend/internal/dispatch"
	"applyflow-backend/internal/generation"
	"applyflow-backend/internal/notifications"
	"applyflow-backend/internal/pipeline"
	"applyflow-backend/internal/queue"
	"applyflow-backend/internal/resumes"
	"applyflow-backend/internal/shared/config"
	"applyflow-backend/internal/shared/server"
	"applyflow-backend/internal/shared/storage/db"
)

// App holds the wired dependency graph shared by the API server and the
// queue worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	ApplicationsRepo applications.Repo
	QueueRepo        queue.Repo
	ClientsRepo      clients.Repo
	ResumesRepo      resumes.Repo

	Applications *applications.Service
	Approvals    *approvals.Service
	Callbacks    *bridge.CallbackService
	Dispatcher   *dispatch.Dispatcher
	Executor     *pipeline.Executor
	Processor    *queue.Processor
	Maintenance  *queue.Maintenance
	Monitor      *queue.Monitor
	Notifier     notifications.Notifier

	ApplicationHandler *applications.Handler
	ApprovalHandler    *approvals.Handler
	CallbackHandler    *bridge.Handler
	QueueHandler       *queue.Handler
}

// Build prepares the dependency graph and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
	}

	if err := buildServices(ctx, app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:             app.Config,
		ApplicationHandler: app.ApplicationHandler,
		ApprovalHandler:    app.ApprovalHandler,
		CallbackHandler:    app.CallbackHandler,
		QueueHandler:       app.QueueHandler,
	})

	return app, nil
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

	if app.DB != nil {
		app.ApplicationsRepo = &applications.PGRepo{DB: app.DB}
		app.QueueRepo = &queue.PGRepo{DB: app.DB}
		app.ClientsRepo = &clients.PGRepo{DB: app.DB}
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
	} else {
		memApps := applications.NewMemoryRepo()
		app.ApplicationsRepo = memApps
		app.QueueRepo = queue.NewMemoryRepo(memApps)
		app.ClientsRepo = clients.NewMemoryRepo()
		app.ResumesRepo = resumes.NewMemoryRepo()
	}

	var notifier notifications.Notifier
	if strings.TrimSpace(cfg.NotifyQueueURL) != "" {
		sqsNotifier, err := notifications.NewSQSNotifier(ctx, cfg.AWSRegion, cfg.NotifyQueueURL)
		if err != nil {
			return fmt.Errorf("build sqs notifier: %w", err)
		}
		notifier = sqsNotifier
	} else {
		notifier = notifications.NewMemoryNotifier()
	}
	app.Notifier = notifier

	var urls resumes.URLProvider
	if strings.TrimSpace(cfg.ResumeBucket) != "" {
		presigner, err := resumes.NewS3Presigner(ctx, cfg.AWSRegion, cfg.ResumeBucket, cfg.ResumePresignTTL)
		if err != nil {
			return fmt.Errorf("build resume presigner: %w", err)
		}
		urls = presigner
	} else {
		urls = &resumes.StaticURLProvider{BaseURL: cfg.LocalResumeBaseURL}
	}

	var classifier applications.Classifier
	if strings.TrimSpace(cfg.ClassifyURL) != "" {
		built, err := classify.New(cfg.ClassifyURL, cfg.BridgeSecret)
		if err != nil {
			return fmt.Errorf("build classifier: %w", err)
		}
		classifier = built
	}

	var bridgeClient *bridge.Client
	if strings.TrimSpace(cfg.BridgeURL) != "" {
		built, err := bridge.NewClient(cfg.BridgeURL, cfg.BridgeSecret)
		if err != nil {
			return fmt.Errorf("build bridge client: %w", err)
		}
		bridgeClient = built
	}

	appsSvc := &applications.Service{
		Repo:       app.ApplicationsRepo,
		Classifier: classifier,
		MaxRetries: cfg.MaxRetries,
	}

	dispatcher := &dispatch.Dispatcher{
		Apps:     appsSvc,
		Notifier: notifier,
		Resumes:  app.ResumesRepo,
		URLs:     urls,
	}

	executor := &pipeline.Executor{
		Apps:       appsSvc,
		Repo:       app.ApplicationsRepo,
		Clients:    app.ClientsRepo,
		Resumes:    app.ResumesRepo,
		URLs:       urls,
		Discoverer: discovery.PatternDiscoverer{},
		Generator:  generation.TemplateGenerator{},
		Bridge:     bridgeClient,
		Dispatcher: dispatcher,
	}

	processor := queue.NewProcessor(app.QueueRepo, appsSvc, executor, cfg.PollInterval, cfg.CleanupRetention)
	appsSvc.Queue = processor

	app.Applications = appsSvc
	app.Dispatcher = dispatcher
	app.Executor = executor
	app.Processor = processor
	app.Approvals = &approvals.Service{
		Apps:       appsSvc,
		Repo:       app.ApplicationsRepo,
		Dispatcher: dispatcher,
	}
	app.Callbacks = &bridge.CallbackService{
		Apps: appsSvc,
		Repo: app.ApplicationsRepo,
	}
	app.Maintenance = &queue.Maintenance{
		Repo: app.QueueRepo,
		Apps: appsSvc,
	}
	app.Monitor = queue.NewMonitor(app.QueueRepo, cfg.StuckThreshold)

	app.ApplicationHandler = applications.NewHandler(appsSvc)
	app.ApprovalHandler = approvals.NewHandler(app.Approvals)
	app.CallbackHandler = bridge.NewHandler(app.Callbacks, cfg.CallbackSecret)
	app.QueueHandler = queue.NewHandler(app.Monitor, app.Maintenance, processor)

	return nil
}
