package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"intake-backend/internal/activitylog"
	"intake-backend/internal/admin"
	"intake-backend/internal/applications"
	"intake-backend/internal/attachments"
	"intake-backend/internal/notify"
	"intake-backend/internal/shared/config"
	"intake-backend/internal/shared/server"
	"intake-backend/internal/shared/storage/db"
	"intake-backend/internal/shared/storage/object"
	localstore "intake-backend/internal/shared/storage/object/local"
	s3store "intake-backend/internal/shared/storage/object/s3"
	"intake-backend/internal/wizard"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	Activity *activitylog.Log

	AppsRepo        applications.Repo
	AttachmentsRepo attachments.Repo

	AppsService        *applications.Service
	AttachmentsService *attachments.Service
	WizardService      *wizard.Service
	AdminService       *admin.Service

	NotifyClient *notify.Client
	Alerter      *notify.BestEffort

	WizardHandler *wizard.Handler
	AdminHandler  *admin.Handler
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Activity: activitylog.New(activitylog.DefaultCapacity),
	}

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		WizardHandler: app.WizardHandler,
		AdminHandler:  app.AdminHandler,
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

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.AppsRepo = &applications.PGRepo{DB: app.DB}
		app.AttachmentsRepo = &attachments.PGRepo{DB: app.DB}
	} else {
		app.AppsRepo = applications.NewMemoryRepo()
		app.AttachmentsRepo = attachments.NewMemoryRepo()
	}

	app.AppsService = applications.NewService(app.AppsRepo)
	app.AttachmentsService = attachments.NewService(app.AttachmentsRepo, app.Store, app.Activity, app.Config.MaxAttachmentBytes)

	app.NotifyClient = notify.NewClient(app.Config.NotifyBaseURL, app.Config.NotifyBotToken, app.Config.NotifyChatID)
	app.Alerter = &notify.BestEffort{
		Client:   app.NotifyClient,
		Activity: app.Activity,
		Location: loadLocation(app.Config.NotifyTimezone),
	}

	app.WizardService = wizard.NewService(wizard.NewSessions(), app.AppsService, app.AttachmentsService, app.Alerter)
	app.AdminService = admin.NewService(app.AppsService, app.AttachmentsService, app.Activity)

	app.WizardHandler = wizard.NewHandler(app.WizardService)
	app.AdminHandler = admin.NewHandler(app.AdminService)
}

func loadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("bootstrap: unknown timezone %q, using UTC", name)
		return time.UTC
	}
	return loc
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
