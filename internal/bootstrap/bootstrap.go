package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/schoolhub/internal/app/auth"
	appControllers "github.com/yigit/schoolhub/internal/app/controllers"
	"github.com/yigit/schoolhub/internal/app/integrity"
	appMigrations "github.com/yigit/schoolhub/internal/app/migrations"
	appRepos "github.com/yigit/schoolhub/internal/app/repositories"
	"github.com/yigit/schoolhub/internal/app/repositories/memory"
	"github.com/yigit/schoolhub/internal/app/repositories/mongostore"
	appRoutes "github.com/yigit/schoolhub/internal/app/routes"
	appServices "github.com/yigit/schoolhub/internal/app/services"
	"github.com/yigit/schoolhub/internal/config"
	"github.com/yigit/schoolhub/internal/db"
	appMiddleware "github.com/yigit/schoolhub/internal/middleware"
	pkgAuth "github.com/yigit/schoolhub/internal/pkg/auth"
	"github.com/yigit/schoolhub/internal/pkg/email"
	"github.com/yigit/schoolhub/internal/pkg/helpers"
	"github.com/yigit/schoolhub/internal/pkg/logger"
	"github.com/yigit/schoolhub/internal/pkg/ratelimit"
	"github.com/yigit/schoolhub/internal/pkg/session"
	"github.com/yigit/schoolhub/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	SessionStore sessions.Store
	Mailer       email.Sender
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	Gate         *appAuth.Gate
	Limiter      *ratelimit.Limiter

	AuthService              *appServices.AuthService
	UserService              *appServices.UserService
	CourseService            *appServices.CourseService
	EnrollmentService        *appServices.EnrollmentService
	EnrollmentRequestService *appServices.EnrollmentRequestService

	AuthMiddleware *appMiddleware.AuthMiddleware
	Controllers    *appRoutes.Controllers
	Logger         zerolog.Logger
}

// Storage is the selected backend and the hook that releases it
type Storage struct {
	Repos *appRepos.Repositories
	Close func(ctx context.Context) error
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	lgr := logger.Configure(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  strings.ToLower(cfg.Logging.Format),
		Service: "schoolhub",
	})
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage connects the configured backend, applies migrations where the backend has them
// and seeds the default data.
func SetupStorage(cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	var storage *Storage

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(cfg, component(lgr, "postgres"))
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		lgr.Info().Msg("Running database migrations...")
		if err := appMigrations.NewMigrator(cfg.GetPostgresConnectionString(), lgr).Up(); err != nil {
			database.Close()
			lgr.Error().Err(err).Msg("Database migration error")
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		storage = &Storage{
			Repos: appRepos.NewPostgresRepositories(database),
			Close: func(context.Context) error {
				database.Close()
				return nil
			},
		}

	case config.DriverMongo:
		lgr.Info().Str("database", cfg.Mongo.Database).Msg("Connecting to MongoDB...")
		mongoDB, err := db.NewMongoDB(cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to MongoDB")
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		repos, err := mongostore.NewRepositories(ctx, mongoDB.Database)
		if err != nil {
			_ = mongoDB.Close(context.Background())
			return nil, fmt.Errorf("failed to prepare mongo collections: %w", err)
		}
		storage = &Storage{Repos: repos, Close: mongoDB.Close}

	default:
		lgr.Warn().Msg("Using the in-memory store, data is lost on restart")
		storage = &Storage{
			Repos: memory.NewRepositories(),
			Close: func(context.Context) error { return nil },
		}
	}

	if cfg.Seed.Enabled {
		if err := seed.CreateDefaultData(context.Background(), storage.Repos, seed.DefaultTeacher{
			Name:     cfg.Seed.TeacherName,
			Email:    cfg.Seed.TeacherEmail,
			Password: cfg.Seed.TeacherPassword,
		}, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return storage, nil
}

// SetupSessionStore builds the server side session store. The returned func releases it.
func SetupSessionStore(cfg *config.Config, lgr zerolog.Logger) (sessions.Store, func() error, error) {
	maxAge := helpers.ParseDuration(cfg.Session.MaxAge, 24*time.Hour)
	secret := []byte(cfg.Session.Secret)

	if cfg.Session.Store == config.SessionStoreRedis {
		client, err := session.NewRedisClient(cfg.Session.RedisURL)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to redis")
			return nil, nil, err
		}
		store := session.NewRedisStore(client, secret)
		store.Options = session.CookieOptions(maxAge, cfg.Session.Secure)
		lgr.Info().Msg("Sessions stored in redis")
		return store, client.Close, nil
	}

	dir := cfg.Session.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "schoolhub-sessions")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	lgr.Info().Str("dir", dir).Msg("Sessions stored on the filesystem")
	return session.NewFilesystemStore(dir, session.CookieOptions(maxAge, cfg.Session.Secure), secret), func() error { return nil }, nil
}

// NewMailer returns the SMTP sender described by cfg
func NewMailer(cfg *config.Config, lgr zerolog.Logger) email.Sender {
	return email.NewSMTPSender(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.Port == 465,
	}, component(lgr, "email"))
}

// BuildDependencies initializes services, middleware and controllers over the given stores.
func BuildDependencies(cfg *config.Config, repos *appRepos.Repositories, store sessions.Store, mailer email.Sender, lgr zerolog.Logger) (*Dependencies, error) {
	if repos == nil || store == nil || mailer == nil {
		return nil, fmt.Errorf("repositories, session store and mailer are required")
	}
	deps := &Dependencies{
		Repos:        repos,
		SessionStore: store,
		Mailer:       mailer,
		Logger:       lgr,
	}

	resetTTL := helpers.ParseDuration(cfg.JWT.ResetTokenExpiration, 15*time.Minute)
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		ResetTokenExp:  resetTTL,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	rules := integrity.NewRules(repos)
	deps.AuthzService = appAuth.NewAuthorizationService(repos.CourseRepository)
	deps.Gate = appAuth.NewGate(deps.JWTService, store, cfg.Session.CookieName, cfg.Session.Secure)

	svcLog := component(lgr, "service")
	deps.AuthService = appServices.NewAuthService(repos.UserRepository, rules, deps.JWTService, mailer, cfg.Server.BaseURL, resetTTL, svcLog)
	deps.UserService = appServices.NewUserService(repos, rules, svcLog)
	deps.CourseService = appServices.NewCourseService(repos, rules, deps.AuthzService, svcLog)
	deps.EnrollmentService = appServices.NewEnrollmentService(repos.EnrollmentRepository, rules, svcLog)
	deps.EnrollmentRequestService = appServices.NewEnrollmentRequestService(repos, rules, deps.AuthzService, deps.EnrollmentService, svcLog)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Gate)

	ctrlLog := component(lgr, "controller")
	deps.Controllers = &appRoutes.Controllers{
		Auth:              appControllers.NewAuthController(deps.AuthService, deps.Gate, ctrlLog),
		User:              appControllers.NewUserController(deps.UserService, ctrlLog),
		Course:            appControllers.NewCourseController(deps.CourseService, ctrlLog),
		Enrollment:        appControllers.NewEnrollmentController(deps.EnrollmentService, ctrlLog),
		EnrollmentRequest: appControllers.NewEnrollmentRequestController(deps.EnrollmentRequestService, ctrlLog),
		Member:            appControllers.NewMemberController(deps.CourseService, deps.EnrollmentRequestService, ctrlLog),
	}

	if cfg.RateLimit.Enabled {
		deps.Limiter = ratelimit.NewLimiter(cfg.RateLimit.Requests, helpers.ParseDuration(cfg.RateLimit.Window, 15*time.Minute))
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	}

	router := gin.New()
	router.Use(appMiddleware.Recovery())
	router.Use(appMiddleware.RequestLogger(component(lgr, "http")))
	router.Use(appMiddleware.Metrics())
	if deps.Limiter != nil {
		router.Use(appMiddleware.RateLimit(deps.Limiter))
	}

	appRoutes.SetupSwagger(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}

// NewHandler wraps the router with CORS and tracing for the HTTP server
func NewHandler(cfg *config.Config, router http.Handler) http.Handler {
	return appMiddleware.WithCORS(appMiddleware.WithTracing(router, "schoolhub"), cfg.CORS.AllowedOrigins)
}

func component(lgr zerolog.Logger, name string) zerolog.Logger {
	return lgr.With().Str("component", name).Logger()
}
