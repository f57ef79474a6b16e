package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerfiles "github.com/swaggo/files"
	swagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/gfornaciari/ebook-subscribe-api/docs"
	"github.com/gfornaciari/ebook-subscribe-api/internal/config"
	"github.com/gfornaciari/ebook-subscribe-api/internal/emailer"
	"github.com/gfornaciari/ebook-subscribe-api/internal/handlers/health"
	"github.com/gfornaciari/ebook-subscribe-api/internal/handlers/subscription"
	"github.com/gfornaciari/ebook-subscribe-api/internal/metrics"
	"github.com/gfornaciari/ebook-subscribe-api/internal/middleware"
	"github.com/gfornaciari/ebook-subscribe-api/internal/models"
	"github.com/gfornaciari/ebook-subscribe-api/internal/repository"
	"github.com/gfornaciari/ebook-subscribe-api/internal/repository/mongo"
	"github.com/gfornaciari/ebook-subscribe-api/internal/repository/sqlite"
	"github.com/gfornaciari/ebook-subscribe-api/internal/services/subscriptions"
	"github.com/gfornaciari/ebook-subscribe-api/internal/templates"
	"github.com/gfornaciari/ebook-subscribe-api/pkg/logger"
)

const (
	timeoutDuration = 5 * time.Second

	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

var ErrUnknownStoreDriver = errors.New("unknown store driver")

type subscriberStore interface {
	Upsert(ctx context.Context, email, name string) error
	FindByEmail(ctx context.Context, email string) (models.Subscriber, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type ServiceContainer struct {
	Store               subscriberStore
	Mailer              *emailer.BreakerSender
	SubscriptionService *subscriptions.Service

	Router     *gin.Engine
	Srv        *http.Server
	fileLogger *zap.Logger
}

type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metrics.Metrics
}

func New(cfg config.Config, logger zerolog.Logger, m *metrics.Metrics) *App {
	logger = logger.Hook(middleware.RequestIDHook{}).With().Str("service", "subscribe-api").Logger()
	return &App{cfg: cfg, l: logger, m: m}
}

// Start serves HTTP until ctx is canceled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	c, err := a.Init()
	if err != nil {
		return err
	}

	lc := net.ListenConfig{}
	lis, err := lc.Listen(context.WithoutCancel(ctx), "tcp", c.Srv.Addr)
	if err != nil {
		_ = c.Store.Close(ctx)
		return fmt.Errorf("listen %s: %w", c.Srv.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.l.Info().Str("http_addr", c.Srv.Addr).Msg("HTTP server listening")
		if err := c.Srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		a.l.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			a.l.Error().Err(err).Msg("HTTP server error")
			_ = a.Stop(c)
			return err
		}
	}

	return a.Stop(c)
}

func (a *App) Init() (ServiceContainer, error) {
	a.l.Info().
		Str("store_driver", a.cfg.Store.Driver).
		Str("smtp_host", a.cfg.SMTP.Host).
		Strs("cors_origins", a.cfg.CORS.AllowedOrigins).
		Msg("Initializing application")

	store, err := NewStore(a.cfg.Store, a.l)
	if err != nil {
		return ServiceContainer{}, err
	}
	instrumented := repository.NewMetricsDecorator(store, a.cfg.Store.Driver, a.m)

	fileLogger, err := logger.NewFileLogger(a.cfg.MailAuditPath)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("mail audit logger: %w", err)
	}

	smtpService := emailer.NewSMTPService(a.cfg.SMTP, fileLogger, a.l)
	mailer := emailer.NewBreakerSender("smtp", smtpService, a.cfg.Breaker)

	builder := templates.NewBuilder(a.cfg.Brand)
	subSvc := subscriptions.NewService(instrumented, mailer, builder, a.m, a.l)

	c := ServiceContainer{
		Store:               instrumented,
		Mailer:              mailer,
		SubscriptionService: subSvc,
		fileLogger:          fileLogger,
	}
	c.Router = a.router(c)
	c.Srv = &http.Server{
		Addr:              a.cfg.ServerAddress(),
		Handler:           c.Router,
		ReadTimeout:       time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}
	a.l.Info().Str("http_addr", c.Srv.Addr).Msg("HTTP server configured")

	return c, nil
}

func (a *App) router(c ServiceContainer) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(a.l),
		a.m.HTTPMiddleware(),
	)

	subHandler := subscription.NewHandler(c.SubscriptionService, a.m, a.cfg.Server.RequestTimeoutDuration(), a.l)
	healthHandler := health.NewHandler(c.Store, a.l)

	api := router.Group("/api", middleware.CORS(a.cfg.CORS.AllowedOrigins))
	{
		api.POST("/subscribe", subHandler.Subscribe)
		api.OPTIONS("/subscribe", subHandler.Preflight)
	}

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(a.m.Handler()))
	router.GET("/swagger/*any", swagger.WrapHandler(swaggerfiles.Handler))

	return router
}

func (a *App) Stop(c ServiceContainer) error {
	a.l.Info().Msg("Stopping application")

	ctx, cancel := context.WithTimeout(context.Background(), timeoutDuration)
	defer cancel()

	var errs []error
	if err := c.Srv.Shutdown(ctx); err != nil {
		a.l.Error().Err(err).Msg("HTTP shutdown error")
		errs = append(errs, err)
	} else {
		a.l.Info().Msg("HTTP server stopped")
	}

	if err := c.Store.Close(ctx); err != nil {
		a.l.Error().Err(err).Msg("Store close error")
		errs = append(errs, err)
	} else {
		a.l.Info().Msg("Store closed")
	}

	_ = c.fileLogger.Sync()

	a.l.Info().Msg("Application shutdown complete")
	return errors.Join(errs...)
}

// NewStore selects the subscriber store implementation. Neither dials until first use.
func NewStore(cfg config.Store, l zerolog.Logger) (subscriberStore, error) { //nolint:ireturn
	switch cfg.Driver {
	case DriverMongo:
		return mongo.NewSubscriberRepository(mongo.Config{
			URI:            cfg.MongoURI,
			Database:       cfg.Database,
			Collection:     cfg.Collection,
			ConnectTimeout: cfg.ConnectTimeoutDuration(),
		}, l), nil
	case DriverSQLite:
		return sqlite.NewSubscriberRepository(cfg.SQLitePath, cfg.ConnectTimeoutDuration(), l), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStoreDriver, cfg.Driver)
	}
}
