package app

import (
	"context"
	"document-access/internal/config"
	"document-access/internal/domain/services"
	"document-access/internal/infrastructure/cache"
	"document-access/internal/infrastructure/database"
	"document-access/internal/infrastructure/database/repositories"
	"document-access/internal/infrastructure/mail"
	"document-access/internal/infrastructure/memory"
	"document-access/internal/interfaces/handlers"
	"document-access/pkg/logger"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Container holds the wired services shared by the server and the
// one-shot sweeper.
type Container struct {
	Access        *services.AccessService
	Notifications *services.NotificationService
	Expiry        *services.ExpiryService
	Statistics    *services.StatisticService
	Sweeper       *services.Sweeper

	db    *database.DB
	redis *cache.RedisCache
}

// Build opens the database, applies migrations and wires every service.
// Redis is optional; without it documents are not cached and locks only
// serialize work inside this process.
func Build(ctx context.Context, cfg config.Config) (*Container, error) {
	loc, err := cfg.Access.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Container{db: db}

	var (
		locker   services.Locker = memory.NewLocker()
		cacheSvc services.CacheService
	)
	if cfg.Redis.Addr != "" {
		c.redis, err = cache.NewRedisCache(cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		locker = c.redis
		cacheSvc = services.NewRedisCacheService(c.redis, cfg.Redis.CacheDuration)
	} else {
		logger.Warn("redis not configured, using process-local locks")
	}

	opts := []services.Option{
		services.WithLogger(logger.Logger),
		services.WithLocation(loc),
	}
	notifyCfg := services.NotificationConfig{
		FromEmail:     cfg.Mail.FromEmail,
		FromName:      cfg.Mail.FromName,
		GrantSubject:  cfg.Mail.Subject,
		ExpirySubject: cfg.Mail.ExpirySubject,
		LoginURL:      cfg.Mail.LoginURL,
		LockTTL:       cfg.Access.LockTTL,
	}

	accessRepo := repositories.NewAccessRepository(db)
	userRepo := repositories.NewUserRepository(db)
	statRepo := repositories.NewStatisticRepository(db)
	mailer := mail.NewSMTPMailer(cfg.Mail)

	catalog := services.NewCatalogService(repositories.NewDocumentRepository(db), cacheSvc, opts...)
	c.Access = services.NewAccessService(accessRepo, catalog, locker, opts...)
	c.Notifications = services.NewNotificationService(accessRepo, userRepo, catalog, mailer, locker, notifyCfg, opts...)
	c.Expiry = services.NewExpiryService(accessRepo, userRepo, catalog, mailer, locker, notifyCfg, opts...)
	c.Statistics = services.NewStatisticService(statRepo, catalog, locker, cfg.Statistic.Window, opts...)
	c.Sweeper = services.NewSweeper(c.Notifications, c.Expiry, services.SweeperConfig{
		Interval: cfg.Access.SweepInterval,
		Horizon:  cfg.Access.ExpiryHorizon,
	}, opts...)

	return c, nil
}

func (c *Container) Close() error {
	var errs []error
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	errs = append(errs, c.db.Close())
	return errors.Join(errs...)
}

func initLogger(cfg config.Config) error {
	return logger.InitLogger(cfg.Env, cfg.Log.Level, logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
}

func Run(cfg config.Config) error {
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Env != "dev" && cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	router := handlers.NewRouter(handlers.Handlers{
		Access:    handlers.NewAccessHandler(c.Access, c.Notifications),
		Statistic: handlers.NewStatisticHandler(c.Statistics),
		Admin:     handlers.NewAdminHandler(c.Sweeper),
	}, handlers.AuthMiddleware(cfg.Auth.JWTSecret, cfg.Auth.AdminGroups), logger.Logger)

	c.Sweeper.Start(ctx)
	defer c.Sweeper.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port), zap.String("database", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Sweep runs one notification and expiry pass and exits.
func Sweep(cfg config.Config) error {
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := Build(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	report, err := c.Sweeper.RunOnce(ctx)
	logger.Info("sweep done",
		zap.Int("granted_or_rejected_sent", report.Notifications.Sent),
		zap.Int("expiry_sent", report.Expiry.Sent),
	)
	return err
}
