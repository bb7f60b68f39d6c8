// Package app wires configuration, storage, media, events and HTTP into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Eswarhead/handcrafted-marketplace/internal/config"
	"github.com/Eswarhead/handcrafted-marketplace/internal/handlers"
	"github.com/Eswarhead/handcrafted-marketplace/internal/middleware"
	"github.com/Eswarhead/handcrafted-marketplace/internal/services"
	"github.com/Eswarhead/handcrafted-marketplace/pkg/media"
	"github.com/Eswarhead/handcrafted-marketplace/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App is the assembled service.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	http   *fiber.App
	stores *stores
	events *rabbitmq.Client

	closeEventsOnce sync.Once
	closeEventsErr  error
}

// New builds the service from cfg. Call Close when done.
func New(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*App, error) {
	st, err := openStores(ctx, cfg.Database, lg)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, logger: lg, stores: st}

	store, err := a.mediaStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	opts := []services.CatalogOption{services.WithLogger(lg)}
	if cfg.RabbitMQ.URL != "" {
		a.events, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue}, lg)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		opts = append(opts, services.WithEvents(a.events))
	} else {
		lg.Info("RABBITMQ_URL not set, catalog events disabled")
	}

	authService := services.NewAuthService(st.users, cfg.JWT.Secret, cfg.JWT.TTL, lg)
	catalogService := services.NewCatalogService(st.products, store, opts...)

	a.http = newHTTP(cfg, lg, authService, catalogService)
	return a, nil
}

// mediaStore routes images to S3 when MEDIA_REMOTE_URL is set and to disk otherwise.
// Videos are always written to disk.
func (a *App) mediaStore(ctx context.Context) (media.Store, error) {
	local := media.NewLocalStore(a.cfg.Media.UploadDir, a.cfg.Media.PublicBaseURL+handlers.UploadsPrefix)
	if err := local.EnsureDirs(); err != nil {
		return nil, err
	}

	var images media.Store = local
	if a.cfg.Media.RemoteURL != "" {
		s3cfg, err := media.ParseS3URL(a.cfg.Media.RemoteURL)
		if err != nil {
			return nil, fmt.Errorf("invalid MEDIA_REMOTE_URL: %w", err)
		}
		remote, err := media.NewS3Store(ctx, s3cfg)
		if err != nil {
			return nil, err
		}
		a.logger.Info("remote image storage enabled", zap.String("endpoint", s3cfg.Endpoint), zap.String("bucket", s3cfg.Bucket))
		images = remote
	}
	return media.NewRouter(images, local, a.cfg.Media.Timeout, a.logger), nil
}

func newHTTP(cfg *config.Config, lg *zap.Logger, auth *services.AuthService, catalog *services.CatalogService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "handcrafted-marketplace",
		BodyLimit:             cfg.Media.MaxUploadBytes,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(lg))

	authRequired := middleware.AuthRequired(auth)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"msg": "handcrafted marketplace backend running"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handlers.NewAuthHandler(auth, lg).RegisterRoutes(app, authRequired)
	handlers.NewCatalogHandler(catalog, lg).RegisterRoutes(app, authRequired)
	handlers.NewMediaHandler(cfg.Media.UploadDir).RegisterRoutes(app)

	return app
}

// HTTP returns the fiber app, mainly for tests.
func (a *App) HTTP() *fiber.App { return a.http }

// Run serves HTTP and consumes catalog events until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting server", zap.String("addr", a.cfg.App.Port))
		if err := a.http.Listen(a.cfg.App.Port); err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	if events := a.events; events != nil {
		g.Go(func() error {
			return events.ConsumeEvents(func(env rabbitmq.Envelope) error {
				a.logger.Info("catalog event", zap.String("type", env.Type), zap.Time("occurred_at", env.OccurredAt), zap.ByteString("data", env.Data))
				return nil
			})
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("shutting down server")
		if err := a.http.ShutdownWithTimeout(shutdownTimeout); err != nil {
			a.logger.Error("error during server shutdown", zap.Error(err))
		}
		// Closing the channel ends the consumer loop.
		if err := a.closeEvents(); err != nil {
			a.logger.Warn("error closing RabbitMQ client", zap.Error(err))
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the database and broker connections.
func (a *App) Close() error {
	errs := []error{a.closeEvents()}
	if a.stores != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		errs = append(errs, a.stores.close(ctx))
	}
	return errors.Join(errs...)
}

func (a *App) closeEvents() error {
	a.closeEventsOnce.Do(func() {
		if a.events != nil {
			a.closeEventsErr = a.events.Close()
		}
	})
	return a.closeEventsErr
}
