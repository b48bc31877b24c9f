package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gompdf/cutticket/internal/blob"
	"github.com/gompdf/cutticket/internal/cache"
	"github.com/gompdf/cutticket/internal/cache/redis"
	"github.com/gompdf/cutticket/internal/config"
	"github.com/gompdf/cutticket/internal/server"
	"github.com/gompdf/cutticket/internal/sketch"
	"github.com/gompdf/cutticket/internal/store"
	"github.com/gompdf/cutticket/internal/store/postgres"
	"github.com/gompdf/cutticket/internal/store/sqlite"
	"github.com/gompdf/cutticket/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		listen  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the production tracker HTTP service",
		Long: `Serves the record API, attachment uploads, cut-ticket downloads and
sketch generation.

The store, blob directory, cache and sketch provider come from the
configuration file and the CUTTICKET_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Server.Listen = listen
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, cleanup, err := buildServer(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer cleanup()
			return srv.Run(ctx, a.cfg.Server.Listen, timeout)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (overrides server.listen)")
	cmd.Flags().DurationVar(&timeout, "shutdown-timeout", 15*time.Second, "Graceful shutdown timeout")
	return cmd
}

// buildServer wires the service from cfg. cleanup releases everything that
// was opened, in reverse order.
func buildServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (srv *server.Server, cleanup func(), err error) {
	var closers []func() error
	cleanup = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if cerr := closers[i](); cerr != nil {
				logger.Warn("cleanup failed", zap.Error(cerr))
			}
		}
	}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	st, err := openStore(ctx, cfg.Store, logger.Named("store"))
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, st.Close)

	filesURL := strings.TrimSuffix(cfg.Server.PublicURL, "/") + "/files/"
	blobs, err := blob.NewLocal(cfg.Blobs.Dir, filesURL, logger.Named("blob"))
	if err != nil {
		return nil, nil, err
	}

	opts, err := exportOptions(cfg.Export, logger.Named("export"))
	if err != nil {
		return nil, nil, err
	}
	exporter, err := api.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, exporter.Close)
	// uploaded attachments are read straight from the blob directory
	exporter.Loader().Mount(blobs.BaseURL(), blobs.FS())

	var c cache.Cache = cache.Noop{}
	if cfg.Cache.RedisAddr != "" {
		rc, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.CacheTTL(),
		}, logger.Named("cache"))
		if err != nil {
			return nil, nil, err
		}
		c = rc
	}
	closers = append(closers, c.Close)

	gen, err := newGenerator(ctx, cfg.Sketch, exporter, logger.Named("sketch"))
	if err != nil {
		return nil, nil, err
	}

	srv = server.New(server.Deps{
		Store:        st,
		Blobs:        blobs,
		Exporter:     exporter,
		Files:        blobs.Handler(),
		Cache:        c,
		CacheVariant: fmt.Sprintf("%s-%s-%g", cfg.PageSize().Name, cfg.Export.Backend, cfg.Export.Density),
		Sketches:     gen,
		Logger:       logger.Named("server"),
	})
	return srv, cleanup, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(ctx, cfg.DatabaseURL, logger)
	case "sqlite":
		return sqlite.Open(ctx, cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newGenerator returns nil when sketches are disabled
func newGenerator(ctx context.Context, cfg config.SketchConfig, exporter *api.Exporter, logger *zap.Logger) (sketch.Generator, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "function":
		return sketch.NewFunctionClient(cfg.URL, cfg.APIKey, nil, logger), nil
	case "genai":
		return sketch.NewGenAIGenerator(ctx, sketch.GenAIConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.Model,
		}, exporter.Loader(), logger)
	default:
		return nil, fmt.Errorf("unknown sketch provider %q", cfg.Provider)
	}
}
