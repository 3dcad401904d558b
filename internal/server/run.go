package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"carpool/internal/cache"
	"carpool/internal/config"
	"carpool/internal/logger"
	"carpool/internal/metrics"
)

// App bundles everything the serve command runs.
type App struct {
	Dispatcher *Dispatcher
	Server     *Server
	Janitor    *Janitor
	Admin      *Admin // nil when disabled

	addr string
	log  *logger.Logger
}

// NewApp wires a fresh cache and its collaborators from cfg.
func NewApp(cfg *config.Config, log *logger.Logger) *App {
	if log == nil {
		log = logger.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	c := cache.New(cache.Config{TTL: cfg.Cache.TTLSeconds()})
	d := NewDispatcher(c, m, log)

	app := &App{
		Dispatcher: d,
		Server: NewServer(d, ServerOptions{
			IdleTimeout:  cfg.Server.IdleTimeout,
			MaxLineBytes: cfg.Server.MaxLineBytes,
		}, m, log),
		Janitor:    NewJanitor(d, cfg.Cache.PruneInterval, log),
		addr:       cfg.Server.Address(),
		log:        log,
	}
	if cfg.Admin.Addr != "" {
		app.Admin = NewAdmin(cfg.Admin.Addr, d, reg, log)
	}
	return app
}

// Run starts the listener, the janitor and the admin server, and blocks until
// ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return a.Server.ListenAndServe(gctx, a.addr) })
	g.Go(func() error { return a.Janitor.Run(gctx) })
	if a.Admin != nil {
		g.Go(func() error { return a.Admin.Run(gctx) })
	}

	err := g.Wait()
	if err != nil {
		a.log.Error(ctx, "server stopped", zap.Error(err))
		return err
	}
	a.log.Info(ctx, "server stopped")
	return nil
}
