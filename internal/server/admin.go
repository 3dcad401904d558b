package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"carpool/internal/logger"
)

const adminShutdownTimeout = 5 * time.Second

// Admin serves /metrics, /healthz and /stats over HTTP.
type Admin struct {
	addr string
	e    *echo.Echo
	log  *logger.Logger
}

// NewAdmin builds the admin HTTP surface for d, exposing the collectors in g.
func NewAdmin(addr string, d *Dispatcher, g prometheus.Gatherer, log *logger.Logger) *Admin {
	if log == nil {
		log = logger.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{})))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/stats", func(c echo.Context) error {
		return c.JSON(http.StatusOK, d.Stats())
	})

	return &Admin{addr: addr, e: e, log: log}
}

// Handler exposes the router, mostly for tests.
func (a *Admin) Handler() http.Handler {
	return a.e
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *Admin) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "admin listening", zap.String("addr", a.addr))
		errCh <- a.e.Start(a.addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), adminShutdownTimeout)
	defer cancel()
	if err := a.e.Shutdown(shutdownCtx); err != nil {
		a.log.Warn(ctx, "admin shutdown", zap.Error(err))
		return err
	}
	return nil
}
