package command

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/bindplan/internal/core/domain"
	"github.com/yndnr/bindplan/internal/infra/buildinfo"
	"github.com/yndnr/bindplan/internal/infra/confloader"
	"github.com/yndnr/bindplan/internal/infra/shutdown"
	"github.com/yndnr/bindplan/internal/server/bootstrap"
	"github.com/yndnr/bindplan/internal/server/config"
	"github.com/yndnr/bindplan/internal/server/httpserver"
	"github.com/yndnr/bindplan/internal/server/listen"
	"github.com/yndnr/bindplan/internal/telemetry/logger"
	"github.com/yndnr/bindplan/internal/telemetry/metric"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// ServeCommand binds the planned endpoints and serves them.
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Bind the planned endpoints and serve until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status-addr",
				Usage: "Address of the status and metrics listener (overrides status.addr)",
			},
			&cli.DurationFlag{
				Name:  "shutdown-timeout",
				Usage: "Time allowed for graceful shutdown",
				Value: DefaultShutdownTimeout,
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, loader, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("status-addr") {
		cfg.Status.Addr = c.String("status-addr")
	}
	l, err := initLogger(c, cfg)
	if err != nil {
		return err
	}

	l.Info("starting bindplan-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", loader.FilePath(),
	)
	l.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.Global()
	p, err := bootstrap.New(cfg, bootstrap.WithLogger(l), bootstrap.WithMetrics(metrics))
	if err != nil {
		return err
	}

	transport := listen.NewNetTransport(net.ListenConfig{})
	res, err := p.Bind(c.Context, transport)
	if err != nil {
		l.Error("bind failed", "error", err, "code", domain.GetErrorCode(err))
		stopWatchers(p)
		if cerr := transport.Close(); cerr != nil {
			l.Warn("closing bound listeners", "error", cerr)
		}
		return err
	}
	l.Info("endpoints bound", "strategy", res.Strategy().String(), "count", len(res.Bound()))

	sh := shutdown.NewHandler(c.Duration("shutdown-timeout"))

	for _, w := range p.Watchers() {
		w.StartAsync()
	}
	sh.OnShutdown("certificate watchers", func(context.Context) error {
		stopWatchers(p)
		return nil
	})

	routes := &httpserver.RouterConfig{State: res, Metrics: metrics, Logger: l}

	endpoints := httpserver.New(httpserver.NewEndpointRouter(routes), httpserver.WithLogger(l))
	go func() {
		if err := endpoints.Serve(transport.Listeners()); err != nil {
			l.Error("endpoint server error", "error", err)
			sh.Trigger()
		}
	}()
	sh.OnShutdown("endpoint server", endpoints.Shutdown)

	if cfg.Status.Addr != "" {
		status := httpserver.New(httpserver.NewStatusRouter(routes), httpserver.WithLogger(l))
		go func() {
			if err := status.ListenAndServe(cfg.Status.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.Error("status server error", "error", err)
				sh.Trigger()
			}
		}()
		sh.OnShutdown("status server", status.Shutdown)
	}

	if path := loader.FilePath(); path != "" {
		w, err := watchLogLevel(path, l)
		if err != nil {
			l.Warn("configuration watch disabled", "error", err)
		} else {
			sh.OnShutdown("configuration watcher", func(context.Context) error { return w.Stop() })
		}
	}

	l.Info("server started, press Ctrl+C to stop")
	err = sh.WaitContext(c.Context)
	l.Info("shutting down", "reason", sh.Reason())
	if err != nil {
		l.Error("shutdown error", "error", err)
		return err
	}
	l.Info("server stopped gracefully")
	return nil
}

func stopWatchers(p *bootstrap.Pipeline) {
	for _, w := range p.Watchers() {
		w.Stop()
	}
}

// watchLogLevel re-reads the configuration file when it changes and
// applies its log level. Other settings take effect on restart.
func watchLogLevel(path string, l logger.Logger) (*confloader.Watcher, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(l))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}
	w.OnChange(func(string) {
		reloadLogLevel(path, l)
	})
	w.StartAsync()
	return w, nil
}

func reloadLogLevel(path string, l logger.Logger) {
	cfg := config.Default()
	if err := confloader.NewLoader(confloader.WithConfigFile(path)).Load(cfg); err != nil {
		l.Warn("configuration reload failed", "error", err)
		return
	}
	if err := config.Verify(cfg); err != nil {
		l.Warn("reloaded configuration is invalid", "error", err)
		return
	}
	if cfg.Log.Level == logger.GetLevel() {
		return
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		l.Warn("log level not changed", "error", err)
		return
	}
	l.Info("log level changed", "level", logger.GetLevel())
}
