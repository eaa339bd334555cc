package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/df-mc/dragonfly/server"
	"github.com/df-mc/dragonfly/server/entity"
	"github.com/df-mc/dragonfly/server/world"
	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oriumgames/autoload"
)

// runServer starts the server and fires every lifecycle trigger, then accepts
// players until ctx is cancelled.
func runServer(ctx context.Context, opts *rootOptions, log *slog.Logger) error {
	h, err := setup(opts, log)
	if err != nil {
		return err
	}
	s, _ := h.store.Settings()

	h.engine.Trigger(autoload.PreStart)

	conf, err := readServerConfig(opts.ServerConfig, log)
	if err != nil {
		return err
	}

	seed := time.Now().UnixNano()
	conf.Generator = levelGenerator(h, conf.Generator, seed)

	srv := conf.New()
	h.engine.Trigger(autoload.Starting)

	worlds := autoload.WorldsFromServer(srv)

	if dim := s.LostCityDimension; dim != autoload.DefaultDimension {
		w := world.Config{
			Log:       log,
			Dim:       world.Overworld,
			Generator: h.system.Generator(dim, seed),
			Provider:  world.NopProvider{},
			Entities:  entity.DefaultRegistry,
		}.New()
		defer w.Close()

		worlds.Add(dim, w)
		h.engine.Trigger(autoload.LevelLoad)
		log.Info("autoload: created city dimension", "dimension", dim)
	}
	h.spawner.UseWorlds(worlds)

	if w, err := autoload.Watch(ctx, s.ProfileDirectory, log); err != nil {
		log.Warn("autoload: profile directory not watched", "error", err)
	} else {
		defer w.Close()
	}

	if opts.MetricsAddr != "" {
		stop := serveMetrics(opts.MetricsAddr, log)
		defer stop()
	}

	go func() {
		<-ctx.Done()
		if err := srv.Close(); err != nil {
			log.Error("autoload: failed to close server", "error", err)
		}
	}()

	srv.Listen()
	for p := range srv.Accept() {
		h.spawner.HandleJoin(p)
	}
	return nil
}

// readServerConfig reads the dragonfly config at path, writing the default
// config there first if the file does not exist.
func readServerConfig(path string, log *slog.Logger) (server.Config, error) {
	uc := server.DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		data, err = toml.Marshal(uc)
		if err != nil {
			return server.Config{}, fmt.Errorf("encode default server config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return server.Config{}, fmt.Errorf("write server config %s: %w", path, err)
		}
	case err != nil:
		return server.Config{}, fmt.Errorf("read server config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &uc); err != nil {
			return server.Config{}, fmt.Errorf("decode server config %s: %w", path, err)
		}
	}
	return uc.Config(log)
}

// serveMetrics serves the default registry over HTTP until the returned
// function is called.
func serveMetrics(addr string, log *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	hs := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("autoload: metrics server stopped", "error", err)
		}
	}()
	log.Info("autoload: serving metrics", "addr", addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(ctx)
	}
}

// levelGenerator returns the generator callback for the server's worlds. The
// generator registers its profiles when the overworld asks for it, and every
// world created through the callback fires LevelLoad.
func levelGenerator(h *host, fallback func(world.Dimension) world.Generator, seed int64) func(world.Dimension) world.Generator {
	return func(dim world.Dimension) world.Generator {
		var g world.Generator
		switch {
		case dim == world.Overworld:
			h.system.Init()
			g = h.system.Generator(autoload.Overworld, seed)
		case fallback != nil:
			g = fallback(dim)
		default:
			g = world.NopGenerator{}
		}
		h.engine.Trigger(autoload.LevelLoad)
		return g
	}
}
