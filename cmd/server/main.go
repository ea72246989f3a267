package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/xtding233/enhance-sim/internal/api"
	"github.com/xtding233/enhance-sim/internal/config"
	"github.com/xtding233/enhance-sim/internal/game"
	"github.com/xtding233/enhance-sim/internal/logger"
	"github.com/xtding233/enhance-sim/internal/metrics"
	"github.com/xtding233/enhance-sim/internal/rpc"
	"github.com/xtding233/enhance-sim/internal/service"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (defaults and ENHANCESIM_* env only when empty)")
	flag.Parse()

	if err := run(configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// logger
	if err := logger.Init(cfg.Logger); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(logger.Get())

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// rules and service
	loader := game.NewLoader(cfg.Rules.Dir)
	svc, err := service.New(loader, cfg.Rules.Profile, service.Options{
		MaxSessions:   cfg.Service.MaxSessions,
		MaxSearches:   cfg.Service.MaxSearches,
		SearchTTL:     time.Duration(cfg.Service.SearchTTL) * time.Second,
		SessionTTL:    time.Duration(cfg.Service.SessionTTL) * time.Second,
		PredictBudget: time.Duration(cfg.Service.PredictBudget) * time.Second,
		Metrics:       m,
	})
	if err != nil {
		return fmt.Errorf("init service: %w", err)
	}
	defer svc.Close()
	settings := svc.Settings()
	slog.Info("rules loaded", "profile", settings.Profile, "version", settings.Version)

	if cfg.Rules.Watch && cfg.Rules.Dir != "" {
		w, err := game.WatchLoader(loader, func(path string) {
			if err := svc.Reload(); err != nil {
				slog.Warn("rules reload failed, keeping previous rules", "path", path, "error", err)
				return
			}
			slog.Info("rules reloaded", "path", path)
		})
		if err != nil {
			return fmt.Errorf("watch rules: %w", err)
		}
		w.Start()
		defer w.Stop()
	}

	// interfaces
	gin.SetMode(cfg.HTTP.Mode)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      api.NewRouter(svc, m, cfg.Metrics.Path),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	var grpcSrv *grpc.Server
	if cfg.GRPC.Enabled {
		grpcSrv = rpc.NewGRPCServer(svc, m)
		reflection.Register(grpcSrv)
	}

	// start
	g, ctx := errgroup.WithContext(context.Background())

	if grpcSrv != nil {
		g.Go(func() error {
			lis, err := net.Listen("tcp", cfg.GRPC.Addr())
			if err != nil {
				return err
			}
			slog.Info("gRPC server starting", "addr", cfg.GRPC.Addr())
			return grpcSrv.Serve(lis)
		})
	}

	g.Go(func() error {
		slog.Info("HTTP server starting", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		select {
		case <-quit:
			slog.Info("shutting down servers...")
		case <-ctx.Done():
			slog.Info("context cancelled, shutting down...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server exited with error", "error", err)
		return err
	}
	return nil
}
