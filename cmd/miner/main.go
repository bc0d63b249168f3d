/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lease-mining-go/internal/common"
	"lease-mining-go/internal/config"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	startFlag := flag.Bool("start", false, "Start mining immediately if any server is leased")
	noResumeFlag := flag.Bool("no-resume", false, "Do not resume mining even if the saved state was mining")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting miner",
		zap.String("backend", cfg.Store.Backend),
		zap.Duration("tick_interval", cfg.Mining.TickInterval))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := services.Api.HealthCheck(ctx); err != nil {
		zap.L().Fatal("Store health check failed", zap.Error(err))
	}

	if err := services.Scheduler.Register(cfg.Mining.ReconcileCron); err != nil {
		zap.L().Fatal("Failed to schedule housekeeping", zap.Error(err))
	}
	services.Scheduler.Start()
	services.Scheduler.Housekeep()

	if cfg.Mining.AutoResume && !*noResumeFlag {
		if _, err := services.Api.Resume(ctx); err != nil {
			zap.L().Error("Failed to resume mining", zap.Error(err))
		}
	}
	if *startFlag && !services.Engine.Running() {
		if !services.Api.StartMining(ctx) {
			for _, n := range services.Api.Notices(time.Now()) {
				zap.L().Warn("Mining not started", zap.String("reason", n.Message))
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", services.Metrics.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := services.Api.HealthCheck(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		server := &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			zap.L().Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-sigChan:
			zap.L().Info("Shutdown signal received, stopping miner...")
		case <-gctx.Done():
		}
		cancel()
		return nil
	})

	zap.L().Info("Miner running",
		zap.String("mining", services.Engine.State().String()),
		zap.String("balance", services.Ledger.Balance().String()))
	zap.L().Info("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		zap.L().Error("Miner exited with error", zap.Error(err))
	}

	// The tick loop exits with ctx; the saved mining flag is kept so the
	// next start resumes.
	services.Engine.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	services.Scheduler.Stop(shutdownCtx)

	if err := services.Ledger.Reconcile(); err != nil {
		zap.L().Warn("Ledger out of balance at shutdown", zap.Error(err))
	}

	zap.L().Info("Miner stopped",
		zap.String("balance", services.Ledger.Balance().String()),
		zap.Int("transactions", len(services.Ledger.Snapshot().Transactions)))
}
