package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/tablefn/internal/bootstrap"
	"github.com/alfredjeanlab/tablefn/internal/export"
	"github.com/alfredjeanlab/tablefn/internal/handlers"
	"github.com/alfredjeanlab/tablefn/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Serve every domain behind a local HTTP gateway",
	GroupID: "run",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		app, err := bootstrap.New(ctx, cfg, logger, "tablefn-serve")
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				logger.Error("error closing app", "err", err)
			}
		}()

		var hs []server.EventHandler
		for _, h := range app.Handlers() {
			hs = append(hs, h)
			logger.Debug("routes", "domain", h.Domain(), "routes", h.Routes())
		}
		gateway := server.NewGateway(logger, hs...)
		grpcServer, health := server.NewGRPCServer(handlers.Domains, cfg.AuthToken, logger)

		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		go func() {
			logger.Info("gRPC health server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC server error", "err", err)
			}
		}()

		httpServer := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           server.NewHTTPHandler(gateway, cfg.AuthToken, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP gateway listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the export scheduler when an interval is configured.
		var scheduler *export.Scheduler
		if cfg.ExportInterval > 0 {
			var dests []export.Destination
			if cfg.ExportS3Bucket != "" {
				s3Dest, err := export.NewS3Destination(ctx, cfg.ExportS3Bucket, cfg.ExportS3Prefix, cfg.Region, cfg.ExportS3Endpoint)
				if err != nil {
					logger.Error("failed to create S3 export destination", "err", err)
				} else {
					dests = append(dests, s3Dest)
					logger.Info("export S3 destination enabled", "bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3Prefix)
				}
			}
			if exportDir != "" {
				dirDest, err := export.NewDirDestination(exportDir)
				if err != nil {
					logger.Error("failed to create export directory", "err", err)
				} else {
					dests = append(dests, dirDest)
					logger.Info("export directory enabled", "dir", exportDir)
				}
			}
			if len(dests) > 0 {
				scheduler = export.NewScheduler(app.Store, app.Targets(), dests, cfg.ExportInterval, logger)
				scheduler.Start()
				logger.Info("export scheduler started", "interval", cfg.ExportInterval)
			}
		}

		logger.Info("tablefn server started",
			"backend", cfg.Backend,
			"http_addr", cfg.HTTPAddr,
			"grpc_addr", cfg.GRPCAddr,
		)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case <-ctx.Done():
		}

		health.Shutdown()

		if scheduler != nil {
			scheduler.Stop()
			logger.Info("export scheduler stopped")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP gateway stopped")

		grpcServer.GracefulStop()
		logger.Info("gRPC server stopped")

		logger.Info("shutdown complete")
		return nil
	},
}

var exportDir string

func init() {
	serveCmd.Flags().StringVar(&exportDir, "export-dir", "", "also write scheduled snapshots to this directory")
}
