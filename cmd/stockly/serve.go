package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"stockly/pkg/inventory/infrastructure/transport"
)

const shutdownTimeout = 10 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve the REST API and the gRPC health service",
		Action: withInventory(func(c *cli.Context, cfg *config, cont *container) error {
			return serve(c.Context, cfg, cont)
		}),
	}
}

func serve(ctx context.Context, cfg *config, cont *container) error {
	restServer := &http.Server{
		Addr:              cfg.ServeRESTAddress,
		Handler:           transport.Router(cont.inventory, cont.loc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.ServeGRPCAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", cfg.ServeGRPCAddress)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithFields(log.Fields{"url": cfg.ServeRESTAddress}).Info("Starting REST server")
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "REST server failed")
		}
		return nil
	})

	g.Go(func() error {
		log.WithFields(log.Fields{"url": cfg.ServeGRPCAddress}).Info("Starting gRPC server")
		healthServer.SetServingStatus(appID, grpc_health_v1.HealthCheckResponse_SERVING)
		return errors.Wrap(grpcServer.Serve(lis), "gRPC server failed")
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down...")

		healthServer.Shutdown()
		grpcServer.GracefulStop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(restServer.Shutdown(shutdownCtx), "failed to shut down REST server")
	})

	return g.Wait()
}
