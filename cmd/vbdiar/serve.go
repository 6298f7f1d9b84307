package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillsenselab/vbdiar/bootstrap"
	"github.com/skillsenselab/vbdiar/config"
	"github.com/skillsenselab/vbdiar/logger"
	"github.com/skillsenselab/vbdiar/observability"
	"github.com/skillsenselab/vbdiar/server"
	"github.com/skillsenselab/vbdiar/server/endpoint"
	"github.com/skillsenselab/vbdiar/service"
	"github.com/skillsenselab/vbdiar/sse"
	"github.com/skillsenselab/vbdiar/storage"
	_ "github.com/skillsenselab/vbdiar/storage/local"
	s3cfg "github.com/skillsenselab/vbdiar/storage/s3"
	"github.com/skillsenselab/vbdiar/util"
	"github.com/skillsenselab/vbdiar/version"
)

var serveFlags struct {
	configFile string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the resegmentation HTTP service",
	Long: `Run the HTTP service: a synchronous resegment endpoint, asynchronous
job endpoints, and an SSE stream of job progress. Configuration is read
from a YAML file, a .env file, and the environment.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.configFile, "config", "", "config file path")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	var cfg service.Config
	var loadOpts []config.LoaderOption
	if serveFlags.configFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(serveFlags.configFile))
	}
	if err := config.LoadConfig("vbdiar", &cfg, loadOpts...); err != nil {
		return err
	}

	app, err := bootstrap.NewApp(&cfg)
	if err != nil {
		return err
	}
	log := app.Logger
	log.Info("starting vbdiar", logger.Fields("version", version.Short()))

	// Observability first so spans and metrics cover startup.
	var metrics *observability.Metrics
	if cfg.Observability.Enabled {
		ctx := cmd.Context()
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Observability.Endpoint,
			Insecure:       cfg.Observability.Insecure,
			SampleRate:     cfg.Observability.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		mp, err := observability.InitMeter(ctx, &observability.MeterConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: cfg.Version,
			Environment:    cfg.Environment,
			Endpoint:       cfg.Observability.Endpoint,
			Insecure:       cfg.Observability.Insecure,
			Interval:       time.Duration(cfg.Observability.ExportIntervalSeconds) * time.Second,
		})
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		metrics, err = observability.NewMetrics(observability.Meter(cfg.Name))
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		app.OnStop(func(ctx context.Context) error {
			if err := mp.Shutdown(ctx); err != nil {
				log.Warn("meter shutdown", logger.Fields("error", err.Error()))
			}
			return tp.Shutdown(ctx)
		})
	}

	storageComp := storage.NewComponent(cfg.Storage, storageProviderConfig(cfg.Storage), log)
	if cfg.Storage.Provider == storage.ProviderS3 {
		log.Info("storage configured", logger.Fields(
			"provider", cfg.Storage.Provider,
			"bucket", cfg.Storage.Bucket,
			"access_key", util.MaskSecret(cfg.Storage.AccessKey, 4),
		))
	}
	sseComp := sse.NewComponent("/v1/jobs/:id/events")

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	srv.RegisterDefaultEndpoints(cfg.Name, app.Components.HealthAll)
	srv.GinEngine().GET("/liveness", endpoint.Liveness(cfg.Name))
	srv.GinEngine().GET("/readiness", endpoint.Readiness(cfg.Name, app.Components.HealthAll))

	if err := app.RegisterComponent(storageComp); err != nil {
		return err
	}
	if err := app.RegisterComponent(sseComp); err != nil {
		return err
	}
	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return err
	}

	// The model pair is resolved through storage, so the service is
	// assembled after the components are up.
	app.OnConfigure(func(ctx context.Context, a *bootstrap.App[*service.Config]) error {
		store := storageComp.Storage()
		if store == nil {
			return fmt.Errorf("storage is disabled; the service needs it for model artifacts")
		}
		artifacts := storage.NewByteClient(store)

		pair, err := service.LoadPair(ctx, artifacts, cfg.Model)
		if err != nil {
			return fmt.Errorf("load model: %w", err)
		}

		svcOpts := []service.Option{
			service.WithLogger(log),
			service.WithHub(sseComp.Hub()),
			service.WithArtifacts(artifacts),
			service.WithWorkers(cfg.Batch.Workers),
			service.WithJobRetention(cfg.Jobs.MaxRetained),
		}
		if metrics != nil {
			svcOpts = append(svcOpts, service.WithMetrics(metrics))
		}
		svc, err := service.New(pair, cfg.Engine, svcOpts...)
		if err != nil {
			return err
		}
		svc.RegisterRoutes(srv)

		a.OnStop(func(context.Context) error {
			svc.Close()
			return nil
		})
		return nil
	})

	return app.Run(cmd.Context())
}

// storageProviderConfig maps the flat storage section onto the selected
// provider's own config type.
func storageProviderConfig(cfg storage.Config) any {
	if cfg.Provider == storage.ProviderS3 {
		return &s3cfg.Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
		}
	}
	return nil
}
