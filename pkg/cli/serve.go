package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hairlab/stylist/pkg/cli/config"
	httpctrl "github.com/hairlab/stylist/pkg/controller/http"
	"github.com/hairlab/stylist/pkg/service/builder"
	"github.com/hairlab/stylist/pkg/service/worker"
	"github.com/hairlab/stylist/pkg/usecase"
	"github.com/hairlab/stylist/pkg/utils/async"
	"github.com/hairlab/stylist/pkg/utils/logging"
	"github.com/hairlab/stylist/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var addr string
	var pendingQueueSize int64
	var maintenanceInterval time.Duration
	var appCfg config.App
	var repoCfg config.Repository
	var cacheCfg config.Cache
	var geminiCfg config.Gemini
	var gatewayCfg config.Gateway
	var authCfg config.Auth
	var storageCfg config.Storage
	var notifyCfg config.Notify

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("STYLIST_ADDR"),
			Destination: &addr,
		},
		&cli.Int64Flag{
			Name:        "pending-queue-size",
			Usage:       "Accepted recommendations held in memory while the store is unavailable (0 disables queueing)",
			Value:       100,
			Sources:     cli.EnvVars("STYLIST_PENDING_QUEUE_SIZE"),
			Destination: &pendingQueueSize,
		},
		&cli.DurationFlag{
			Name:        "maintenance-interval",
			Usage:       "How often queued saves are retried and expired cache entries pruned",
			Value:       time.Minute,
			Sources:     cli.EnvVars("STYLIST_MAINTENANCE_INTERVAL"),
			Destination: &maintenanceInterval,
		},
	}

	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, cacheCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, gatewayCfg.Flags()...)
	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Serve configuration",
				"app", appCfg,
				"repository", repoCfg,
				"cache", cacheCfg,
				"gemini", geminiCfg,
				"gateway", gatewayCfg,
				"auth", authCfg,
				"storage", storageCfg,
				"notify", notifyCfg,
			)

			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load application config")
			}

			verifier, err := authCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure authentication")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			recCache, cacheStore, err := cacheCfg.Configure()
			if err != nil {
				return err
			}
			if cacheStore != nil {
				defer safe.Close(ctx, cacheStore)
			}

			imageStore, closeImages, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeImages()

			ucOpts := []usecase.Option{
				usecase.WithCache(recCache),
				usecase.WithBuilder(builder.New(builder.WithAllowedAttributes(app.AllowedAttributes()...))),
				usecase.WithImageStore(imageStore),
				usecase.WithPendingQueue(int(pendingQueueSize)),
			}

			llm, err := geminiCfg.Configure(ctx)
			if err != nil {
				return err
			}
			if llm != nil {
				gw, err := gatewayCfg.Configure(llm, repo.Product(), app.Language)
				if err != nil {
					return err
				}
				ucOpts = append(ucOpts, usecase.WithGateway(gw))
			} else {
				logger.Warn("Gemini project not configured, consultations are disabled")
			}

			notifier, err := notifyCfg.Configure()
			if err != nil {
				return err
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logger.Info("Slack notification enabled")
			}

			uc, err := usecase.New(repo, ucOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize use cases")
			}

			workerOpts := []worker.Option{}
			if cacheStore != nil {
				workerOpts = append(workerOpts, worker.WithCachePruner(cacheStore))
			}
			maintenance := worker.NewMaintenanceWorker(uc.Consultation, maintenanceInterval, workerOpts...)
			if err := maintenance.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start maintenance worker")
			}

			httpOpts := []httpctrl.Options{
				httpctrl.WithProductAdmins(authCfg.ProductAdmins()...),
			}
			if verifier != nil {
				httpOpts = append(httpOpts, httpctrl.WithVerifier(verifier))
			} else {
				httpOpts = append(httpOpts, httpctrl.WithNoAuth(authCfg.NoAuthUID()))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				maintenance.Stop()
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				// last flush of queued saves runs inside Stop
				maintenance.Stop()
				async.Wait()

				if n := uc.Consultation.PendingCount(); n > 0 {
					logger.Error("Recommendations still queued at shutdown were lost", "count", n)
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
