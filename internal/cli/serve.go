package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"propintel/server/internal/api"
	"propintel/server/internal/processor"
	"propintel/server/internal/queue"
	"propintel/server/internal/scheduler"
)

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API, refresh queue and scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides HTTP_PORT)")

	return cmd
}

func runServe(ctx context.Context, port string) error {
	a, err := openApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	if port == "" {
		port = a.cfg.Server.Port
	}

	refreshQueue := queue.NewRefreshQueue(a.cfg.Queue.BufferSize, logger)
	refreshProcessor := processor.NewBatchProcessor(a.svc, refreshQueue, a.cfg.Queue, logger)
	refreshProcessor.Start()
	refreshQueue.Start()
	defer refreshQueue.Close()
	defer refreshProcessor.Stop()

	if a.cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(a.svc.UpdateAllPropertyIntelligence, a.cfg.Scheduler, logger)
		sched.Start()
		defer sched.Stop()
		logger.WithField("interval", a.cfg.Scheduler.Interval.String()).Info("Intelligence scheduler started")
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(a.db, a.svc, refreshQueue, logger)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           api.NewRouter(a.cfg.Server, handler, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
