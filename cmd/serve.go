package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance/config"
	"attendance/controllers"
	"attendance/routes"
	"attendance/validator"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	log, logCloser, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := validator.RegisterBindings(); err != nil {
		return err
	}

	comps, err := config.InitComponents(ctx, cfg, log, true)
	if err != nil {
		return err
	}
	defer comps.Close()

	router, c := config.InitApp(cfg, log)
	config.InitWebSocket(router, comps.Melody, log)
	if err := config.InitCronJobs(c, comps.Queue, cfg, log); err != nil {
		return err
	}

	routes.SetupRoutes(router, controllers.NewAttendanceController(controllers.AttendanceControllerOptions{
		Service:  comps.Service,
		Location: cfg.Location,
		Logger:   log,
	}))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		<-c.Stop().Done()
		err := srv.Shutdown(shutdownCtx)
		// flush the spreadsheet mirror after the last request has been served
		if qerr := comps.Queue.Close(shutdownCtx); qerr != nil {
			log.Error("❌ Spreadsheet mirror did not drain: %v", qerr)
		}
		return err
	})

	return g.Wait()
}
