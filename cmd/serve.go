package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Govind-619/LinkSphere/config"
	"github.com/Govind-619/LinkSphere/controllers"
	"github.com/Govind-619/LinkSphere/middleware"
	"github.com/Govind-619/LinkSphere/routes"
	"github.com/Govind-619/LinkSphere/services"
	"github.com/Govind-619/LinkSphere/utils"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var withWorker bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), withWorker)
		},
	}
	cmd.Flags().BoolVar(&withWorker, "with-worker", false, "also dispatch the outbox in this process")
	return cmd
}

func runServe(parent context.Context, withWorker bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	var subscriptions services.SubscriptionFetcher
	if cfg.RazorpayKey != "" && cfg.RazorpaySecret != "" {
		subscriptions = services.NewRazorpaySubscriptions(cfg.RazorpayKey, cfg.RazorpaySecret)
	}

	handlers := &controllers.Handlers{
		Discounts:   services.NewDiscountService(a.store),
		Commissions: services.NewCommissionService(a.store),
		Billing:     services.NewBillingService(a.store, a.plans, a.tokens, subscriptions, cfg.RazorpayWebhookSecret),
	}
	auth := middleware.NewAuthenticator(a.store, a.tokens, cfg.JWTSecret)
	router := routes.SetupRouter(handlers, auth)

	// The memory store lives in this process, so nothing else can drain its outbox.
	if withWorker || cfg.StoreDriver == config.StoreMemory {
		go a.worker(cfg).Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			utils.LogError("Error starting server: %v", err)
		}
		return err
	case <-ctx.Done():
	}

	utils.LogInfo("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
