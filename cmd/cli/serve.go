package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	api "mail-assistant/cmd/api"
	authDelivery "mail-assistant/internal/auth/delivery"
	emailDelivery "mail-assistant/internal/email/delivery"
	"mail-assistant/internal/notification"
	"mail-assistant/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := opts.cfg, opts.log
			if port == "" {
				port = cfg.Port
			}
			gin.SetMode(cfg.GinMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := opts.build(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if cfg.GoogleProjectID != "" && cfg.GooglePubSubTopic != "" {
				startNotifications(ctx, app, log)
			} else {
				log.Info("pubsub not configured, push-triggered sync disabled")
			}

			if cfg.SyncCron != "" {
				sched := scheduler.NewSyncScheduler(app.Sync, syncUsers(cfg), cfg.SyncDefaultMax, log)
				if err := sched.Schedule(cfg.SyncCron); err != nil {
					return err
				}
				sched.Start(ctx)
				defer sched.Stop()
			}

			handler := api.NewHandler(
				authDelivery.NewAuthHandler(app.Auth, cfg.DefaultUserID),
				emailDelivery.NewEmailHandler(app.Sync, app.Search, cfg.DefaultUserID, cfg.SyncDefaultMax),
				log,
			)
			err = handler.Start(ctx, ":"+port)
			log.Info("waiting for background syncs")
			app.Sync.Wait()
			return err
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func startNotifications(ctx context.Context, app *App, log *zap.Logger) {
	cfg := app.cfg

	// Accept full resource names like projects/p/topics/gmail-updates
	topicName := cfg.GooglePubSubTopic
	if parts := strings.Split(topicName, "/"); len(parts) > 1 {
		topicName = parts[len(parts)-1]
	}

	svc, err := notification.NewService(ctx, notification.Config{
		ProjectID:       cfg.GoogleProjectID,
		TopicName:       topicName,
		SubName:         cfg.GooglePubSubSub,
		CredentialsFile: cfg.GoogleCredentials,
		DefaultUserID:   cfg.DefaultUserID,
		MaxEmails:       cfg.SyncDefaultMax,
	}, app.Sync, log)
	if err != nil {
		log.Error("failed to initialize notification service", zap.Error(err))
		return
	}
	app.closers = append(app.closers, svc.Close)

	go func() {
		if err := svc.Start(ctx); err != nil && ctx.Err() == nil {
			log.Error("notification listener stopped", zap.Error(err))
		}
	}()
}
