package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/dstark/my/internal/api"
	"github.com/dstark/my/internal/config"
	"github.com/dstark/my/internal/db"
	"github.com/dstark/my/internal/metrics"
	"github.com/dstark/my/internal/store"
	"github.com/dstark/my/internal/webui"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			slog.SetDefault(logger)

			database, err := db.New(cfg.DB.Driver, cfg.DB.DSN)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			sessionManager := webui.NewSessionManager(database, cfg.DB.Driver, cfg.SessionLifetime)

			userStore := store.NewUserStore(database)
			settingStore := store.NewSettingStore(database)
			clientStore := store.NewAPIClientStore(database)
			tokenStore := store.NewAPITokenStore(database)

			userCount, err := userStore.Count(context.Background())
			if err != nil {
				return err
			}
			metrics.UsersTotal.Set(float64(userCount))

			apiService := api.New(database, logger)

			router := webui.NewRouter(webui.Deps{
				SessionManager: sessionManager,
				Handlers:       webui.NewHandlers(sessionManager, userStore, settingStore, clientStore, tokenStore, logger),
				Middleware:     webui.NewMiddleware(sessionManager, userStore),
				API:            apiService.Handler(),
			})

			logger.Info("listening", "addr", cfg.HTTP.Addr)
			return http.ListenAndServe(cfg.HTTP.Addr, router)
		},
	}
}
