package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bchakour/tb/internal/llm"
	"github.com/bchakour/tb/internal/server"
	"github.com/bchakour/tb/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local development API server",
	Long: `Start a local Task Board API server backed by SQLite.

The server implements the same REST surface the CLI talks to, so
'tb --api.base_url http://localhost:8080' style workflows can run fully
offline. Report generation needs anthropic.api_key to be configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	viper.SetDefault("port", 8080)
	_ = viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func serveRun() error {
	if verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	st, err := store.NewSQLiteStore(viper.GetString("db_path"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	var llmClient *llm.Client
	if key := viper.GetString("anthropic.api_key"); key != "" {
		llmClient = llm.NewClient(key, viper.GetString("anthropic.model"))
	} else {
		ui.Warning("anthropic.api_key not set; report generation is disabled")
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("port")),
		Handler: server.NewServer(st, llmClient).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	ui.Info("Serving Task Board API at http://localhost%s", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	ui.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
