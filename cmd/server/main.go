package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Avicted/convopts/internal/auth"
	"github.com/Avicted/convopts/internal/config"
	"github.com/Avicted/convopts/internal/conversation"
	"github.com/Avicted/convopts/internal/httpapi"
	"github.com/Avicted/convopts/internal/securelog"
	"github.com/Avicted/convopts/internal/storage"
	"github.com/Avicted/convopts/internal/ws"
)

func main() {
	if err := run(); err != nil {
		securelog.Error("server.run", err)
		log.Printf("fatal: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	storeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	store, err := openStore(storeCtx, cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, store)
}

func openStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.SQLitePath != "" {
		log.Printf("using sqlite store")
		return storage.NewSQLiteStore(ctx, cfg.SQLitePath)
	}
	log.Printf("using postgres store")
	return storage.NewPostgresStore(ctx, cfg.DBURL)
}

func newAuthService(cfg config.Config) (*auth.Service, error) {
	if cfg.APITokenHash != "" {
		return auth.NewServiceFromHash(cfg.APITokenHash)
	}
	return auth.NewService(cfg.APIToken)
}

// serve owns the store from here on and closes it before returning.
func serve(ctx context.Context, cfg config.Config, store storage.Store) error {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = store.Close(closeCtx)
	}()

	migrateCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Migrate(migrateCtx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	authService, err := newAuthService(cfg)
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	conversations := conversation.NewService(store.Conversations(), hub, cfg.LinkBaseURL)
	api := httpapi.NewHandler(conversations, authService, cfg.LinksEnabled)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/stats", api.RequireAuth(newStatsHandler(hub, time.Now())))
	mux.Handle("/ws", ws.WithAuthValidator(ws.WithConversationLookup(http.HandlerFunc(hub.HandleWS), conversations), authService))
	api.Register(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
			log.Printf("listening with TLS on %s", cfg.ListenAddr)
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}

		log.Printf("listening on %s", cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err = <-errCh
	case err = <-errCh:
	}

	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
