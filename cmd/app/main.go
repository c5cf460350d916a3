package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizzeria/cmd"
	httpin "pizzeria/internal/adapters/in/http"

	"github.com/labstack/gommon/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for the given user email and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	config, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel}))
	slog.SetDefault(logger)

	if err = application(config, logger, *issueFor, *tokenTTL); err != nil {
		log.Fatalf("Application stopped with error: %v", err)
	}
}

// application owns every resource it opens, so they are released on each exit path.
func application(config cmd.Config, logger *slog.Logger, issueFor string, tokenTTL time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := cmd.OpenStorage(config)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeOrLog(logger, "storage", storage.Close)

	if err = storage.Seed(ctx, config.SeedUsers); err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}

	if issueFor != "" {
		return printToken(ctx, storage, config, issueFor, tokenTTL)
	}

	app, err := cmd.NewCompositionRoot(ctx, config, storage, logger)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer closeOrLog(logger, "notification channels", app.Close)

	return run(ctx, app, config, logger)
}

func run(ctx context.Context, app *cmd.CompositionRoot, config cmd.Config, logger *slog.Logger) error {
	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	e, err := app.CreateHTTPServer()
	if err != nil {
		return err
	}
	// Request contexts end with the process so open event streams do not hold shutdown.
	e.Server.BaseContext = func(net.Listener) context.Context { return ctx }

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := fmt.Sprintf("0.0.0.0:%s", config.HTTPPort)
		logger.Info("HTTP server listening", "addr", addr, "storage", config.Storage)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func printToken(ctx context.Context, storage *cmd.Storage, config cmd.Config, email string, ttl time.Duration) error {
	actor, err := storage.Directory.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("cannot issue token for %s: %w", email, err)
	}
	token, err := httpin.IssueToken([]byte(config.JWTSecret), actor, ttl, time.Now())
	if err != nil {
		return fmt.Errorf("cannot sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func closeOrLog(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Error("Failed to close "+what, "error", err)
	}
}
