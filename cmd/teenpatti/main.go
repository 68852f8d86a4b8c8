package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/anhbaysgalan1/teenpatti/internal/config"
	"github.com/anhbaysgalan1/teenpatti/internal/database"
	"github.com/anhbaysgalan1/teenpatti/internal/server"
	"github.com/joho/godotenv"
)

type cli struct {
	EnvFile string `help:"Environment file to load before reading configuration." default:".env" type:"path"`
	Debug   bool   `help:"Enable debug logging."`

	Serve   serveCmd   `cmd:"" default:"1" help:"Run the HTTP and websocket server."`
	Migrate migrateCmd `cmd:"" help:"Apply database migrations and exit."`
}

type serveCmd struct {
	Port string `help:"Override the listen port (PORT)." optional:""`
}

func (c *serveCmd) Run(cfg *config.Config) error {
	if c.Port != "" {
		cfg.Port = c.Port
	}

	srv, err := server.NewTeenPattiServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Start(ctx)
}

type migrateCmd struct{}

func (c *migrateCmd) Run(cfg *config.Config) error {
	db, err := database.NewConnection(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Migrations applied")
	return nil
}

func main() {
	var args cli
	kctx := kong.Parse(&args,
		kong.Name("teenpatti"),
		kong.Description("Real-money Teen Patti table server."),
		kong.UsageOnError(),
	)

	level := slog.LevelInfo
	if args.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := godotenv.Load(args.EnvFile); err != nil {
		slog.Warn("No .env file found, using environment variables", "path", args.EnvFile)
	}

	kctx.FatalIfErrorf(kctx.Run(config.Load()))
}
