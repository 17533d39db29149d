package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/qmedic/qmedic/internal/alerts"
	"github.com/qmedic/qmedic/internal/api"
	"github.com/qmedic/qmedic/internal/config"
	"github.com/qmedic/qmedic/internal/db"
	"github.com/qmedic/qmedic/internal/export"
	"github.com/qmedic/qmedic/internal/imaging"
	"github.com/qmedic/qmedic/internal/inventory"
	"github.com/qmedic/qmedic/internal/metrics"
	"github.com/qmedic/qmedic/internal/store"
)

type flags struct {
	configPath string
	dbTarget   string
	addr       string
	adminUser  string
	logPath    string
}

func parseFlags(args []string) (*flags, *flag.FlagSet, error) {
	f := &flags{}
	fs := flag.NewFlagSet("qmedic", flag.ContinueOnError)

	fs.StringVar(&f.configPath, "config", "", "")
	fs.StringVar(&f.configPath, "c", "", "")
	fs.StringVar(&f.dbTarget, "db", "", "")
	fs.StringVar(&f.dbTarget, "d", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.adminUser, "user", "Admin", "")
	fs.StringVar(&f.adminUser, "u", "Admin", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: qmedic [flags]

Flags:
  -c, -config <path>      TOML config file (default: ./qmedic.toml if present)
  -d, -db <path|dsn>      SQLite path, or Postgres DSN with the pgx driver
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Settings are read from the config file, then .env and QMEDIC_* environment
variables, then these flags.
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fs, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	return f, fs, nil
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cfg *config.Config, f *flags, fs *flag.FlagSet) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "db", "d":
			if cfg.Database.Driver == config.DriverPostgres {
				cfg.Database.DSN = f.dbTarget
			} else {
				cfg.Database.Path = f.dbTarget
			}
		case "addr", "a":
			cfg.Server.Addr = f.addr
		case "log", "l":
			cfg.Server.LogPath = f.logPath
		}
	})
}

func main() {
	f, fs, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, source, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	applyFlags(cfg, f, fs)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// INFO/WARN → stdout, ERROR → stderr, optionally teed to a file.
	closeLog, err := setupLogger(cfg.Server.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if source != "" {
		slog.Info("configuration loaded", "path", source)
	}

	if err := run(cfg, f.adminUser); err != nil {
		slog.Error("fatal", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, adminUser string) error {
	target := cfg.Database.Path
	if cfg.Database.Driver == config.DriverPostgres {
		target = cfg.Database.DSN
	}

	database, err := db.Open(cfg.Database.Driver, target)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "driver", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	password, err := bootstrapAdmin(ctx, database, adminUser)
	if err != nil {
		return err
	}
	if password != "" {
		printInitResult(adminUser, password)
	}

	// Generated and stored on first run.
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	loc := cfg.Location()

	m := metrics.New()
	exports := &export.Service{DB: database, Metrics: m}
	if cfg.Export.Bucket != "" {
		archiver, err := export.NewS3Archiver(ctx, cfg.Export)
		if err != nil {
			return fmt.Errorf("setting up export archive: %w", err)
		}
		exports.Archiver = archiver
		slog.Info("export archiving enabled", "bucket", cfg.Export.Bucket)
	}

	handler := api.NewRouter(api.Deps{
		DB:        database,
		JWTSecret: jwtSecret,
		Processor: inventory.New(database, cfg.Inventory.TxTimeout.Duration, m),
		Exports:   exports,
		Photos:    imaging.Processor{MaxDimension: cfg.Photos.MaxDimension},
		Metrics:   m,
		Auth:      cfg.Auth,
	})

	scanDone := make(chan struct{})
	if cfg.Alerts.Enabled {
		scanner := &alerts.Scanner{
			DB:       database,
			Location: loc,
			Hour:     cfg.Alerts.ExpiryCheckHour,
			Metrics:  m,
		}
		go func() {
			defer close(scanDone)
			scanner.Run(ctx)
		}()
		slog.Info("expiry scanner started", "hour", cfg.Alerts.ExpiryCheckHour, "timezone", loc.String())
	} else {
		close(scanDone)
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		stop()
		<-scanDone
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}
	<-scanDone

	slog.Info("server stopped, closing database")
	return nil
}
