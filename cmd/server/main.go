package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-auth-console/credentials"
	"github.com/jrsteele09/go-auth-console/internal/config"
	"github.com/jrsteele09/go-auth-console/server"
	"github.com/jrsteele09/go-auth-console/server/loginsession"
	"github.com/jrsteele09/go-auth-console/sqlitedb"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	janitorInterval = time.Minute
	workspaceIdle   = 30 * time.Minute
)

func main() {
	generateKey := flag.Bool("generate-key", false, "print a new STORAGE_KEY and exit")
	flag.Parse()
	if *generateKey {
		key, err := credentials.GenerateKey()
		if err != nil {
			log.Fatal().Err(err).Msg("generate storage key")
		}
		fmt.Println(key)
		return
	}

	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("stack", string(debug.Stack())).Msgf("Recovered from panic: %v", r)
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.MustLoad()
	setupLogging(c)
	displayAppname(c.GetAppName())

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := server.New(c, loginsession.NewInMemoryRepo(), server.WorkspaceBuilder(c, db))
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go janitor(ctx, s, db)

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(httpServer) }()

	if err := waitForStopSignal(errCh); err != nil {
		return err
	}
	return shutdown(httpServer)
}

func setupLogging(c config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	if c.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func openDatabase(c config.Config) (*sqlitedb.DB, error) {
	sealer, err := credentials.NewSealer(c.GetStorageKey())
	if err != nil {
		return nil, fmt.Errorf("credential sealer: %w", err)
	}
	if _, plain := sealer.(credentials.PlainSealer); plain {
		log.Warn().Msg("STORAGE_KEY is not set; credentials are stored unencrypted")
	}

	if err := os.MkdirAll(c.GetDataFolder(), 0o700); err != nil {
		return nil, fmt.Errorf("data folder: %w", err)
	}
	path := filepath.Join(c.GetDataFolder(), "console.db")
	db, err := sqlitedb.Open(path, sealer)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb.Open %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("session database open")
	return db, nil
}

// janitor removes lapsed sessions from disk and idle workspaces from memory
func janitor(ctx context.Context, s *server.Server, db *sqlitedb.DB) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			purged, err := db.PurgeExpired(now)
			if err != nil {
				log.Err(err).Msg("purge expired sessions")
			}
			evicted := s.EvictIdleWorkspaces(workspaceIdle)
			if purged > 0 || evicted > 0 {
				log.Debug().Int64("purged", purged).Int("evicted", evicted).Msg("janitor")
			}
		}
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal(errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)
	select {
	case <-stop:
		return nil
	case err := <-errCh:
		return err
	}
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
