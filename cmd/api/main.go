package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"gigbook.org/internal/account"
	"gigbook.org/internal/authz"
	"gigbook.org/internal/httpapi"
	"gigbook.org/internal/lockout"
	"gigbook.org/internal/obs"
	"gigbook.org/internal/seclog"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.Logger()

	var db *sql.DB
	if dsn := os.Getenv("GIGBOOK_PG_DSN"); dsn != "" {
		var err error
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatal().Err(err).Msg("open db")
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var (
		accounts  account.Store
		ownership authz.OwnershipStore
		sink      seclog.Sink
	)
	if db != nil {
		accounts = account.NewPGStore(db)
		ownership = authz.NewPGStore(db)
		sink = seclog.NewPGSink(db)
	} else {
		// No DSN: in-process stores, suitable for local development only.
		log.Warn().Msg("GIGBOOK_PG_DSN not set, using in-memory stores")
		accounts = account.NewInMemoryStore()
		ownership = authz.NewInMemoryStore()
		sink = seclog.NewInMemorySink()
	}

	events := seclog.New(sink, log)
	engine := authz.NewEngine(ownership)
	policy, err := lockout.NewPolicy(accounts, lockout.DefaultConfig(), lockout.WithNotifier(events))
	if err != nil {
		log.Fatal().Err(err).Msg("lockout config")
	}

	api := httpapi.New(httpapi.Config{
		Ready:    httpapi.ReadyProbe{DB: db},
		Version:  version,
		Accounts: accounts,
		Engine:   engine,
		Policy:   policy,
		Events:   events,
	})

	addr := os.Getenv("GIGBOOK_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting gigbook-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	events.Close() // drain in-flight audit writes before the sink goes away
	if db != nil {
		_ = db.Close()
	}
	log.Info().Msg("stopped")
}
