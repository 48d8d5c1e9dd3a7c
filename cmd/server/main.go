package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"guildhall.gg/internal/adventure"
	"guildhall.gg/internal/api"
	"guildhall.gg/internal/commands"
	"guildhall.gg/internal/content"
	"guildhall.gg/internal/persistence/auditlog"
	"guildhall.gg/internal/persistence/ledgerdb"
	"guildhall.gg/internal/roles"
	"guildhall.gg/internal/transport/ws"
	"guildhall.gg/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")

		sessionIdle = flag.Duration("session_idle", 30*time.Minute, "drop adventure sessions idle this long (0 disables)")
		sweepEvery  = flag.Duration("sweep_every", time.Minute, "grant expiry sweep interval")
		disableWeb  = flag.Bool("disable_web", false, "disable the /api endpoints")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	catalog, err := content.Load(filepath.Join(*configDir, "locations.json"))
	if err != nil {
		logger.Fatalf("load locations: %v", err)
	}
	logger.Printf("loaded %d locations (digest=%s)", len(catalog.Locations), catalog.Digest[:12])

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	store, err := ledgerdb.OpenSQLite(filepath.Join(*dataDir, "ledger.db"))
	if err != nil {
		logger.Fatalf("open ledger db: %v", err)
	}
	defer store.Close()

	audit := auditlog.New(*dataDir)
	defer audit.Close()

	engine, err := adventure.New(adventure.Config{
		Store:   store,
		Catalog: catalog,
		Tuning:  tune,
		Audit:   audit,
		MaxIdle: *sessionIdle,
	})
	if err != nil {
		logger.Fatalf("adventure engine: %v", err)
	}

	handler := commands.New(commands.Config{
		Store:  store,
		Engine: engine,
		Tuning: tune,
		Audit:  audit,
	})

	ctx, cancel := signalContext()
	defer cancel()

	sweeper := roles.NewSweeper(roles.Config{
		Store:    store,
		Audit:    audit,
		Log:      logger,
		Interval: *sweepEvery,
	})
	go sweeper.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(handler, catalog.Digest, logger).Handler())
	if !*disableWeb {
		api.NewServer(api.Config{
			Store:  store,
			Tuning: tune,
			Audit:  audit,
			Log:    logger,
		}).Register(mux)
	} else {
		logger.Printf("web api disabled")
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
