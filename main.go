// Command anchord hosts a platform-independent AR session core. The
// host app streams plane observations, camera poses and tap events in
// over UDP or HTTP; the daemon owns the spatial anchor store and
// streams scene deltas back out to renderers over a websocket.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/strataxr/anchord/internal/api"
	"github.com/strataxr/anchord/internal/config"
	"github.com/strataxr/anchord/internal/feed"
	"github.com/strataxr/anchord/internal/session"
	"github.com/strataxr/anchord/internal/sessiondb"
	"github.com/strataxr/anchord/internal/version"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address for the HTTP API")
	feedAddr    = flag.String("feed", "", "UDP address for the observation feed (default from config)")
	dbFile      = flag.String("db", "session.db", "Path to the session recorder database")
	configPath  = flag.String("config", "", "Path to a session tuning JSON file")
	devMode     = flag.Bool("dev", false, "Run in dev mode, replaying fixtures instead of listening for a live feed")
	fixtures    = flag.String("fixtures", "fixtures.jsonl", "Fixture file for dev mode, one feed message per line")
	migrateDir  = flag.String("migrate-dir", "", "Apply recorder schema migrations from this directory instead of the embedded set")
	maxObjects  = flag.Int("max-objects", -1, "Placement cap override; -1 uses the config value")
	noRecording = flag.Bool("no-recording", false, "Disable the session recorder")
)

func main() {
	flag.Parse()

	log.Printf("anchord %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg := config.EmptySessionConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadSessionConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	objectCap := cfg.GetMaxObjects()
	if *maxObjects >= 0 {
		objectCap = *maxObjects
	}

	// Session core: store, placement policy, bridge.
	store := session.NewAnchorStore()
	engine, err := session.NewEngine(store, session.EngineConfig{
		MaxObjects:        objectCap,
		DefaultObjectSize: cfg.GetDefaultObjectSize(),
	})
	if err != nil {
		log.Fatalf("failed to create placement engine: %v", err)
	}
	bridge := session.NewBridge(store, engine, session.BridgeConfig{
		TapQueueSize:         cfg.GetTapQueueSize(),
		ObservationQueueSize: cfg.GetObservationQueueSize(),
	})

	// Session recorder.
	var recorder *sessiondb.Recorder
	var db *sessiondb.DB
	if !*noRecording {
		db, err = sessiondb.OpenDB(*dbFile)
		if err != nil {
			log.Fatalf("failed to open session database: %v", err)
		}
		defer db.Close()
		migrations, err := sessiondb.Migrations(*migrateDir)
		if err != nil {
			log.Fatalf("failed to load migrations: %v", err)
		}
		if err := db.MigrateUp(migrations); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		recorder = sessiondb.NewRecorder(db)
	}

	hub := api.NewDeltaHub()
	defer hub.Close()
	apiServer := api.NewServer(bridge, hub)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Session loop: the single owner of all state mutation.
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bridge.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("session loop error: %v", err)
		}
		log.Print("session loop terminated")
	}()

	// Observation feed: live UDP or fixture replay in dev mode.
	address := cfg.GetFeedAddress()
	if *feedAddr != "" {
		address = *feedAddr
	}
	listener := feed.NewUDPListener(bridge, feed.UDPListenerConfig{Address: address})
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		if *devMode {
			replayer := feed.NewFixtureReplayer(listener, *fixtures, cfg.GetFixtureInterval(), true)
			err = replayer.Start(ctx)
		} else {
			err = listener.Start(ctx)
		}
		if err != nil && err != context.Canceled {
			log.Printf("observation feed error: %v", err)
		}
		log.Print("observation feed terminated")
	}()

	// Drain pump: hand accumulated deltas to renderers and the
	// recorder at the renderer cadence.
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(cfg.GetDrainInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Print("drain pump terminated")
				return
			case <-ticker.C:
				deltas := bridge.DrainDeltas()
				if len(deltas) == 0 {
					continue
				}
				hub.Broadcast(api.DeltasToDTO(deltas))
				if recorder != nil {
					if err := recorder.RecordDeltas(deltas); err != nil {
						log.Printf("failed to record deltas: %v", err)
					}
				}
			}
		}
	}()

	// HTTP server goroutine.
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()
		if db != nil {
			db.AttachAdminRoutes(mux)
		}
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/api/", http.StripPrefix("/api", api.LoggingMiddleware(apiServer.ServeMux())))

		server := &http.Server{
			Addr:    *listen,
			Handler: mux,
		}

		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
