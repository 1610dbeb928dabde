package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"morse-lab/auth"
	"morse-lab/contract"
	"morse-lab/domain"
	"morse-lab/gateway"
	"morse-lab/internal"
	"morse-lab/moderation"
	"morse-lab/projection"
	"morse-lab/repositories"
	"morse-lab/runtime"
	"morse-lab/runtime/workers"
	"morse-lab/sink"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// Deferred cleanups (badger) run before main exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Permanent sinks
	transcript := projection.NewTranscript(config.TranscriptLimit)
	sinks := []contract.EventSink{transcript, sink.NewLogSink(log)}

	// 3. Archive (BadgerDB), optional
	var archive repositories.ITransmissionRepository
	var db *badger.DB
	if config.BadgerFilepath != "" {
		var err error
		db, err = badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("database opening failed: %w", err)
		}
		//  Defer will be executed before run() returned anything to main()
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		archive = repositories.NewTransmissionRepository(db, log, config.ArchiveLimit)
		sinks = append(sinks, sink.NewDiskSink(archive, log))
	}

	// 4. Moderation, optional
	var moderator contract.IModerator
	if words := config.Words(); len(words) > 0 {
		replacement, _ := internal.CharacterRune(config.CharReplacement)
		m, err := moderation.NewModerator(words, replacement, log)
		if err != nil {
			return fmt.Errorf("moderator build failed: %w", err)
		}
		moderator = m
	}

	// 5. Setup Supervision & Orchestration
	var keyring domain.Keyring = domain.PlainKeyring{}
	if config.SealAccessKeys {
		keyring = auth.Argon2Keyring{}
	}
	sup := workers.NewSupervisor(log, config.RestartInterval)
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, sup, registry, runtime.Settings{
		Room: workers.RoomSettings{
			SampleRate:       config.SampleRate,
			DefaultWPM:       config.DefaultWPM,
			MaxWPM:           config.MaxWPM,
			MaxContentLength: config.MaxContentLength,
			WPMFloor:         config.WPMFloor,
			Keyring:          keyring,
			Moderator:        moderator,
		},
		BufferSize:           config.BufferSize,
		SinkTimeout:          config.SinkTimeout,
		MetricInterval:       config.MetricInterval,
		LowCapacityThreshold: config.LowCapacityThreshold,
	})
	orchestrator.Add(sinks...)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 7. Start the Engine
	engineDone := make(chan error, 1)
	go func() { engineDone <- orchestrator.Start(ctx) }()
	select {
	case <-orchestrator.Ready():
	case err := <-engineDone:
		return fmt.Errorf("orchestrator failed to start: %w", err)
	}

	// 8. HTTP Server Setup
	var signer *auth.Signer
	if config.AuthSecret != "" {
		signer = auth.NewSigner(config.AuthSecret, config.AuthTokenDuration)
	}
	router := gateway.NewRouter(gateway.Routes{
		Log:          log,
		WS:           gateway.NewServer(log, orchestrator, config.ConnectionBufferSize, config.PingInterval),
		Orchestrator: orchestrator,
		Transcript:   transcript,
		Archive:      archive,
		Signer:       signer,
		Debug: internal.NewDebugHandler(log, internal.DebugSources{
			Rooms: orchestrator.Rooms,
			Stats: func() map[string]any {
				s := orchestrator.Stats()
				return map[string]any{
					"rooms":         s.Rooms,
					"members":       s.Members,
					"transmissions": s.Transmissions,
					"frames":        s.Frames,
					"restarts":      s.Restarts,
					"low_capacity":  s.LowCapacity,
				}
			},
			DB: db,
		}),
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// Use an error channel to capture ListenAndServe() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// 9. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		orchestrator.Stop()
		return err
	}

	// 10. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP server shutdown failed", "error", err)
	}
	orchestrator.Stop()
	<-engineDone
	log.Info("Program stopped cleanly")

	return nil
}
