package main

import (
	"agora/auth"
	"agora/domain/agora"
	"agora/infrastructure/grpc/server"
	"agora/internal"
	"agora/moderation"
	"agora/repositories"
	"agora/runtime"
	"agora/runtime/workers"
	"agora/services"
	"agora/sink"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and owns their lifecycle, so deferred cleanups
// always execute before the process exits.
func run() error {
	// 1. Configuration & Logger
	config, err := internal.LoadConfig(".env")
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB) & search index (Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = writer.Close()
	}()

	agoraRepository, err := repositories.NewAgoraRepository(db, log)
	if err != nil {
		return err
	}
	defer agoraRepository.Close()
	chatRepository, err := repositories.NewChatRepository(db, log, config.LimitMessages)
	if err != nil {
		return err
	}
	defer chatRepository.Close()
	userRepository := repositories.NewUserRepository(db)
	categoryRepository := repositories.NewCategoryRepository(db)
	searchIndex := repositories.NewSearchIndex(writer, log)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Supervision & Orchestration
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, config.RestartInterval),
		registry, config.NumberOfWorkers, config.BufferSize, config.SinkTimeout)

	if config.RedisURL != "" {
		client, err := sink.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			return err
		}
		defer client.Close()
		orchestrator.AddSinks(sink.NewRedisRelay(client, log))
		log.Info("Relaying agora events to redis")
	}

	// 5. Services
	censorChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}
	moderator, err := moderation.NewModerator(moderation.ParseWords(config.CensoredWords), censorChar)
	if err != nil {
		return fmt.Errorf("moderator creation failed: %w", err)
	}

	locks := runtime.NewSessionLocks()
	agoraService := services.NewAgoraService(log, agoraRepository, categoryRepository, searchIndex, locks, orchestrator)
	participation := services.NewParticipationRegistry(log, agoraRepository, userRepository, locks)
	chatService := services.NewChatService(log, agoraRepository, chatRepository, userRepository,
		moderator, orchestrator, registry)
	searchService := services.NewSearchService(searchIndex,
		agora.NewHierarchyResolver(categoryRepository, config.MaxHierarchyDepth),
		agoraRepository, config.SearchPageSize)

	if _, err := agoraService.Reindex(); err != nil {
		return fmt.Errorf("search index rebuild failed: %w", err)
	}
	orchestrator.AddWorkers(workers.NewExpiryWorker(agoraService, config.ExpiryInterval, log))
	orchestrator.Start(ctx)

	if config.DebugPort > 0 {
		internal.StartDebugServer(ctx, log, db, config.DebugPort, func() map[string]any {
			return map[string]any{"shards": config.NumberOfWorkers, "at": time.Now().UTC()}
		})
	}

	// 6. gRPC Server Setup
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	tokens := auth.NewTokenManager(config.AuthSecret, config.AuthTokenDuration)
	agoraServer := server.NewAgoraServer(log, agoraService, participation, chatService, searchService,
		config.ConnectionBufferSize)
	s, health := server.NewGrpcServer(agoraServer, tokens)

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gRPC server", "address", address, "at", time.Now().UTC())
		if err := s.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	health.Shutdown()
	s.GracefulStop()
	orchestrator.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
