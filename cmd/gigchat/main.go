package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gigchat/internal/domain/chat"
	"gigchat/internal/domain/offers"
	"gigchat/internal/infra/broker/kafka"
	"gigchat/internal/infra/config"
	"gigchat/internal/infra/db/mongo"
	ginserver "gigchat/internal/infra/http/gin"
	"gigchat/internal/infra/inbox"
	"gigchat/internal/infra/obs"
	"gigchat/internal/infra/storage/memory"
	"gigchat/internal/infra/storage/s3"
	"gigchat/internal/infra/ws"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.ShutdownTimeout = 5 * time.Second
	}

	conversations, messages, offerRepo, seen, ready, disconnect := buildStores(cfg, logger)
	defer disconnect()

	blobs := buildBlobStore(cfg, logger)

	var publisher ws.EventPublisher
	var producer *kafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.NodeID, nil)
		if err != nil {
			logger.Error("kafka producer unavailable", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
	}

	hub := ws.NewHub(messages, publisher, logger)
	go hub.Run(ctx)

	if len(cfg.KafkaBrokers) > 0 {
		relay, err := kafka.NewRelay(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.NodeID, nil, hub, seen, logger)
		if err != nil {
			logger.Error("kafka relay unavailable", "error", err)
			os.Exit(1)
		}
		defer relay.Close()
		go func() {
			if err := relay.Run(ctx, []string{cfg.KafkaTopic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("kafka relay stopped", "error", err)
			}
		}()
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: ready,
	}, ginserver.Handlers{
		Chat: ginserver.ChatHandler{
			Conversations: conversations,
			Messages:      messages,
			Logger:        logger,
		},
		Offers: ginserver.OfferHandler{
			Offers: offerRepo,
			Logger: logger,
		},
		Attachments: ginserver.AttachmentHandler{
			Store:  blobs,
			Logger: logger,
		},
		WS: ws.Serve(hub),
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "node", cfg.NodeID)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

// buildStores picks mongo-backed repositories when MONGO_URI is set and
// falls back to in-memory stores for local development. The relay inbox
// is mongo-only; without it replayed offsets are rebroadcast as-is.
func buildStores(cfg config.Config, logger *slog.Logger) (
	chat.ConversationRepository,
	chat.MessageRepository,
	offers.Repository,
	kafka.SeenStore,
	func() error,
	func(),
) {
	if cfg.MongoURI == "" {
		logger.Info("using in-memory stores")
		return memory.NewConversationRepository(),
			memory.NewMessageRepository(),
			memory.NewOfferRepository(),
			nil,
			func() error { return nil },
			func() {}
	}

	client, err := mongo.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Error("mongo unavailable", "error", err)
		os.Exit(1)
	}
	logger.Info("using mongo stores", "database", cfg.MongoDB)
	ready := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx)
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", "error", err)
		}
	}
	return mongo.NewConversationRepository(client.DB),
		mongo.NewMessageRepository(client.DB),
		mongo.NewOfferRepository(client.DB),
		inbox.NewStore(client.DB, cfg.KafkaGroupID),
		ready,
		disconnect
}

func buildBlobStore(cfg config.Config, logger *slog.Logger) s3.BlobStore {
	if cfg.S3Endpoint == "" {
		logger.Info("using in-memory attachment store", "base_url", cfg.AttachmentBaseURL)
		return memory.NewBlobStore(cfg.AttachmentBaseURL)
	}
	store, err := s3.NewStore(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
	if err != nil {
		logger.Error("s3 store unavailable", "error", err)
		os.Exit(1)
	}
	return store
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
