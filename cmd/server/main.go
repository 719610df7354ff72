package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/AnnaAnvok/chat/internal/config"
	"github.com/AnnaAnvok/chat/internal/database"
	"github.com/AnnaAnvok/chat/internal/ops"
	"github.com/AnnaAnvok/chat/internal/server"
	"github.com/AnnaAnvok/chat/internal/services"
	"github.com/AnnaAnvok/chat/internal/storage"
)

func main() {
	memory := flag.Bool("memory", false, "run on the in-memory store instead of postgres")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Str("app", "chat-server").Logger()

	cfg := config.Load()

	var store storage.Store
	if *memory {
		log.Warn().Msg("using in-memory store, nothing will survive a restart")
		store = storage.NewMemory()
	} else {
		db, err := database.Connect(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("postgres connect failed")
		}
		store = db
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		cache = redis.NewClient(opts)
		if err := cache.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connect failed")
		}
	}

	registry := services.NewSessionRegistry(store, cache, log)
	messages := services.NewMessageService(store, log)
	srv := server.New(cfg.Addr, registry, messages, log)

	if err := srv.Listen(); err != nil {
		log.Fatal().Err(err).Msg("listen failed")
	}

	if cfg.OpsAddr != "" {
		go func() {
			if err := ops.Serve(cfg.OpsAddr, srv); err != nil {
				log.Error().Err(err).Msg("ops endpoint failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
