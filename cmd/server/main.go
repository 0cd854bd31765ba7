package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"liveroom/internal/cache"
	"liveroom/internal/config"
	"liveroom/internal/repository"
	"liveroom/internal/service"
	"liveroom/internal/transport/rest"
	"liveroom/internal/transport/ws"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", "liveroom").Logger()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal().Err(err).Msg("failed to ping MongoDB")
	}
	log.Info().Msg("connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal().Err(err).Msg("failed to ping Redis")
	}
	log.Info().Msg("connected to Redis")

	clock := clockwork.NewRealClock()

	// Repositories
	roomRepo := repository.NewRoomRepo(db)
	gameRepo := repository.NewGameRepo(db)
	teamRepo := repository.NewTeamRepo(db)

	// Caches
	interactions := cache.NewInteractionCache(rdb, cfg.RecentInteractions)
	scores := cache.NewScoreCache(rdb)

	// Coordination
	hub := ws.NewHub()
	registry := ws.NewRegistry()
	dispatcher := service.NewDispatcher()
	defer dispatcher.Close()

	// Services
	authSvc := service.NewAuthService(cfg.HostUsername, cfg.HostPassword, cfg.JWTSecret)
	roomSvc := service.NewRoomService(roomRepo, gameRepo, teamRepo, interactions, scores, dispatcher, clock, cfg.JoinTimeout)
	teamSvc := service.NewTeamService(gameRepo, teamRepo, scores, dispatcher, clock)
	buzzerSvc := service.NewBuzzerService(roomRepo, gameRepo, interactions, dispatcher, clock, cfg.BuzzPolicy)
	presSvc := service.NewPresentationService(roomRepo, gameRepo, dispatcher)
	scoreSvc := service.NewScoreService(roomRepo, gameRepo, teamRepo, scores, dispatcher)

	// The hub implements service.Broadcaster
	roomSvc.SetBroadcaster(hub)
	teamSvc.SetBroadcaster(hub)
	buzzerSvc.SetBroadcaster(hub)
	presSvc.SetBroadcaster(hub)
	scoreSvc.SetBroadcaster(hub)

	router := rest.NewRouter(&rest.Container{
		AuthService:         authSvc,
		RoomService:         roomSvc,
		TeamService:         teamSvc,
		BuzzerService:       buzzerSvc,
		PresentationService: presSvc,
		ScoreService:        scoreSvc,
		Hub:                 hub,
		Registry:            registry,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("buzzPolicy", string(cfg.BuzzPolicy)).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen and serve")
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
