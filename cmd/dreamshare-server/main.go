package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ken-william/dreamshare/internal/cache"
	"github.com/ken-william/dreamshare/internal/config"
	"github.com/ken-william/dreamshare/internal/events"
	"github.com/ken-william/dreamshare/internal/http/handlers/accounts"
	"github.com/ken-william/dreamshare/internal/http/handlers/dreams"
	mediaHandlers "github.com/ken-william/dreamshare/internal/http/handlers/media"
	"github.com/ken-william/dreamshare/internal/http/handlers/social"
	wsHandlers "github.com/ken-william/dreamshare/internal/http/handlers/websocket"
	"github.com/ken-william/dreamshare/internal/http/middleware"
	"github.com/ken-william/dreamshare/internal/metrics"
	mediaService "github.com/ken-william/dreamshare/internal/services/media"
	"github.com/ken-william/dreamshare/internal/storage/postgres"
	"github.com/ken-william/dreamshare/internal/websocket"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	pg, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// redis setup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	slog.Info("Connected to Redis")

	store := cache.NewService(pg, redisClient)

	// object storage for dream images
	media, err := mediaService.NewService(cfg)
	if err != nil {
		log.Fatal("Failed to initialize media service:", err)
	}
	slog.Info("Connected to MinIO", slog.String("bucket", cfg.MinIO.BucketName))

	// real-time hub
	hub := websocket.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	rateLimits := middleware.NewRateLimitConfig(redisClient)
	m := metrics.InitMetrics()

	auth := middleware.AuthMiddleware(cfg.JWTSecret)
	authed := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}
	limited := func(action string, h http.HandlerFunc) http.Handler {
		return auth(rateLimits.RateLimitedHandler(action, h))
	}

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("DreamShare API"))
	})

	// account
	router.HandleFunc("POST /api/account/register/", accounts.Register(store, cfg.JWTSecret))
	router.HandleFunc("POST /api/account/login/", accounts.Login(store, cfg.JWTSecret))
	router.Handle("GET /api/account/profile/", authed(accounts.Profile(store)))

	// dreams and feeds
	router.Handle("GET /api/dreams/feed/public", authed(dreams.PublicFeed(store)))
	router.Handle("GET /api/dreams/feed/friends", authed(dreams.FriendsFeed(store)))
	router.Handle("GET /api/dreams/list", authed(dreams.ListMine(store)))
	router.Handle("POST /api/dreams/", limited("dreams", dreams.Create(store, media, m)))
	router.Handle("PUT /api/dreams/{id}/privacy", authed(dreams.UpdatePrivacy(store)))

	// engagement
	router.Handle("POST /api/social/dream/{dream_id}/like/", limited("likes", social.ToggleLike(store, publisher, m)))
	router.Handle("GET /api/social/dream/{dream_id}/comments/", authed(social.ListComments(store)))
	router.Handle("POST /api/social/dream/{dream_id}/comment/", limited("comments", social.AddComment(store, publisher, m)))

	// friends
	router.Handle("GET /api/social/search/", authed(social.Search(store)))
	router.Handle("GET /api/social/friends/", authed(social.Friends(store)))
	router.Handle("GET /api/social/requests/", authed(social.PendingRequests(store)))
	router.Handle("GET /api/social/requests/sent/", authed(social.SentRequests(store)))
	router.Handle("POST /api/social/add/{username}/", authed(social.SendFriendRequest(store, publisher)))
	router.Handle("POST /api/social/respond/{request_id}/{action}/", authed(social.RespondToRequest(store)))
	router.Handle("POST /api/social/remove-friend/{username}/", authed(social.RemoveFriend(store)))

	// messaging
	router.Handle("GET /api/social/messages/{username}/", authed(social.ListMessages(store)))
	router.Handle("POST /api/social/messages/send/{username}/", limited("messages", social.SendMessage(store, publisher, m)))
	router.Handle("POST /api/social/share-dream/{username}/", limited("messages", social.ShareDream(store, publisher, m)))

	// media uploads
	router.Handle("POST /api/media/upload-url", authed(mediaHandlers.GenerateUploadURL(media)))
	router.Handle("POST /api/media/confirm", authed(mediaHandlers.ConfirmUpload(store, media)))

	// real-time events
	router.HandleFunc("GET /ws", wsHandlers.Handle(hub, cfg.JWTSecret))

	// observability
	router.Handle("GET /metrics", metrics.Handler())
	router.Handle("GET /api/cache/stats", authed(cache.GetStats(redisClient)))

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: m.Instrument(router),
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}
