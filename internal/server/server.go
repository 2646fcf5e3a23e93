package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pepperswap/apiserver/config"
	"github.com/pepperswap/apiserver/internal/db"
	"github.com/pepperswap/apiserver/internal/events"
	"github.com/pepperswap/apiserver/internal/handlers"
	"github.com/pepperswap/apiserver/internal/media"
	"github.com/pepperswap/apiserver/internal/services"
	"github.com/pepperswap/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	cleanup    []func() error
}

// New constructs a Server with all dependencies wired from config.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	var cleanup []func() error
	fail := func(err error) (*Server, error) {
		for _, fn := range cleanup {
			_ = fn()
		}
		return nil, err
	}

	var userRepo services.UserRepository
	var postRepo services.GrowPostRepository

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := db.OpenMongo(ctx, cfg.Mongo)
		if err != nil {
			return fail(err)
		}
		cleanup = append(cleanup, func() error {
			return client.Disconnect(context.Background())
		})

		database := client.Database(cfg.Mongo.Database)
		users := store.NewMongoUserRepository(database)
		if err := users.EnsureIndexes(ctx); err != nil {
			return fail(err)
		}
		posts := store.NewMongoGrowPostRepository(database)
		if err := posts.EnsureIndexes(ctx); err != nil {
			return fail(err)
		}
		userRepo, postRepo = users, posts

	case config.StoreDriverPostgres:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return fail(err)
		}
		cleanup = append(cleanup, dbConn.Close)
		userRepo = store.NewPostgresUserRepository(dbConn)
		postRepo = store.NewPostgresGrowPostRepository(dbConn)

	default:
		return fail(fmt.Errorf("unknown store driver %q", cfg.StoreDriver))
	}
	slog.Info("store configured", "driver", cfg.StoreDriver)

	var library *media.Library
	switch cfg.MediaDriver {
	case "":
		// Photo uploads disabled.
	case config.MediaDriverMinio:
		backend, err := media.NewMinioBackend(cfg.Minio)
		if err != nil {
			return fail(err)
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return fail(err)
		}
		library = media.NewLibrary(backend)
	case config.MediaDriverGCS:
		backend, err := media.NewGCSBackend(ctx, cfg.GCS)
		if err != nil {
			return fail(err)
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return fail(err)
		}
		library = media.NewLibrary(backend)
	default:
		return fail(fmt.Errorf("unknown media driver %q", cfg.MediaDriver))
	}
	if library != nil {
		slog.Info("media storage configured", "driver", cfg.MediaDriver, "bucket", library.Bucket())
	}

	var publisher *events.Publisher
	switch cfg.EventsDriver {
	case "":
		// Event publishing disabled.
	case config.EventsDriverRabbitMQ:
		backend, err := events.NewRabbitMQBackend(cfg.RabbitMQ)
		if err != nil {
			return fail(err)
		}
		publisher = events.NewPublisher(backend)
		cleanup = append(cleanup, publisher.Close)
	case config.EventsDriverPubSub:
		backend, err := events.NewPubSubBackend(ctx, cfg.PubSub)
		if err != nil {
			return fail(err)
		}
		publisher = events.NewPublisher(backend)
		cleanup = append(cleanup, publisher.Close)
	default:
		return fail(fmt.Errorf("unknown events driver %q", cfg.EventsDriver))
	}
	if publisher != nil {
		slog.Info("event publishing configured", "driver", cfg.EventsDriver)
	}

	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo)
	directoryService := services.NewDirectoryService(userRepo)
	matchService := services.NewMatchService(directoryService)
	growLogService := services.NewGrowLogService(postRepo, userRepo, library)

	authHandler := handlers.NewAuthHandler(userService, authService, directoryService, publisher, cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(directoryService, matchService, growLogService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userHandler, authHandler.RequireAuth)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		cleanup:    cleanup,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown closes backend connections and stops the HTTP server.
func (s *Server) Shutdown() error {
	for _, fn := range s.cleanup {
		_ = fn()
	}
	return s.httpServer.Close()
}
