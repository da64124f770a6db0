package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"whobible-live/internal/app"
	"whobible-live/internal/config"
	"whobible-live/internal/infra/memory"
	pgloader "whobible-live/internal/infra/postgres"
	redisinfra "whobible-live/internal/infra/redis"
	transport "whobible-live/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia host server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pgPool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pgPool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.PoolLoader = memory.NewStaticPoolLoader(samplePool())
	if pgPool != nil {
		loader = pgloader.NewPoolLoader(pgPool)
	}

	poolTTL := config.TTLDuration(cfg.Pool.TTL, 10*time.Minute)
	var poolRepo app.PoolProvider
	if redisClient != nil {
		poolRepo = redisinfra.NewPoolRepository(redisClient, loader, poolTTL)
	} else {
		poolRepo = memory.NewPoolRepository(loader, poolTTL)
	}

	roomTTL := config.TTLDuration(cfg.Game.RoomTTL, 2*time.Hour)
	var store app.RoomStore
	if redisClient != nil {
		store = redisinfra.NewRoomStore(redisClient, roomTTL)
	} else {
		store = memory.NewRoomStore()
	}

	service := app.NewGameService(store, poolRepo, memory.NewSessionRegistry(), app.SessionConfig{
		Tick:  config.TTLDuration(cfg.Game.Tick, time.Second),
		Grace: config.TTLDuration(cfg.Game.Grace, 2*time.Second),
	})
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/host", wsHandler.ServeHost)
	mux.HandleFunc("/ws/player", wsHandler.ServePlayer)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting whobible-live on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
