package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kaniobed28/campus-sell/basket-service/internal/basket"
	"github.com/kaniobed28/campus-sell/basket-service/internal/broadcast"
	"github.com/kaniobed28/campus-sell/basket-service/internal/catalog"
	h "github.com/kaniobed28/campus-sell/basket-service/internal/http"
	"github.com/kaniobed28/campus-sell/basket-service/internal/identity"
	"github.com/kaniobed28/campus-sell/basket-service/internal/localstore"
	"github.com/kaniobed28/campus-sell/basket-service/internal/poller"
	"github.com/kaniobed28/campus-sell/basket-service/internal/remote"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDBName     string
	RedisAddr       string
	RedisPassword   string
	KafkaBrokers    string
	ProductsAPIURL  string
	GuestBasketPath string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8090"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:     getEnv("MONGO_DB_NAME", "basketdb"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", ""),
		ProductsAPIURL:  getEnv("PRODUCTS_API_URL", "http://localhost:8080"),
		GuestBasketPath: getEnv("GUEST_BASKET_PATH", "data/guest_basket.json"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	mongoDB, err := remote.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := remote.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	store := remote.NewMongoStore(mongoDB)
	log.Printf("Connected to MongoDB at %s", cfg.MongoURI)

	// Without Redis the agent still works, it just cannot hear about
	// mutations made by sibling agents.
	var bus broadcast.Broadcaster = broadcast.NewLoopback()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		bus = broadcast.NewRedisBroadcaster(redisClient)
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	}
	defer bus.Close()

	lookup := catalog.NewHTTPLookup(cfg.ProductsAPIURL, cfg.RequestTimeout)
	local := localstore.NewFileStore(cfg.GuestBasketPath)
	broker := identity.NewBroker()

	engine := basket.NewEngine(store, local, lookup, broker, bus)
	if err := engine.Initialize(ctx); err != nil {
		log.Printf("initial basket load failed: %v", err)
	}

	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	if cfg.KafkaBrokers != "" {
		p := poller.NewPoller(store, engine, strings.Split(cfg.KafkaBrokers, ",")...)
		defer p.Close()
		go p.Run(pollerCtx)
		log.Printf("Consuming checkout events from %s", cfg.KafkaBrokers)
	}

	basketHandler := h.NewBasketHandler(engine, broker, cfg.RequestTimeout)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		basketHandler.Routes(r)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "basket-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Basket service starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down basket service...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
		log.Printf("mongo disconnect: %v", err)
	}
	log.Println("basket service stopped")
}
