package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gameapi "github.com/ianherdegen/Beacon-Borderland-sub001/game/api"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/service"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/store"
	"github.com/ianherdegen/Beacon-Borderland-sub001/game/sweeper"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/api"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/cluster"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/config"
	mongodbu "github.com/ianherdegen/Beacon-Borderland-sub001/shared/mongodb"
	redisu "github.com/ianherdegen/Beacon-Borderland-sub001/shared/redis"
	"github.com/ianherdegen/Beacon-Borderland-sub001/shared/registry"
)

func main() {
	// --- 1. Load Configuration ---
	cfg, err := config.LoadGameServiceConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Configuration loaded for Game Service. Listening on: %s", cfg.ListenAddr)

	// --- 2. Connect to MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Fatalf("Failed to disconnect from MongoDB: %v", err)
		}
		log.Println("Disconnected from MongoDB.")
	}()

	// --- 3. Connect to Redis Cluster (instance registry for sweep sharding) ---
	redisClient, err := redisu.NewRedisClusterClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("Failed to connect to Redis Cluster: %v", err)
	}
	defer func() {
		if err = redisClient.Close(); err != nil {
			log.Fatalf("Error closing Redis client: %v", err)
		}
		log.Println("Redis Client closed.")
	}()

	// --- 4. Initialize the Persistence Gateway ---
	sessionsCollection := mongoClient.Collection(cfg.MongoDBSessionsCollection)
	playersCollection := mongoClient.Collection(cfg.MongoDBPlayersCollection)
	gateway := store.NewMongoGateway(mongoClient.RawClient(), sessionsCollection, playersCollection)

	// --- 5. Initialize Business Logic Service ---
	gameService := service.NewGameService(gateway)
	log.Println("Game Service business logic initialized.")

	// --- 6. Initialize and Start Service Registrar ---
	registrar := registry.NewServiceRegistrar(redisClient, "game-service", &cfg.CommonConfig)
	go registrar.Start()
	defer registrar.Stop()
	log.Printf("Service registrar started for 'game-service' with Address: %s", cfg.ListenAddr)

	registryClient := registry.NewRegistryClient(redisClient, cfg.HeartbeatTTL)

	// --- 7. Start the Forfeiture Sweeper ---
	// The assignment manager shards sweep candidates across live instances;
	// the gateway's compare-and-set keeps overlap harmless either way.
	assignmentManager := cluster.NewServiceAssignmentManager(registryClient, registrar, cfg.HeartbeatInterval)
	go assignmentManager.Start()
	defer assignmentManager.Stop()

	forfeitureSweeper := sweeper.NewForfeitureSweeper(cfg, gateway, assignmentManager)
	forfeitureSweeper.Start()
	defer forfeitureSweeper.Stop()

	// --- 8. Setup HTTP Server and Register Routes ---
	gameAPIHandlers := gameapi.NewGameAPIHandlers(gameService)
	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	gameAPIHandlers.RegisterRoutes(baseServer.Router)
	log.Println("HTTP routes registered.")

	// --- 9. Start HTTP Server ---
	go func() {
		log.Printf("HTTP server starting on %s...", cfg.ListenAddr)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// --- 10. Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop // Wait for interrupt signal

	log.Println("Shutting down Game Service...")

	// Create a context with a timeout for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Game Service gracefully shut down.")
}
