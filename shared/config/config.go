// shared/config/config.go
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// CommonConfig holds configuration fields shared by every service instance.
type CommonConfig struct {
	RedisAddrs              []string      // Redis server addresses (e.g., "redis-cluster:6379")
	RedisPassword           string        // Redis password for authentication
	HeartbeatInterval       time.Duration // How often to send a heartbeat to the registry (e.g., 5s)
	HeartbeatTTL            time.Duration // How long an instance counts as alive without a heartbeat (e.g., 15s)
	RegistryCleanupInterval time.Duration // How often the registry actively cleans stale entries (e.g., 30s)
	ServiceIP               string        // The IP address this instance advertises for registration
	ServicePort             int           // The port this instance listens on, used for registration
}

// GameServiceConfig holds configuration for the beacon game service.
type GameServiceConfig struct {
	CommonConfig                            // Embed CommonConfig
	ListenAddr                string        // Address for the HTTP server (e.g., ":8082")
	MongoDBConnStr            string        // MongoDB connection string
	MongoDBDatabase           string        // MongoDB database name
	MongoDBSessionsCollection string        // MongoDB collection for game sessions
	MongoDBPlayersCollection  string        // MongoDB collection for player profiles
	ForfeitWindow             time.Duration // Inactivity window after which an active player is forfeited (e.g., 72h)
	SweepInterval             time.Duration // Time between forfeiture sweeps (e.g., 60s)
	SweepTimeout              time.Duration // Upper bound for one full forfeiture sweep (e.g., 2m)
}

// LoadCommonConfig loads common configuration from environment variables.
func LoadCommonConfig() (CommonConfig, error) {
	cfg := CommonConfig{}
	var err error

	redisAddrsStr := os.Getenv("REDIS_ADDRS")
	if redisAddrsStr == "" {
		cfg.RedisAddrs = []string{"redis-cluster-headless.beacon-cluster.svc.cluster.local:6379"} // Default for K8s Service
	} else {
		for _, addr := range strings.Split(redisAddrsStr, ",") {
			cfg.RedisAddrs = append(cfg.RedisAddrs, strings.TrimSpace(addr))
		}
	}

	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	cfg.HeartbeatInterval, err = getDuration("SERVICE_HEARTBEAT_INTERVAL", 5*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.HeartbeatTTL, err = getDuration("SERVICE_HEARTBEAT_TTL", 15*time.Second)
	if err != nil {
		return cfg, err
	}
	cfg.RegistryCleanupInterval, err = getDuration("SERVICE_REGISTRY_CLEANUP_INTERVAL", 30*time.Second)
	if err != nil {
		return cfg, err
	}

	// Service IP (for registration, from Kubernetes Pod IP)
	cfg.ServiceIP = os.Getenv("POD_IP")
	if cfg.ServiceIP == "" {
		// Fallback for local development outside K8s or if not injected
		cfg.ServiceIP = "0.0.0.0"
		fmt.Printf("WARNING: POD_IP not set, defaulting ServiceIP to %s\n", cfg.ServiceIP)
	}

	return cfg, nil
}

// LoadGameServiceConfig loads configuration for the beacon game service.
func LoadGameServiceConfig() (*GameServiceConfig, error) {
	common, err := LoadCommonConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load common config for game-service: %w", err)
	}

	cfg := &GameServiceConfig{
		CommonConfig:              common,
		ListenAddr:                os.Getenv("GAME_SERVICE_LISTEN_ADDR"),
		MongoDBConnStr:            os.Getenv("MONGODB_CONN_STR"),
		MongoDBDatabase:           os.Getenv("MONGODB_DATABASE"),
		MongoDBSessionsCollection: os.Getenv("MONGODB_SESSIONS_COLLECTION"),
		MongoDBPlayersCollection:  os.Getenv("MONGODB_PLAYERS_COLLECTION"),
	}

	// Apply defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8082"
	}
	if cfg.MongoDBConnStr == "" {
		cfg.MongoDBConnStr = "mongodb://mongodb-service:27017" // Default for K8s internal DNS
	}
	if cfg.MongoDBDatabase == "" {
		cfg.MongoDBDatabase = "borderland"
	}
	if cfg.MongoDBSessionsCollection == "" {
		cfg.MongoDBSessionsCollection = "sessions"
	}
	if cfg.MongoDBPlayersCollection == "" {
		cfg.MongoDBPlayersCollection = "players"
	}

	// Extract ServicePort from ListenAddr
	cfg.ServicePort, err = extractPort(cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to extract port from GAME_SERVICE_LISTEN_ADDR '%s': %w", cfg.ListenAddr, err)
	}

	// Durations
	cfg.ForfeitWindow, err = getDuration("GAME_FORFEIT_WINDOW", 72*time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.SweepInterval, err = getDuration("GAME_SWEEP_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.SweepTimeout, err = getDuration("GAME_SWEEP_TIMEOUT", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	if cfg.ForfeitWindow <= 0 {
		return nil, fmt.Errorf("GAME_FORFEIT_WINDOW must be a positive duration (got %v)", cfg.ForfeitWindow)
	}
	if cfg.SweepInterval <= 0 {
		return nil, fmt.Errorf("GAME_SWEEP_INTERVAL must be a positive duration (got %v)", cfg.SweepInterval)
	}

	return cfg, nil
}

// Helper function to parse duration from environment variable
func getDuration(envKey string, defaultVal time.Duration) (time.Duration, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration format for %s: %w", envKey, err)
	}
	return d, nil
}

// Helper function to parse int from environment variable
func getInt(envKey string, defaultVal int) (int, error) {
	valStr := os.Getenv(envKey)
	if valStr == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid integer format for %s: %w", envKey, err)
	}
	return i, nil
}

// extractPort extracts the numeric port from a listen address (e.g., ":8082" -> 8082, "0.0.0.0:8082" -> 8082)
func extractPort(listenAddr string) (int, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		// If SplitHostPort fails, check if ListenAddr is just a port (e.g., ":8082")
		if strings.HasPrefix(listenAddr, ":") {
			portStr = strings.TrimPrefix(listenAddr, ":")
		} else {
			return 0, fmt.Errorf("invalid ListenAddr format for port extraction: %w", err)
		}
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("invalid port number '%s': %w", portStr, err)
	}
	return port, nil
}
