// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Search      SearchConfig
	Cache       CacheConfig
	Suggest     SuggestConfig
	Warmer      WarmerConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// RedisConfig holds cache store configuration
type RedisConfig struct {
	URL string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL               string
	MaxReconnects     int
	ReconnectWait     time.Duration
	ConnectTimeout    time.Duration
	UpdateSubject     string
	InvalidateTimeout time.Duration
}

// SearchConfig holds query normalization and enrichment configuration
type SearchConfig struct {
	MinRadiusKm     float64
	MaxRadiusKm     float64
	DefaultRadiusKm float64
	MaxPageSize     int
	DefaultPageSize int
	AvgSpeedKmh     float64
}

// CacheConfig holds cache key and TTL policy configuration
type CacheConfig struct {
	KeyPrefix        string
	CoordPlaces      int
	GridCellDegrees  float64
	NeighborRing     int
	DenseTTL         time.Duration
	MediumTTL        time.Duration
	SparseTTL        time.Duration
	ClusterTTL       time.Duration
	IndexMaxCells    int
	IndexKeysPerCell int
}

// SuggestConfig holds suggestion aggregation configuration
type SuggestConfig struct {
	SourceLimit   int
	DefaultLimit  int
	MinConfidence float64
}

// WarmerConfig holds cache warming configuration
type WarmerConfig struct {
	Enabled     bool
	Interval    time.Duration
	TopCells    int
	RadiusKm    float64
	CallTimeout time.Duration
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "nearby"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		NATS: NATSConfig{
			URL:               getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:     getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:     getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout:    getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			UpdateSubject:     getEnv("NATS_BUSINESS_UPDATE_SUBJECT", "business.updated"),
			InvalidateTimeout: getEnvAsDuration("NATS_INVALIDATE_TIMEOUT", 5*time.Second),
		},
		Search: SearchConfig{
			MinRadiusKm:     getEnvAsFloat("SEARCH_MIN_RADIUS_KM", 0.1),
			MaxRadiusKm:     getEnvAsFloat("SEARCH_MAX_RADIUS_KM", 100),
			DefaultRadiusKm: getEnvAsFloat("SEARCH_DEFAULT_RADIUS_KM", 5),
			MaxPageSize:     getEnvAsInt("SEARCH_MAX_PAGE_SIZE", 50),
			DefaultPageSize: getEnvAsInt("SEARCH_DEFAULT_PAGE_SIZE", 20),
			AvgSpeedKmh:     getEnvAsFloat("SEARCH_AVG_SPEED_KMH", 30),
		},
		Cache: CacheConfig{
			KeyPrefix:        getEnv("CACHE_KEY_PREFIX", "search"),
			CoordPlaces:      getEnvAsInt("CACHE_COORD_PLACES", 4),
			GridCellDegrees:  getEnvAsFloat("CACHE_GRID_CELL_DEGREES", 0.01),
			NeighborRing:     getEnvAsInt("CACHE_NEIGHBOR_RING", 1),
			DenseTTL:         getEnvAsDuration("CACHE_DENSE_TTL", 600*time.Second),
			MediumTTL:        getEnvAsDuration("CACHE_MEDIUM_TTL", 300*time.Second),
			SparseTTL:        getEnvAsDuration("CACHE_SPARSE_TTL", 120*time.Second),
			ClusterTTL:       getEnvAsDuration("CACHE_CLUSTER_TTL", 10*time.Minute),
			IndexMaxCells:    getEnvAsInt("CACHE_INDEX_MAX_CELLS", 4096),
			IndexKeysPerCell: getEnvAsInt("CACHE_INDEX_KEYS_PER_CELL", 64),
		},
		Suggest: SuggestConfig{
			SourceLimit:   getEnvAsInt("SUGGEST_SOURCE_LIMIT", 5),
			DefaultLimit:  getEnvAsInt("SUGGEST_DEFAULT_LIMIT", 10),
			MinConfidence: getEnvAsFloat("SUGGEST_MIN_CONFIDENCE", 0.1),
		},
		Warmer: WarmerConfig{
			Enabled:     getEnvAsBool("WARMER_ENABLED", true),
			Interval:    getEnvAsDuration("WARMER_INTERVAL", 5*time.Minute),
			TopCells:    getEnvAsInt("WARMER_TOP_CELLS", 10),
			RadiusKm:    getEnvAsFloat("WARMER_RADIUS_KM", 5),
			CallTimeout: getEnvAsDuration("WARMER_CALL_TIMEOUT", 10*time.Second),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Search.MinRadiusKm <= 0 || config.Search.MaxRadiusKm <= config.Search.MinRadiusKm {
		return fmt.Errorf("search radius bounds must satisfy 0 < min < max")
	}
	if config.Cache.GridCellDegrees <= 0 {
		return fmt.Errorf("grid cell size must be positive")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
