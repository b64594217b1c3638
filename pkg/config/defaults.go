// Package config provides centralized default values for the newsroom engine
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Backend API
	BackendBaseURL string
	BackendTimeout time.Duration

	// Retry shape for idempotent backend reads
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMaxDelay    time.Duration

	// Geo tracking
	GeoActivityInterval time.Duration
	GeoPersistInterval  time.Duration
	GeoAutoDetect       bool

	// Preferences
	SelectionLimit int

	// Personalization
	VisitBoostCap float64
	FeedPageLimit int
	FeedMaxPages  int
	CountiesSlug  string

	// Local persistence
	LocalStorePath string

	// Logging
	LogDirectory string

	// CORS
	CORSAllowedOrigins []string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8090")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Backend API
	BackendBaseURL = getEnvString("BACKEND_BASE_URL", "http://localhost:8080/api")
	BackendTimeout = getEnvDuration("BACKEND_TIMEOUT", 10*time.Second)

	// Retry shape
	RetryMaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", 3)
	RetryBaseDelay = getEnvDuration("RETRY_BASE_DELAY", 500*time.Millisecond)
	RetryMaxDelay = getEnvDuration("RETRY_MAX_DELAY", 4*time.Second)

	// Geo tracking
	GeoActivityInterval = getEnvDuration("GEO_ACTIVITY_INTERVAL", 30*time.Second)
	GeoPersistInterval = getEnvDuration("GEO_PERSIST_INTERVAL", 120*time.Second)
	GeoAutoDetect = getEnvBool("GEO_AUTO_DETECT", true)

	// Preferences
	SelectionLimit = getEnvInt("SELECTION_LIMIT", 4)

	// Personalization
	VisitBoostCap = float64(getEnvInt("VISIT_BOOST_CAP", 100))
	FeedPageLimit = getEnvInt("FEED_PAGE_LIMIT", 20)
	FeedMaxPages = getEnvInt("FEED_MAX_PAGES", 5)
	CountiesSlug = getEnvString("COUNTIES_SLUG", "counties")

	// Local persistence
	LocalStorePath = getEnvString("LOCAL_STORE_PATH", "newsroom-state.db")

	// Logging
	LogDirectory = getEnvString("LOG_DIRECTORY", "logs")

	// CORS
	origins := getEnvString("CORS_ALLOWED_ORIGINS", "http://localhost:4321")
	for _, origin := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			CORSAllowedOrigins = append(CORSAllowedOrigins, trimmed)
		}
	}
}
