package config

import (
	"fmt"
	"log"
	"os"
	"time"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	BackendURL      string
	StationMode     string // "building" or "session"
	StationHTTPPort string
	SessionDBPath   string
	StationToken    string // when set, stored as the session credential on startup
	ScanSource      string // path to the scanner device/FIFO, "-" for stdin
	ScanDebounce    time.Duration
	EventsCacheTTL  time.Duration
	TicketDir       string

	// Stub API settings (cmd/stubapi and the e2e tests).
	StubHTTPPort    string
	StubDBPath      string
	JWTIssuer       string
	JWTSigningKey   string
	AccessTTL       time.Duration
	RateLimitPerMin int
}

// Load returns application config populated from environment variables with
// sensible defaults.
func Load() App {
	return App{
		Env:             getEnv("APP_ENV", "dev"),
		BackendURL:      getEnv("BACKEND_URL", "http://localhost:5000"),
		StationMode:     getEnv("STATION_MODE", "building"),
		StationHTTPPort: getEnv("STATION_HTTP_PORT", "8082"),
		SessionDBPath:   getEnv("SESSION_DB_PATH", "station-session.db"),
		StationToken:    getEnv("STATION_TOKEN", ""),
		ScanSource:      getEnv("SCAN_SOURCE", "-"),
		ScanDebounce:    durationEnv("SCAN_DEBOUNCE", 2*time.Second),
		EventsCacheTTL:  durationEnv("EVENTS_CACHE_TTL", 5*time.Minute),
		TicketDir:       getEnv("TICKET_DIR", "tickets"),
		StubHTTPPort:    getEnv("STUB_HTTP_PORT", "5000"),
		StubDBPath:      getEnv("STUB_DB_PATH", "stubapi.db"),
		JWTIssuer:       getEnv("JWT_ISSUER", "symposium-stub"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		AccessTTL:       durationEnv("ACCESS_TTL", 12*time.Hour),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
