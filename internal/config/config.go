package config // package config loads application configuration from environment variables

import (
    "log" // log is used to report configuration errors and halt execution
    "os"  // os provides access to environment variables
    "strings"
    "time"
)

// Session backends selectable with SESSION_BACKEND.
const (
    SessionMemory = "memory"
    SessionRedis  = "redis"
    SessionMySQL  = "mysql"
)

// Config holds all runtime configuration values of the portal server.  Each
// field corresponds to an environment variable.
type Config struct {
    Env  string // application environment (e.g. "dev", "prod")
    Port string // HTTP port to listen on

    APIBaseURL    string        // remote admissions API root
    APITimeout    time.Duration // one timeout for every remote call
    APIRatePerSec float64       // client-side throttle, 0 disables
    APIRateBurst  int
    MediaBaseURL  string        // prefix for relative photo/signature URLs, defaults to the API origin

    SessionBackend string        // memory | redis | mysql
    SessionCookie  string        // name of the session id cookie
    SessionTTL     time.Duration // lifetime of a session record without a token expiry
    SecureCookie   bool          // mark the cookie Secure
    WorkspaceIdle  time.Duration // idle time before screen state is dropped

    DBUser string // database username (mysql backend only)
    DBPass string // database password (optional)
    DBHost string // database host address
    DBPort string // database port number
    DBName string // database name
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           must("APP_PORT"),
        APIBaseURL:     must("API_BASE_URL"),
        APITimeout:     envDur("API_TIMEOUT", 10*time.Second),
        APIRatePerSec:  envFloat("API_RATE_PER_SEC", 0),
        APIRateBurst:   envInt("API_RATE_BURST", 10),
        MediaBaseURL:   os.Getenv("MEDIA_BASE_URL"),
        SessionBackend: strings.ToLower(envStr("SESSION_BACKEND", SessionMemory)),
        SessionCookie:  envStr("SESSION_COOKIE", "portal_session"),
        SessionTTL:     envDur("SESSION_TTL", 24*time.Hour),
        SecureCookie:   envBool("SESSION_SECURE_COOKIE", false),
        WorkspaceIdle:  envDur("WORKSPACE_IDLE", 30*time.Minute),
    }
    switch cfg.SessionBackend {
    case SessionMemory, SessionRedis:
    case SessionMySQL:
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    default:
        log.Fatalf("invalid SESSION_BACKEND: %q (want memory, redis or mysql)", cfg.SessionBackend)
    }
    return cfg
}

// StubConfig configures the local stand-in for the remote admissions API.
type StubConfig struct {
    Port           string
    JWTSecret      string // secret used to sign access tokens
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    SeedFile       string // optional YAML seed data
}

// LoadStubConfig reads the STUB_* variables.  The signing secret may also
// come from a flag, so it is checked by the stub itself.
func LoadStubConfig() StubConfig {
    return StubConfig{
        Port:           envStr("STUB_PORT", "8000"),
        JWTSecret:      os.Getenv("STUB_JWT_SECRET"),
        AccessTTLMin:   envInt("STUB_ACCESS_TTL_MIN", 15),
        RefreshTTLDays: envInt("STUB_REFRESH_TTL_DAYS", 7),
        BcryptCost:     envInt("STUB_BCRYPT_COST", 10),
        SeedFile:       os.Getenv("STUB_SEED_FILE"),
    }
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
