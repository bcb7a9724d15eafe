package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig holds settings for the dashboard and admin terminal clients.
type ClientConfig struct {
	ServerURL      string
	CommandPrefix  rune
	State          StateConfig
	Log            LogConfig
	PollInterval   time.Duration
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	MaxUploadBytes int64
}

// StateConfig captures local state storage configuration.
type StateConfig struct {
	Path   string
	Secret string
}

// LogConfig points the structured logger at a file; stdout belongs to the
// terminal UI.
type LogConfig struct {
	Path string
}

// LoadClientConfig builds the client configuration from a .env file (when
// present) and environment variables with sensible defaults.
func LoadClientConfig() ClientConfig {
	_ = godotenv.Load()

	prefix := envOrDefault("DOCDECK_COMMAND_PREFIX", "/")
	runes := []rune(prefix)
	commandPrefix := '/'
	if len(runes) > 0 {
		commandPrefix = runes[0]
	}

	return ClientConfig{
		ServerURL:     envOrDefault("DOCDECK_SERVER_URL", "http://localhost:8000"),
		CommandPrefix: commandPrefix,
		State: StateConfig{
			Path:   envOrDefault("DOCDECK_STATE_PATH", defaultStatePath()),
			Secret: envOrDefault("DOCDECK_STATE_SECRET", ""),
		},
		Log: LogConfig{
			Path: envOrDefault("DOCDECK_LOG_PATH", "docdeck.log"),
		},
		PollInterval:   envDuration("DOCDECK_POLL_INTERVAL", 3*time.Second),
		RequestTimeout: envDuration("DOCDECK_REQUEST_TIMEOUT", 30*time.Second),
		UploadTimeout:  envDuration("DOCDECK_UPLOAD_TIMEOUT", 5*time.Minute),
		MaxUploadBytes: int64(envInt("DOCDECK_MAX_UPLOAD_BYTES", 50<<20)),
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "docdeck.db"
	}
	return filepath.Join(dir, "docdeck", "docdeck.db")
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func envDuration(key string, def time.Duration) time.Duration {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(env); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(key string, def int) int {
	if env, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(env); err == nil {
			return parsed
		}
	}
	return def
}
