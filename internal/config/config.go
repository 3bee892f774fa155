package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config collects everything the binaries read from the environment.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KafkaBrokers is a comma separated list; empty means no broker and the
	// push channel degrades to console output.
	KafkaBrokers      []string
	NotificationTopic string

	// StatePath is the JSON file backing the local key-value state.
	StatePath string

	// EmployeeName, when set, activates the "mine" view and its
	// notification dispatcher for that session identity.
	EmployeeName string
}

// Load reads .env (if present next to the working directory or one of its
// parents) and assembles the config from environment variables.
func Load() Config {
	loadDotenv()

	return Config{
		HTTPPort:          getenv("HTTP_PORT", "9000"),
		DBHost:            getenv("DB_HOST", "localhost"),
		DBPort:            getenvInt("DB_PORT", 5432),
		DBUser:            getenv("DB_USER", "postgres"),
		DBPassword:        getenv("DB_PASSWORD", ""),
		DBName:            getenv("DB_NAME", "gatetrack"),
		RedisAddr:         getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getenv("REDIS_PASSWORD", ""),
		RedisDB:           getenvInt("REDIS_DB", 0),
		KafkaBrokers:      splitList(os.Getenv("KAFKA_BROKERS")),
		NotificationTopic: getenv("NOTIFICATION_TOPIC", "order_notifications"),
		StatePath:         getenv("STATE_PATH", "gatetrack_state.json"),
		EmployeeName:      os.Getenv("EMPLOYEE_NAME"),
	}
}

// DSN renders the Postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func loadDotenv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	for _, p := range []string{
		filepath.Join(wd, ".env"),
		filepath.Join(wd, "..", ".env"),
		filepath.Join(wd, "..", "..", ".env"),
	} {
		if err := godotenv.Load(p); err == nil {
			zap.L().Info("loaded environment file", zap.String("path", p))
			return
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		zap.L().Warn("invalid integer in environment, using fallback",
			zap.String("key", key), zap.String("value", v))
		return fallback
	}
	return n
}
