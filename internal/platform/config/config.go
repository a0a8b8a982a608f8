package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process-level configuration read from the environment.
type Server struct {
	Addr             string
	Env              string
	MongoURI         string
	MongoDatabase    string
	JWTSigningKey    string
	JWTLifetime      time.Duration
	AdminRegisterKey string
	RequestTimeout   time.Duration
}

// Development reports whether the process runs outside production mode.
func (s Server) Development() bool { return s.Env != "production" }

// FromEnv builds a Server config from environment variables so main stays
// lean. A .env file is loaded first when present, matching how the service is
// run locally.
func FromEnv() Server {
	_ = godotenv.Load()

	addr := os.Getenv("BROKERAGE_ADDR")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	env := os.Getenv("NODE_ENV")
	if env == "" {
		env = os.Getenv("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDB := os.Getenv("MONGO_DATABASE")
	if mongoDB == "" {
		mongoDB = "brokerage"
	}

	jwtKey := os.Getenv("JWT_SECRET")
	if jwtKey == "" {
		// Development default - must be overridden in production.
		jwtKey = "dev-secret-change-in-production"
	}

	return Server{
		Addr:             addr,
		Env:              env,
		MongoURI:         mongoURI,
		MongoDatabase:    mongoDB,
		JWTSigningKey:    jwtKey,
		JWTLifetime:      durationFromEnv("JWT_EXPIRE", 30*24*time.Hour),
		AdminRegisterKey: os.Getenv("ADMIN_REGISTRATION_KEY"),
		RequestTimeout:   durationFromEnv("REQUEST_TIMEOUT", 15*time.Second),
	}
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Bare numbers are treated as hours, matching the old "JWT_EXPIRE=720"
	// deployment convention.
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Hour
	}
	return fallback
}
