package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string
	RedisURL  string
	GinMode   string
}

// Load reads configuration from the environment. A .env file is loaded
// first when present so local runs match deployed ones.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:      getenv("PORT", "8080"),
		MongoURI:  getenv("MONGODB_URI", "mongodb://127.0.0.1:27017"),
		DBName:    getenv("DB_NAME", "anonyme"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		RedisURL:  os.Getenv("REDIS_URL"),
		GinMode:   os.Getenv("GIN_MODE"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
