package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	// GatewayAddress is where the local UI gateway listens. Loopback only;
	// the daemon serves a single UI process on the same machine.
	GatewayAddress string

	FirebaseProjectID       string
	FirebaseStorageBucket   string
	FirebaseCredentialsFile string

	// DataDir holds local preferences (last selected profile).
	DataDir string
}

func Load() *Config {
	// A missing .env file is fine; env vars win either way.
	_ = godotenv.Load()

	return &Config{
		GatewayAddress:          getEnv("GATEWAY_ADDRESS", "127.0.0.1:7180"),
		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseStorageBucket:   getEnv("FIREBASE_STORAGE_BUCKET", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		DataDir:                 getEnv("DATA_DIR", "./data"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
