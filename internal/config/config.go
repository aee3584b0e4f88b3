package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr      string
	DBPath    string
	JWTSecret string
}

// Default charge un éventuel fichier .env (TP_DOTENV, sinon ./.env) puis
// lit l'environnement.
func Default() Config {
	if path := os.Getenv("TP_DOTENV"); path != "" {
		_ = godotenv.Load(path)
	} else {
		_ = godotenv.Load()
	}
	return Config{
		Addr:      envOr("TP_ADDR", "127.0.0.1:8080"),
		DBPath:    envOr("TP_DB_PATH", "tickerping.db"),
		JWTSecret: os.Getenv("TP_JWT_SECRET"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
