package config

import (
	"log"
	"os"
)

type Config struct {
	Port          string
	DBDSN         string
	BaseURL       string // public URL used for payment back_urls and webhook
	MPAccessToken string
	LogFile       string
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "vitrine.db"
	} // sqlite file in project root
	base := os.Getenv("BASE_URL")
	if base == "" {
		base = "http://localhost:" + port
	}
	token := os.Getenv("MP_ACCESS_TOKEN") // empty disables the live gateway
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./vitrine.log"
	}

	cfg := Config{Port: port, DBDSN: dsn, BaseURL: base, MPAccessToken: token, LogFile: logFile}
	log.Printf("[config] PORT=%s DB_DSN=%s BASE_URL=%s LOG_FILE=%s mp_token_set=%t",
		cfg.Port, cfg.DBDSN, cfg.BaseURL, cfg.LogFile, token != "")
	return cfg
}
