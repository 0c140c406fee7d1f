package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string

	// Vardiya iş günü sınırı: bu saatten önce açılan vardiyalar
	// bir önceki iş gününe sayılır (gece çalışan şubeler için)
	BusinessDayStartHour int

	// Opsiyonel: personel bildirim kanalı (Telegram)
	TelegramBotToken    string
	TelegramStaffChatID int64
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:             getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:          getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=restoran_pos port=5432 sslmode=disable"),
		JWTSecret:            getEnv("JWT_SECRET", ""),
		CORSOrigins:          getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		BusinessDayStartHour: getEnvInt("BUSINESS_DAY_START_HOUR", 6),
		TelegramBotToken:     getEnv("TELEGRAM_BOT_TOKEN", ""),
	}

	if chatIDStr := getEnv("TELEGRAM_STAFF_CHAT_ID", ""); chatIDStr != "" {
		chatID, err := strconv.ParseInt(chatIDStr, 10, 64)
		if err != nil {
			log.Println("[WARN] TELEGRAM_STAFF_CHAT_ID sayı değil, bildirimler kapalı.")
		} else {
			cfg.TelegramStaffChatID = chatID
		}
	}

	// Production güvenlik kontrolleri
	if cfg.JWTSecret == "" {
		log.Fatal("[FATAL] JWT_SECRET environment değişkeni tanımlanmamış! Production için zorunludur.")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[FATAL] JWT_SECRET en az 32 karakter olmalıdır! Güvenlik riski.")
	}
	if cfg.BusinessDayStartHour < 0 || cfg.BusinessDayStartHour > 12 {
		log.Fatal("[FATAL] BUSINESS_DAY_START_HOUR 0-12 aralığında olmalı.")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
