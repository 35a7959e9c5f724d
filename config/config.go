package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr    string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	RedisAddr   string
	JWTSecret   string
	SenderName  string
	SMTPAddress string
	SMTPPass    string
	SMTPHost    string
	SMTPPort    int
}

func Load() Config {
	return Config{
		HTTPAddr:    getenv("HTTP_ADDR", ":5000"),
		DBHost:      getenv("DB_HOST", "localhost"),
		DBPort:      getenv("DB_PORT", "5432"),
		DBUser:      getenv("DB_USER", "postgres"),
		DBPassword:  getenv("DB_PASSWORD", "postgres"),
		DBName:      getenv("DB_NAME", "storefront"),
		RedisAddr:   getenv("REDIS_ADDR", "localhost:6379"),
		JWTSecret:   getenv("JWT_SECRET", "secretkey123"),
		SenderName:  getenv("MAIL_SENDER_NAME", "Storefront"),
		SMTPAddress: getenv("SMTP_ADDRESS", ""),
		SMTPPass:    getenv("SMTP_PASSWORD", ""),
		SMTPHost:    getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:    getenvInt("SMTP_PORT", 587),
	}
}

// DSN renders the postgres connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
