package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	AWSRegion   string
	SQSQueueURL string

	SMTPHost   string
	SMTPPort   int
	MailSender string
	// Recipient addresses are derived as <username>@MailDomain.
	MailDomain string

	JWTSecret          string
	JWTExpirationHours time.Duration

	AdminUsername string
	AdminPassword string

	// Hour of day (server local time) at which the daily reminder is enqueued.
	ReminderHour int
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "1025"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	reminderHour, _ := strconv.Atoi(getEnv("REMINDER_HOUR", "9"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", "parking"),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       redisDB,

		AWSRegion:   getEnv("AWS_REGION", "ap-south-1"),
		SQSQueueURL: getEnv("SQS_JOB_QUEUE_URL", ""),

		SMTPHost:   getEnv("SMTP_HOST", "localhost"),
		SMTPPort:   smtpPort,
		MailSender: getEnv("MAIL_SENDER", "noreply@parkingapp.com"),
		MailDomain: getEnv("MAIL_DOMAIN", "example.com"),

		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		ReminderHour: reminderHour,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
