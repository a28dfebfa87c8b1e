package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort     string // Application port
	FrontendURL string // Frontend origin for checkout redirects
	DBUser      string // Database user
	DBPassword  string // Database password
	DBHost      string // Database host
	DBPort      string // Database port
	DBName      string // Database name
	JWTSecret   string // JWT secret key
	RedisAddr   string // Redis server address
	RedisPass   string // Redis password
	RedisDB     int    // Redis database number
	IsProd      bool   // Is production environment

	StripeSecretKey     string // Stripe API secret key
	StripeWebhookSecret string // Stripe webhook signing secret

	AWSRegion string // AWS region for S3
	S3Bucket  string // S3 bucket for user uploads and receipts

	SMTPHost     string // SMTP server host
	SMTPPort     int    // SMTP server port
	SMTPUser     string // SMTP username, also the sender address
	SMTPPassword string // SMTP password

	OpenAIKey   string // OpenAI API key
	OpenAIModel string // Chat completion model name
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if smtpPort == 0 {
		smtpPort = 587 // Default submission port
	}
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o" // Default completion model
	}
	return &Config{
		AppPort:     os.Getenv("APP_PORT"),          // Application port
		FrontendURL: os.Getenv("FRONTEND_URL"),      // Frontend origin
		DBUser:      os.Getenv("DB_USER"),           // Database user
		DBPassword:  os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:      os.Getenv("DB_HOST"),           // Database host
		DBPort:      os.Getenv("DB_PORT"),           // Database port
		DBName:      os.Getenv("DB_NAME"),           // Database name
		JWTSecret:   os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:   os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:   os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:     redisDB,                        // Redis database number
		IsProd:      os.Getenv("IS_PROD") == "true", // Is production environment

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),     // Stripe API secret key
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"), // Stripe webhook signing secret

		AWSRegion: os.Getenv("S3_AWS_DEFAULT_REGION"), // AWS region for S3
		S3Bucket:  os.Getenv("AWS_BUCKET_NAME"),       // S3 bucket name

		SMTPHost:     os.Getenv("SMTP_HOST"),     // SMTP server host
		SMTPPort:     smtpPort,                   // SMTP server port
		SMTPUser:     os.Getenv("SMTP_GMAIL"),    // SMTP username / sender
		SMTPPassword: os.Getenv("SMTP_PASSWORD"), // SMTP password

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"), // OpenAI API key
		OpenAIModel: model,                       // Chat completion model
	}
}
