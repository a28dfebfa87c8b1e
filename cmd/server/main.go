package main

import (
	"context" // Context for Redis and the dispatcher
	"log"     // Startup logging

	"brainycode/internal/api"        // Custom package for API handlers
	"brainycode/internal/billing"    // Billing and reconciliation service
	"brainycode/internal/config"     // Custom package for configuration
	"brainycode/internal/llm"        // Completion provider
	"brainycode/internal/mailer"     // Receipt mail delivery
	"brainycode/internal/middleware" // Custom package for middleware
	"brainycode/internal/storage"    // Object storage

	"github.com/gin-gonic/gin"        // Gin web framework
	"github.com/redis/go-redis/v9"    // Redis client
	"github.com/sirupsen/logrus"      // Logrus for structured logging
	"github.com/stripe/stripe-go/v82" // Stripe SDK
	"gorm.io/driver/mysql"            // MySQL driver for GORM
	"gorm.io/gorm"                    // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database.
	// TranslateError lets the billing service detect duplicate-key
	// conflicts on replayed webhook deliveries.
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Wire the Stripe API key
	stripe.Key = cfg.StripeSecretKey

	// Object storage for uploads and receipt archives
	store, err := storage.NewS3Store(context.Background(), cfg.AWSRegion, cfg.S3Bucket)
	if err != nil {
		logrus.Fatalf("failed to set up object storage: %v", err)
	}

	// Receipt mail delivery and completion provider
	smtp := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword)
	completer := llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)

	// Billing service and the receipt dispatcher draining its outbox
	svc := billing.NewService(db, store)
	dispatcher := billing.NewDispatcher(db, smtp, store)
	go dispatcher.Run(context.Background())

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/auth/signup", api.SignupHandler(db))                // Registration endpoint
	r.POST("/auth/signin", api.SigninHandler(db, cfg.JWTSecret)) // Login endpoint

	// Payment processor webhook (signature-verified, unauthenticated)
	r.POST("/webhook/stripe", api.StripeWebhookHandler(svc, cfg.StripeWebhookSecret))

	// Authenticated routes, with the Redis client injected into context
	authed := r.Group("/")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), func(c *gin.Context) {
		c.Set("redisClient", redisClient)
		c.Next()
	})
	authed.GET("/user/credit", api.GetCreditHandler(svc))              // Credit balance endpoint
	authed.POST("/user/profile", api.ProfileUploadHandler(db, store))  // Profile image upload endpoint
	authed.GET("/subscription/plans", api.PlansHandler(db))            // Subscription plan catalog endpoint
	authed.GET("/subscription/credits", api.CreditPackagesHandler(db)) // Credit package catalog endpoint
	authed.POST("/subscription/checkout", api.CheckoutSessionHandler(cfg.FrontendURL)) // Stripe Checkout endpoint
	authed.POST("/subscription/custom-order", api.CustomOrderHandler(svc))          // Synchronous custom order endpoint
	authed.POST("/subscription/review", api.ReviewPromptHandler(svc))               // Review submission endpoint
	authed.GET("/subscription/orders", api.OrdersHandler(svc))                      // Order history endpoint
	authed.GET("/subscription/orders/last", api.LastOrderHandler(svc))              // Last order endpoint
	authed.GET("/subscription/billing-address", api.GetBillingAddressHandler(svc))  // Billing address lookup endpoint
	authed.POST("/subscription/billing-address", api.SaveBillingAddressHandler(svc)) // Billing address upsert endpoint
	authed.GET("/subscription/board-specifications", api.BoardSpecificationsHandler(db)) // Board catalog endpoint
	authed.POST("/code/generate", api.GenerateCodeHandler(db, completer, store))    // Code generation endpoint
	authed.POST("/code/regenerate", api.RegeneratePromptHandler(db, completer, store)) // Prompt regeneration endpoint
	authed.GET("/code/data", api.LanguagesHandler(db))                              // Language catalog endpoint
	authed.GET("/code/prompts", api.PromptsHandler(db))                             // Prompt list endpoint
	authed.GET("/code/prompts/:id", api.PromptHandler(db))                          // Prompt detail endpoint
	authed.DELETE("/code/prompts/:id", api.DeletePromptHandler(db))                 // Prompt delete endpoint
	authed.GET("/code/prompt-reviews", api.PromptReviewsHandler(db))                // Prompt review list endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	// Protect admin routes with JWT and AdminOnly middleware
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))   // List users endpoint
	adminGroup.GET("/orders", api.ListOrdersHandler(db, redisClient)) // List orders endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
