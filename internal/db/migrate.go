package db

import (
	"brainycode/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	err = db.AutoMigrate(
		&domain.User{},
		&domain.CreditBalance{},
		&domain.CreditPackage{},
		&domain.SubscriptionPlan{},
		&domain.Order{},
		&domain.Prompt{},
		&domain.PromptReview{},
		&domain.BillingAddress{},
		&domain.ReceiptJob{},
		&domain.Language{},
		&domain.BoardSpecification{},
	)
	if err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	// Seed the static catalog entities
	if err := Seed(db); err != nil {
		logrus.Fatalf("catalog seed failed: %v", err)
	}
	logrus.Info("Migration completed.") // Log successful migration
}

// Seed inserts the catalog of credit packages and subscription plans if
// the tables are still empty
func Seed(db *gorm.DB) error {
	var n int64 // Existing package count
	if err := db.Model(&domain.CreditPackage{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		// Purchasable credit bundles
		packages := []domain.CreditPackage{
			{Title: "Starter", Description: "10 credits to get going", Credits: 10, Price: 9.99},
			{Title: "Builder", Description: "25 credits for regular use", Credits: 25, Price: 19.99},
			{Title: "Studio", Description: "60 credits for heavy use", Credits: 60, Price: 39.99},
		}
		if err := db.Create(&packages).Error; err != nil {
			return err
		}
	}
	if err := db.Model(&domain.SubscriptionPlan{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		// Review and custom-board plans keyed by credit tier
		plans := []domain.SubscriptionPlan{
			{Title: "Community review", Description: "Best-effort community feedback", Type: domain.PlanTypeReview, CreditTier: domain.TierFree, Price: 0},
			{Title: "Quick review", Description: "Single-pass expert review", Type: domain.PlanTypeReview, CreditTier: domain.TierOne, Price: 4.99},
			{Title: "Deep review", Description: "Line-by-line expert review", Type: domain.PlanTypeReview, CreditTier: domain.TierFive, Price: 19.99},
			{Title: "Full audit", Description: "Full project audit with report", Type: domain.PlanTypeReview, CreditTier: domain.TierTen, Price: 34.99},
			{Title: "Custom board", Description: "Custom board specification build", Type: domain.PlanTypeCustom, CreditTier: domain.TierTen, Price: 49.99},
		}
		if err := db.Create(&plans).Error; err != nil {
			return err
		}
	}
	if err := db.Model(&domain.Language{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		// Supported language and framework pairs for the generation frontend
		languages := []domain.Language{
			{Language: "JavaScript", Framework: "React", Extension: ".js"},
			{Language: "JavaScript", Framework: "Vue", Extension: ".js"},
			{Language: "JavaScript", Framework: "Angular", Extension: ".js"},
			{Language: "JavaScript", Framework: "Node.js", Extension: ".js"},
			{Language: "Python", Framework: "Django", Extension: ".py"},
			{Language: "Python", Framework: "Flask", Extension: ".py"},
			{Language: "Python", Framework: "FastAPI", Extension: ".py"},
			{Language: "Python", Framework: "Pyramid", Extension: ".py"},
			{Language: "C#", Framework: ".NET", Extension: ".cs"},
			{Language: "C#", Framework: "ASP.NET", Extension: ".cs"},
			{Language: "C#", Framework: "Blazor", Extension: ".cs"},
		}
		if err := db.Create(&languages).Error; err != nil {
			return err
		}
	}
	if err := db.Model(&domain.BoardSpecification{}).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		// Boards a custom order can target
		boards := []domain.BoardSpecification{
			{Model: "Nova A1", Processor: "Quad-core Cortex-A72 1.8GHz", Memory: "4GB LPDDR4", Storage: "32GB eMMC", Connectivity: "WiFi 5, Bluetooth 5.0, Gigabit Ethernet", IOPorts: "2x USB 3.0, 2x USB 2.0, HDMI, 40-pin GPIO", Dimensions: "85mm x 56mm", Language: "Python", Architecture: "ARM64"},
			{Model: "Nova M2", Processor: "Dual-core Cortex-M7 480MHz", Memory: "1MB SRAM", Storage: "2MB Flash", Connectivity: "WiFi 4, Bluetooth LE", IOPorts: "USB-C, 26-pin GPIO, I2C, SPI", Dimensions: "51mm x 21mm", Language: "C", Architecture: "ARM Cortex-M"},
			{Model: "Nova X4", Processor: "Hexa-core Cortex-A76 2.4GHz", Memory: "8GB LPDDR5", Storage: "64GB eMMC, NVMe slot", Connectivity: "WiFi 6, Bluetooth 5.2, 2.5G Ethernet", IOPorts: "4x USB 3.1, 2x HDMI, 40-pin GPIO, PCIe", Dimensions: "100mm x 72mm", Language: "C++", Architecture: "ARM64"},
		}
		if err := db.Create(&boards).Error; err != nil {
			return err
		}
	}
	return nil
}
