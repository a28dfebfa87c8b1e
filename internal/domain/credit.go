package domain

// CreditBalance Model: one row per user, mutated only by the billing service
type CreditBalance struct {
	ID        uint    `gorm:"primaryKey"`           // Primary key
	UserID    uint    `gorm:"uniqueIndex"`          // Foreign key to User
	Credits   float64 `gorm:"not null;default:0"`   // Spendable credits; never allowed below zero
	UpdatedAt int64   `gorm:"autoUpdateTime:milli"` // Timestamp of last mutation in milliseconds
}

// StartingCredits is granted to every new account at signup.
const StartingCredits = 5

// CreditPackage Model: catalog entry for a purchasable bundle of credits
type CreditPackage struct {
	ID          uint    `gorm:"primaryKey"` // Primary key
	Title       string  `gorm:"not null"`   // Display title
	Description string  ``                  // Marketing description
	Credits     float64 `gorm:"not null"`   // Credits granted on purchase
	Price       float64 `gorm:"not null"`   // Price in USD
}
