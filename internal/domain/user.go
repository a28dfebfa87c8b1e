package domain

// User Model
type User struct {
	ID         uint          `gorm:"primaryKey"`           // Primary key
	Email      string        `gorm:"unique;not null"`      // Unique email address
	Name       string        `gorm:"not null"`             // Display name
	Password   string        ``                            // Hashed password; empty for externally-authenticated identities
	Role       string        `gorm:"default:user"`         // Role: user or admin
	ProfileURL string        ``                            // Object-storage URL of the profile image
	Balance    CreditBalance `gorm:"foreignKey:UserID"`    // One-to-one relationship with CreditBalance
	CreatedAt  int64         `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
