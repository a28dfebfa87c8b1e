package domain

// BillingAddress Model: at most one saved address per user, upserted
type BillingAddress struct {
	ID           uint   `gorm:"primaryKey"`  // Primary key
	UserID       uint   `gorm:"uniqueIndex"` // Foreign key to User
	ShipTo       string ``                   // Recipient name
	Organisation string ``                   // Company name, optional
	Address1     string ``                   // Street address line 1
	Address2     string ``                   // Street address line 2
	City         string ``                   // City
	State        string ``                   // State or province
	Zipcode      string ``                   // Postal code
	Email        string ``                   // Contact email
	MobileNo     string ``                   // Contact phone number
	SaveInfo     bool   ``                   // Whether the user asked to keep the address on file
}
