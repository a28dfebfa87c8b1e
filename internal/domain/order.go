package domain

// Order statuses
const (
	OrderSucceeded = "succeeded" // Payment applied to the ledger
	OrderFailed    = "failed"    // Payment failed; recorded for audit only
	OrderPending   = "pending"   // Awaiting the payment outcome
)

// Order Model: append-only ledger of balance-affecting events. The
// composite unique index on (stripe_id, status) is the idempotency key
// for replayed webhook deliveries.
type Order struct {
	ID                 uint    `gorm:"primaryKey"`                             // Primary key
	CreditPackageID    *uint   ``                                              // Foreign key to CreditPackage (credit purchases)
	SubscriptionPlanID *uint   ``                                              // Foreign key to SubscriptionPlan (custom orders)
	StripeID           *string `gorm:"index:idx_orders_stripe_status,unique"`  // External payment reference; nil for synchronous orders
	Status             string  `gorm:"index:idx_orders_stripe_status,unique"`  // Order status: succeeded, failed, pending
	Amount             float64 `gorm:"not null"`                               // Monetary amount in USD
	UserID             uint    `gorm:"index"`                                  // Foreign key to User
	CreatedAt          int64   `gorm:"autoCreateTime:milli"`                   // Timestamp of creation in milliseconds
}
