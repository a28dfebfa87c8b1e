package domain

// Receipt job states
const (
	ReceiptPending = "pending" // Waiting for the dispatcher
	ReceiptSent    = "sent"    // Email delivered and PDF archived
	ReceiptFailed  = "failed"  // Gave up after the retry budget
)

// ReceiptJob Model: outbox row for the order receipt. Written in the same
// transaction as the Order so the financial state and the pending side
// effect commit together; a background dispatcher drains the table.
type ReceiptJob struct {
	ID        uint   `gorm:"primaryKey"`           // Primary key
	OrderID   uint   `gorm:"uniqueIndex"`          // Foreign key to Order; one receipt per order
	UserID    uint   `gorm:"index"`                // Foreign key to User
	Status    string `gorm:"default:pending"`      // Job state: pending, sent, failed
	Attempts  int    `gorm:"default:0"`            // Delivery attempts so far
	LastError string ``                            // Message from the most recent failed attempt
	CreatedAt int64  `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
	UpdatedAt int64  `gorm:"autoUpdateTime:milli"` // Timestamp of last attempt in milliseconds
}
