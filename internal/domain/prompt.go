package domain

// Prompt Model: a stored code-generation request and its completion
type Prompt struct {
	ID          string `gorm:"primaryKey;size:36"`   // UUID primary key
	UserID      uint   `gorm:"index"`                // Foreign key to User
	Title       string ``                            // Short label derived from the request
	Language    string ``                            // Target programming language
	Request     string `gorm:"type:text"`            // Prompt text sent to the completion provider
	Response    string `gorm:"type:text"`            // Generated code returned by the provider
	CreatedAt   int64  `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}

// Review statuses
const (
	ReviewUnderReview = "under_review" // Being looked at by a reviewer
	ReviewPending     = "pending"      // Paid for, waiting for a reviewer
	ReviewReviewed    = "reviewed"     // Review delivered
)

// PromptReview Model: created when a user spends credits on a review
type PromptReview struct {
	ID                 uint   `gorm:"primaryKey"`             // Primary key
	UserID             uint   `gorm:"index"`                  // Foreign key to User
	PromptID           string `gorm:"size:36"`                // Foreign key to Prompt
	SubscriptionPlanID uint   ``                              // Foreign key to SubscriptionPlan
	Status             string `gorm:"default:pending"`        // Review status
	AttachmentURL      string ``                              // Object-storage URL of the uploaded attachment, if any
	CreatedAt          int64  `gorm:"autoCreateTime:milli"`   // Timestamp of creation in milliseconds
}
