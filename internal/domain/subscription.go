package domain

import "fmt"

// Subscription plan categories
const (
	PlanTypeReview = "review" // Prompt-review plans
	PlanTypeCustom = "custom" // Custom-board plans
)

// CreditTier is the closed set of credit costs a plan can carry.
type CreditTier string

// Valid credit tiers
const (
	TierFree CreditTier = "Free"       // No credits deducted
	TierOne  CreditTier = "1 Credit"   // One credit
	TierFive CreditTier = "5 Credits"  // Five credits
	TierTen  CreditTier = "10 Credits" // Ten credits
)

// Deduction returns the number of credits a tier costs. An unrecognised
// tier is an error, never a zero-cost no-op.
func (t CreditTier) Deduction() (float64, error) {
	switch t {
	case TierFree:
		return 0, nil
	case TierOne:
		return 1, nil
	case TierFive:
		return 5, nil
	case TierTen:
		return 10, nil
	default:
		return 0, fmt.Errorf("unknown credit tier %q", string(t))
	}
}

// SubscriptionPlan Model: static catalog entity, not mutated by billing
type SubscriptionPlan struct {
	ID          uint       `gorm:"primaryKey"` // Primary key
	Title       string     `gorm:"not null"`   // Display title
	Description string     ``                  // Marketing description
	Type        string     `gorm:"not null"`   // Plan type: review or custom
	CreditTier  CreditTier `gorm:"not null"`   // Credit cost tier
	Price       float64    `gorm:"not null"`   // Price in USD
}
