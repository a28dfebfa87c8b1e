package billing

import (
	"context" // Context for storage and DB operations
	"errors"  // Sentinel error checks
	"fmt"     // Error wrapping
	"strconv" // Metadata parsing

	"brainycode/internal/domain" // Importing domain models

	"github.com/google/uuid"     // Object key generation
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Uploader persists bytes to object storage and returns the object URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Checkout types carried in the payment metadata
const (
	CheckoutBuyCredits     = "buycredits"     // Credit-package purchase
	CheckoutBuyCustomBoard = "buycustomboard" // Custom-board order
)

// PaymentEvent is the verified payment-outcome payload the service
// consumes. The metadata keys are the wire format and must round-trip
// exactly as named.
type PaymentEvent struct {
	StripeID     string  // External payment reference (payment intent id)
	UserID       uint    // Paying user
	ThingID      uint    // Credit package or subscription plan id
	Credits      float64 // Credits purchased or spent
	Price        float64 // Monetary amount in USD
	CheckoutType string  // buycredits or buycustomboard
}

// ParsePaymentMetadata extracts a PaymentEvent from a payment intent's
// metadata bag. Keys: planOrPackageId, userId, creditAmount, price,
// checkoutType.
func ParsePaymentMetadata(stripeID string, meta map[string]string) (PaymentEvent, error) {
	userID, err := strconv.ParseUint(meta["userId"], 10, 64)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("bad userId %q: %w", meta["userId"], err)
	}
	thingID, err := strconv.ParseUint(meta["planOrPackageId"], 10, 64)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("bad planOrPackageId %q: %w", meta["planOrPackageId"], err)
	}
	credits, err := strconv.ParseFloat(meta["creditAmount"], 64)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("bad creditAmount %q: %w", meta["creditAmount"], err)
	}
	price, err := strconv.ParseFloat(meta["price"], 64)
	if err != nil {
		return PaymentEvent{}, fmt.Errorf("bad price %q: %w", meta["price"], err)
	}
	return PaymentEvent{
		StripeID:     stripeID,               // External payment reference
		UserID:       uint(userID),           // Paying user
		ThingID:      uint(thingID),          // Package or plan id
		Credits:      credits,                // Credits purchased or spent
		Price:        price,                  // Monetary amount
		CheckoutType: meta["checkoutType"],   // Checkout type discriminator
	}, nil
}

// Metadata returns the event as a Stripe metadata bag, the inverse of
// ParsePaymentMetadata.
func (e PaymentEvent) Metadata() map[string]string {
	return map[string]string{
		"planOrPackageId": strconv.FormatUint(uint64(e.ThingID), 10),
		"userId":          strconv.FormatUint(uint64(e.UserID), 10),
		"creditAmount":    strconv.FormatFloat(e.Credits, 'f', -1, 64),
		"price":           strconv.FormatFloat(e.Price, 'f', -1, 64),
		"checkoutType":    e.CheckoutType,
	}
}

// Service applies credit-balance changes and records the matching Order,
// keeping both inside one transaction. Constructed with its collaborators
// so tests can substitute doubles.
type Service struct {
	db      *gorm.DB // Database handle
	storage Uploader // Object storage for attachments
}

// NewService builds a billing service around a DB handle and storage.
func NewService(db *gorm.DB, storage Uploader) *Service {
	return &Service{db: db, storage: storage}
}

// PurchaseSucceeded applies a verified payment_intent.succeeded event for
// a credit-package purchase: the balance increment, the succeeded Order
// and the pending receipt job commit together. Replayed deliveries of the
// same payment intent are rejected with ErrAlreadyProcessed.
func (s *Service) PurchaseSucceeded(ctx context.Context, ev PaymentEvent) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user domain.User // The paying user must exist
		if err := tx.First(&user, ev.UserID).Error; err != nil {
			return fmt.Errorf("user %d: %w", ev.UserID, ErrNotFound)
		}
		var balance domain.CreditBalance // And carry a balance row
		if err := tx.Where("user_id = ?", ev.UserID).First(&balance).Error; err != nil {
			return fmt.Errorf("balance of user %d: %w", ev.UserID, ErrNotFound)
		}
		// Reject a replayed delivery before touching the balance
		var dup int64
		if err := tx.Model(&domain.Order{}).
			Where("stripe_id = ? AND status = ?", ev.StripeID, domain.OrderSucceeded).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrAlreadyProcessed
		}
		// Apply the credit grant in place
		if err := tx.Model(&balance).Update("credits", gorm.Expr("credits + ?", ev.Credits)).Error; err != nil {
			return err // Return error to rollback
		}
		// Append the ledger entry; the unique (stripe_id, status) index is
		// the backstop against two concurrent deliveries
		order := domain.Order{
			CreditPackageID: &ev.ThingID,           // Purchased package
			StripeID:        &ev.StripeID,          // External payment reference
			Amount:          ev.Price,              // Monetary amount
			Status:          domain.OrderSucceeded, // Payment applied
			UserID:          ev.UserID,             // Paying user
		}
		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyProcessed // Lost the race to a duplicate delivery
			}
			return err
		}
		// Queue the receipt for the dispatcher in the same transaction
		return tx.Create(&domain.ReceiptJob{OrderID: order.ID, UserID: ev.UserID}).Error
	})
	if err != nil {
		return err
	}
	// Log successful reconciliation
	logrus.WithFields(logrus.Fields{
		"user_id":   ev.UserID,     // Paying user
		"stripe_id": ev.StripeID,   // External payment reference
		"credits":   ev.Credits,    // Credits granted
		"amount":    ev.Price,      // Monetary amount
		"type":      "buy_credits", // Event type
	}).Info("Credit purchase applied")
	return nil
}

// PurchaseFailed records a failed Order for audit. The balance is never
// touched; replays of the same failure are dropped.
func (s *Service) PurchaseFailed(ctx context.Context, ev PaymentEvent) error {
	order := domain.Order{
		CreditPackageID: &ev.ThingID,        // Attempted package
		StripeID:        &ev.StripeID,       // External payment reference
		Amount:          ev.Price,           // Monetary amount
		Status:          domain.OrderFailed, // Payment failed
		UserID:          ev.UserID,          // Paying user
	}
	if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyProcessed // Same failure already on file
		}
		return err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   ev.UserID,   // Paying user
		"stripe_id": ev.StripeID, // External payment reference
		"amount":    ev.Price,    // Monetary amount
	}).Info("Failed payment recorded")
	return nil
}

// CustomOrderSucceeded applies a verified payment_intent.succeeded event
// for a custom-board order: credits are spent, not granted.
func (s *Service) CustomOrderSucceeded(ctx context.Context, ev PaymentEvent) (*domain.CreditBalance, error) {
	return s.customOrder(ctx, ev.ThingID, ev.UserID, ev.Credits, ev.Price, &ev.StripeID)
}

// CustomOrderCheckout is the synchronous custom-order path: it deducts the
// credit cost, records a succeeded Order and returns the updated balance.
func (s *Service) CustomOrderCheckout(ctx context.Context, planID, userID uint, credits, price float64) (*domain.CreditBalance, error) {
	return s.customOrder(ctx, planID, userID, credits, price, nil)
}

func (s *Service) customOrder(ctx context.Context, planID, userID uint, credits, price float64, stripeID *string) (*domain.CreditBalance, error) {
	var balance domain.CreditBalance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&balance).Error; err != nil {
			return fmt.Errorf("balance of user %d: %w", userID, ErrNotFound)
		}
		if stripeID != nil {
			// Webhook path: drop a replayed delivery
			var dup int64
			if err := tx.Model(&domain.Order{}).
				Where("stripe_id = ? AND status = ?", *stripeID, domain.OrderSucceeded).
				Count(&dup).Error; err != nil {
				return err
			}
			if dup > 0 {
				return ErrAlreadyProcessed
			}
		}
		// Guarded decrement: only applies when the balance covers the cost,
		// so a custom order can never overdraw the account
		res := tx.Model(&domain.CreditBalance{}).
			Where("user_id = ? AND credits >= ?", userID, credits).
			Update("credits", gorm.Expr("credits - ?", credits))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientCredits
		}
		order := domain.Order{
			SubscriptionPlanID: &planID,               // Ordered plan
			StripeID:           stripeID,              // External reference, nil on the synchronous path
			Amount:             price,                 // Monetary amount
			Status:             domain.OrderSucceeded, // Order applied
			UserID:             userID,                // Ordering user
		}
		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyProcessed
			}
			return err
		}
		// Queue the receipt in the same transaction
		if err := tx.Create(&domain.ReceiptJob{OrderID: order.ID, UserID: userID}).Error; err != nil {
			return err
		}
		// Re-read so the caller sees the post-deduction balance
		return tx.Where("user_id = ?", userID).First(&balance).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,             // Ordering user
		"plan_id": planID,             // Ordered plan
		"credits": credits,            // Credits spent
		"amount":  price,              // Monetary amount
		"type":    "buy_custom_board", // Event type
	}).Info("Custom order applied")
	return &balance, nil
}

// Attachment is an optional file the user submits with a review request.
type Attachment struct {
	Name        string // Original file name
	ContentType string // MIME type
	Body        []byte // File content
}

// SpendCreditsForReview deducts the plan's credit cost and creates the
// PromptReview inside one transaction. The optional attachment is uploaded
// after commit: an upload failure surfaces as ErrAttachmentUpload but the
// committed spend and review stand.
func (s *Service) SpendCreditsForReview(ctx context.Context, userID, planID uint, promptID string, attachment *Attachment) (*domain.PromptReview, error) {
	var review domain.PromptReview
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var balance domain.CreditBalance // (1) the user must carry a balance row
		if err := tx.Where("user_id = ?", userID).First(&balance).Error; err != nil {
			return fmt.Errorf("balance of user %d: %w", userID, ErrNotFound)
		}
		var plan domain.SubscriptionPlan // (2) the plan determines the deduction
		if err := tx.First(&plan, planID).Error; err != nil {
			return fmt.Errorf("subscription plan %d: %w", planID, ErrNotFound)
		}
		deduction, err := plan.CreditTier.Deduction()
		if err != nil {
			return err // Unknown tier fails fast instead of deducting nothing
		}
		// (3)+(4) reject and roll back if the spend would go negative,
		// otherwise persist the decrement
		res := tx.Model(&domain.CreditBalance{}).
			Where("user_id = ? AND credits >= ?", userID, deduction).
			Update("credits", gorm.Expr("credits - ?", deduction))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrInsufficientCredits
		}
		// (5) create the review row with status pending
		review = domain.PromptReview{
			UserID:             userID,               // Requesting user
			PromptID:           promptID,             // Prompt under review
			SubscriptionPlanID: planID,               // Paying plan
			Status:             domain.ReviewPending, // Waiting for a reviewer
		}
		return tx.Create(&review).Error
	})
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"user_id":   userID,   // Requesting user
		"plan_id":   planID,   // Paying plan
		"prompt_id": promptID, // Prompt under review
		"review_id": review.ID,
	}).Info("Review credits spent")
	// Best-effort attachment upload outside the transaction boundary: the
	// credit spend is already committed and must not unwind
	if attachment != nil {
		key := fmt.Sprintf("user-codes/%d/review-prompt/%s-%s", userID, promptID, uuid.NewString())
		url, err := s.storage.Upload(ctx, key, attachment.Body, attachment.ContentType)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,      // Requesting user
				"review_id": review.ID,   // Committed review
				"error":     err.Error(), // Upload failure
			}).Error("Review attachment upload failed")
			return &review, fmt.Errorf("%w: %v", ErrAttachmentUpload, err)
		}
		// Record the attachment location on the committed review
		if err := s.db.WithContext(ctx).Model(&review).Update("attachment_url", url).Error; err != nil {
			return &review, fmt.Errorf("%w: %v", ErrAttachmentUpload, err)
		}
		review.AttachmentURL = url
	}
	return &review, nil
}

// Balance returns the user's credit balance row.
func (s *Service) Balance(ctx context.Context, userID uint) (*domain.CreditBalance, error) {
	var balance domain.CreditBalance
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error; err != nil {
		return nil, fmt.Errorf("balance of user %d: %w", userID, ErrNotFound)
	}
	return &balance, nil
}
