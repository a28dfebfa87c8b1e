package billing

import (
	"context" // Cancellation of the polling loop
	"fmt"     // Object key building
	"time"    // Poll interval

	"brainycode/internal/domain" // Importing domain models

	"github.com/google/uuid"     // Object key generation
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Mailer delivers the receipt email with the PDF attached.
type Mailer interface {
	SendReceipt(recipient, subject string, fields map[string]string, pdf []byte) error
}

// Dispatcher drains pending ReceiptJob rows: it renders the receipt PDF,
// emails it and archives a zipped copy to object storage. Jobs are written
// in the same transaction as their Order, so every committed balance
// change eventually gets a receipt attempt; delivery failures are retried
// up to a budget and never unwind the financial state.
type Dispatcher struct {
	db          *gorm.DB      // Database handle
	mailer      Mailer        // Receipt email delivery
	storage     Uploader      // Receipt archive storage
	interval    time.Duration // Poll interval
	maxAttempts int           // Retry budget per job
}

// NewDispatcher builds a receipt dispatcher.
func NewDispatcher(db *gorm.DB, mailer Mailer, storage Uploader) *Dispatcher {
	return &Dispatcher{
		db:          db,              // Database handle
		mailer:      mailer,          // Receipt email delivery
		storage:     storage,         // Receipt archive storage
		interval:    15 * time.Second, // Poll interval
		maxAttempts: 5,               // Retry budget
	}
}

// Run polls for pending receipts until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return // Shutting down
		case <-ticker.C:
			d.ProcessPending(ctx)
		}
	}
}

// ProcessPending runs one dispatch pass over the pending jobs.
func (d *Dispatcher) ProcessPending(ctx context.Context) {
	var jobs []domain.ReceiptJob // Batch of pending jobs
	if err := d.db.WithContext(ctx).
		Where("status = ?", domain.ReceiptPending).
		Order("created_at asc").
		Limit(10).
		Find(&jobs).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Receipt poll failed")
		return
	}
	for _, job := range jobs {
		if err := d.dispatch(ctx, &job); err != nil {
			d.recordFailure(ctx, &job, err)
			continue
		}
		// Mark delivered
		if err := d.db.WithContext(ctx).Model(&job).
			Updates(map[string]any{"status": domain.ReceiptSent, "attempts": job.Attempts + 1}).Error; err != nil {
			logrus.WithField("error", err.Error()).Error("Receipt status update failed")
		}
	}
}

// dispatch sends one receipt: email with PDF attached, then a zipped copy
// archived under the user's invoice prefix.
func (d *Dispatcher) dispatch(ctx context.Context, job *domain.ReceiptJob) error {
	var order domain.Order // The committed ledger entry
	if err := d.db.WithContext(ctx).First(&order, job.OrderID).Error; err != nil {
		return fmt.Errorf("order %d: %w", job.OrderID, err)
	}
	var user domain.User // The recipient
	if err := d.db.WithContext(ctx).First(&user, job.UserID).Error; err != nil {
		return fmt.Errorf("user %d: %w", job.UserID, err)
	}
	// Credits moved by the order, recovered from the catalog reference
	credits := 0.0
	if order.CreditPackageID != nil {
		var pkg domain.CreditPackage
		if err := d.db.WithContext(ctx).First(&pkg, *order.CreditPackageID).Error; err == nil {
			credits = pkg.Credits
		}
	} else if order.SubscriptionPlanID != nil {
		var plan domain.SubscriptionPlan
		if err := d.db.WithContext(ctx).First(&plan, *order.SubscriptionPlanID).Error; err == nil {
			if n, err := plan.CreditTier.Deduction(); err == nil {
				credits = n
			}
		}
	}
	fields := receiptFields(&user, &order, credits)
	pdfBytes, err := renderReceiptPDF(fields)
	if err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	if err := d.mailer.SendReceipt(user.Email, "Order Confirmation", fields, pdfBytes); err != nil {
		return fmt.Errorf("send receipt: %w", err)
	}
	// Archive the zipped invoice next to the user's generated code
	archive, err := zipReceipt(pdfBytes)
	if err != nil {
		return fmt.Errorf("zip receipt: %w", err)
	}
	key := fmt.Sprintf("user-codes/%d/order-invoice/invoice-%s.zip", user.ID, uuid.NewString())
	if _, err := d.storage.Upload(ctx, key, archive, "application/zip"); err != nil {
		return fmt.Errorf("archive receipt: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,   // Receipted order
		"user_id":  user.ID,    // Recipient
		"email":    user.Email, // Recipient address
	}).Info("Order receipt sent")
	return nil
}

// recordFailure bumps the attempt counter and parks the job once the
// retry budget is spent.
func (d *Dispatcher) recordFailure(ctx context.Context, job *domain.ReceiptJob, cause error) {
	attempts := job.Attempts + 1
	status := domain.ReceiptPending // Stay pending while budget remains
	if attempts >= d.maxAttempts {
		status = domain.ReceiptFailed // Give up
	}
	logrus.WithFields(logrus.Fields{
		"job_id":   job.ID,         // Failing job
		"order_id": job.OrderID,    // Receipted order
		"attempts": attempts,       // Attempts so far
		"error":    cause.Error(),  // Delivery failure
	}).Error("Receipt dispatch failed")
	if err := d.db.WithContext(ctx).Model(job).
		Updates(map[string]any{"status": status, "attempts": attempts, "last_error": cause.Error()}).Error; err != nil {
		logrus.WithField("error", err.Error()).Error("Receipt failure update failed")
	}
}
