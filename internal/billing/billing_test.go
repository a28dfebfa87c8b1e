package billing

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"brainycode/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB opens a throwaway SQLite database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "billing_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	))
	return db
}

// seedUser creates a user with the given credit balance.
func seedUser(t *testing.T, db *gorm.DB, credits float64) *domain.User {
	t.Helper()
	user := domain.User{Email: fmt.Sprintf("user%.0f@test.dev", credits), Name: "Test User"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&domain.CreditBalance{UserID: user.ID, Credits: credits}).Error)
	return &user
}

// seedPlan creates a review plan at the given tier.
func seedPlan(t *testing.T, db *gorm.DB, tier domain.CreditTier) *domain.SubscriptionPlan {
	t.Helper()
	plan := domain.SubscriptionPlan{Title: "Review " + string(tier), Type: domain.PlanTypeReview, CreditTier: tier, Price: 19.99}
	require.NoError(t, db.Create(&plan).Error)
	return &plan
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) float64 {
	t.Helper()
	var balance domain.CreditBalance
	require.NoError(t, db.Where("user_id = ?", userID).First(&balance).Error)
	return balance.Credits
}

// fakeUploader records uploads and can be told to fail.
type fakeUploader struct {
	keys []string
	fail bool
}

func (f *fakeUploader) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if f.fail {
		return "", errors.New("storage unavailable")
	}
	f.keys = append(f.keys, key)
	return "https://bucket.s3.test/" + key, nil
}

func TestPurchaseSucceededGrantsCredits(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 2)

	ev := PaymentEvent{
		StripeID:     "pi_100",
		UserID:       user.ID,
		ThingID:      1,
		Credits:      10,
		Price:        9.99,
		CheckoutType: CheckoutBuyCredits,
	}
	require.NoError(t, svc.PurchaseSucceeded(context.Background(), ev))

	// Balance 2 + 10 = 12, exactly one succeeded order with the reference
	assert.Equal(t, 12.0, balanceOf(t, db, user.ID))
	var orders []domain.Order
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderSucceeded, orders[0].Status)
	require.NotNil(t, orders[0].StripeID)
	assert.Equal(t, "pi_100", *orders[0].StripeID)

	// The receipt job committed with the order
	var jobs []domain.ReceiptJob
	require.NoError(t, db.Find(&jobs).Error)
	require.Len(t, jobs, 1)
	assert.Equal(t, orders[0].ID, jobs[0].OrderID)
	assert.Equal(t, domain.ReceiptPending, jobs[0].Status)
}

func TestPurchaseSucceededDuplicateDeliveryIsNoOp(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 2)

	ev := PaymentEvent{StripeID: "pi_dup", UserID: user.ID, ThingID: 1, Credits: 10, Price: 9.99, CheckoutType: CheckoutBuyCredits}
	require.NoError(t, svc.PurchaseSucceeded(context.Background(), ev))

	// Replaying the same payment intent must not double-credit
	err := svc.PurchaseSucceeded(context.Background(), ev)
	require.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.Equal(t, 12.0, balanceOf(t, db, user.ID))

	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPurchaseSucceededUnknownUser(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})

	ev := PaymentEvent{StripeID: "pi_ghost", UserID: 999, Credits: 10, Price: 9.99, CheckoutType: CheckoutBuyCredits}
	err := svc.PurchaseSucceeded(context.Background(), ev)
	require.ErrorIs(t, err, ErrNotFound)

	// No partial order may appear
	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPurchaseFailedRecordsOrderOnly(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 2)

	ev := PaymentEvent{StripeID: "pi_bad", UserID: user.ID, ThingID: 1, Credits: 10, Price: 9.99, CheckoutType: CheckoutBuyCredits}
	require.NoError(t, svc.PurchaseFailed(context.Background(), ev))

	// Balance untouched, failed order on file
	assert.Equal(t, 2.0, balanceOf(t, db, user.ID))
	var order domain.Order
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&order).Error)
	assert.Equal(t, domain.OrderFailed, order.Status)

	// A redelivered failure is dropped
	require.ErrorIs(t, svc.PurchaseFailed(context.Background(), ev), ErrAlreadyProcessed)
}

func TestFailureThenSuccessForSameIntent(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 0)

	// A failed attempt and a later success share the payment reference
	ev := PaymentEvent{StripeID: "pi_retry", UserID: user.ID, ThingID: 1, Credits: 10, Price: 9.99, CheckoutType: CheckoutBuyCredits}
	require.NoError(t, svc.PurchaseFailed(context.Background(), ev))
	require.NoError(t, svc.PurchaseSucceeded(context.Background(), ev))

	assert.Equal(t, 10.0, balanceOf(t, db, user.ID))
	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCustomOrderCheckoutDeducts(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 12)
	plan := seedPlan(t, db, domain.TierTen)

	balance, err := svc.CustomOrderCheckout(context.Background(), plan.ID, user.ID, 10, 49.99)
	require.NoError(t, err)
	assert.Equal(t, 2.0, balance.Credits)

	var order domain.Order
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&order).Error)
	assert.Equal(t, domain.OrderSucceeded, order.Status)
	require.NotNil(t, order.SubscriptionPlanID)
	assert.Equal(t, plan.ID, *order.SubscriptionPlanID)
	assert.Nil(t, order.StripeID)
}

func TestCustomOrderCheckoutCannotOverdraw(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 4)
	plan := seedPlan(t, db, domain.TierTen)

	_, err := svc.CustomOrderCheckout(context.Background(), plan.ID, user.ID, 10, 49.99)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	// No mutation and no order on rejection
	assert.Equal(t, 4.0, balanceOf(t, db, user.ID))
	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSpendCreditsForReviewExactBalance(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 5)
	plan := seedPlan(t, db, domain.TierFive)

	review, err := svc.SpendCreditsForReview(context.Background(), user.ID, plan.ID, "prompt-1", nil)
	require.NoError(t, err)

	// Balance 5 - 5 = 0 and exactly one pending review
	assert.Equal(t, 0.0, balanceOf(t, db, user.ID))
	assert.Equal(t, domain.ReviewPending, review.Status)
	var count int64
	require.NoError(t, db.Model(&domain.PromptReview{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSpendCreditsForReviewInsufficient(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 3)
	plan := seedPlan(t, db, domain.TierFive)

	_, err := svc.SpendCreditsForReview(context.Background(), user.ID, plan.ID, "prompt-1", nil)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	// Balance stays 3 and no review row exists
	assert.Equal(t, 3.0, balanceOf(t, db, user.ID))
	var count int64
	require.NoError(t, db.Model(&domain.PromptReview{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSpendCreditsForReviewSequence(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 7)
	one := seedPlan(t, db, domain.TierOne)
	five := seedPlan(t, db, domain.TierFive)

	// 7 - 1 - 5 = 1; the third spend must be rejected without mutation
	_, err := svc.SpendCreditsForReview(context.Background(), user.ID, one.ID, "p1", nil)
	require.NoError(t, err)
	_, err = svc.SpendCreditsForReview(context.Background(), user.ID, five.ID, "p2", nil)
	require.NoError(t, err)
	_, err = svc.SpendCreditsForReview(context.Background(), user.ID, five.ID, "p3", nil)
	require.ErrorIs(t, err, ErrInsufficientCredits)

	assert.Equal(t, 1.0, balanceOf(t, db, user.ID))
	var count int64
	require.NoError(t, db.Model(&domain.PromptReview{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSpendCreditsForReviewFreePlan(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 0)
	plan := seedPlan(t, db, domain.TierFree)

	// A free review works even at zero balance
	review, err := svc.SpendCreditsForReview(context.Background(), user.ID, plan.ID, "p1", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.ReviewPending, review.Status)
	assert.Equal(t, 0.0, balanceOf(t, db, user.ID))
}

func TestSpendCreditsForReviewUnknownTier(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 5)
	plan := domain.SubscriptionPlan{Title: "Broken", Type: domain.PlanTypeReview, CreditTier: "20 Credits", Price: 1}
	require.NoError(t, db.Create(&plan).Error)

	// An unmapped tier must fail, not silently deduct nothing
	_, err := svc.SpendCreditsForReview(context.Background(), user.ID, plan.ID, "p1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown credit tier")
	assert.Equal(t, 5.0, balanceOf(t, db, user.ID))
}

func TestSpendCreditsForReviewAttachmentUpload(t *testing.T) {
	db := openTestDB(t)
	uploader := &fakeUploader{}
	svc := NewService(db, uploader)
	user := seedUser(t, db, 5)
	plan := seedPlan(t, db, domain.TierOne)

	attachment := &Attachment{Name: "main.go", ContentType: "text/plain", Body: []byte("package main")}
	review, err := svc.SpendCreditsForReview(context.Background(), user.ID, plan.ID, "p1", attachment)
	require.NoError(t, err)
	require.Len(t, uploader.keys, 1)
	assert.True(t, strings.HasPrefix(uploader.keys[0], fmt.Sprintf("user-codes/%d/review-prompt/", user.ID)))
	assert.NotEmpty(t, review.AttachmentURL)
}

func TestSpendCreditsForReviewUploadFailureKeepsSpend(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{fail: true})
	user := seedUser(t, db, 5)
	plan := seedPlan(t, db, domain.TierOne)

	attachment := &Attachment{Name: "main.go", ContentType: "text/plain", Body: []byte("package main")}
	review, err := svc.SpendCreditsForReview(context.Background(), user.ID, plan.ID, "p1", attachment)

	// The upload failure surfaces, but the committed spend and review stand
	require.ErrorIs(t, err, ErrAttachmentUpload)
	require.NotNil(t, review)
	assert.Equal(t, 4.0, balanceOf(t, db, user.ID))
	var count int64
	require.NoError(t, db.Model(&domain.PromptReview{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestParsePaymentMetadataRoundTrip(t *testing.T) {
	ev := PaymentEvent{
		StripeID:     "pi_200",
		UserID:       42,
		ThingID:      3,
		Credits:      25,
		Price:        19.99,
		CheckoutType: CheckoutBuyCredits,
	}
	meta := ev.Metadata()
	// The wire keys are fixed
	assert.Equal(t, "3", meta["planOrPackageId"])
	assert.Equal(t, "42", meta["userId"])
	assert.Equal(t, "25", meta["creditAmount"])
	assert.Equal(t, "19.99", meta["price"])
	assert.Equal(t, "buycredits", meta["checkoutType"])

	parsed, err := ParsePaymentMetadata("pi_200", meta)
	require.NoError(t, err)
	assert.Equal(t, ev, parsed)
}

func TestParsePaymentMetadataRejectsGarbage(t *testing.T) {
	_, err := ParsePaymentMetadata("pi_x", map[string]string{
		"planOrPackageId": "1",
		"userId":          "not-a-number",
		"creditAmount":    "10",
		"price":           "9.99",
		"checkoutType":    CheckoutBuyCredits,
	})
	require.Error(t, err)
}

func TestOrdersNewestFirst(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 0)

	// Three purchases, then read the history back
	for i := 1; i <= 3; i++ {
		ev := PaymentEvent{StripeID: fmt.Sprintf("pi_%d", i), UserID: user.ID, ThingID: 1, Credits: 10, Price: 9.99, CheckoutType: CheckoutBuyCredits}
		require.NoError(t, svc.PurchaseSucceeded(context.Background(), ev))
	}

	orders, total, err := svc.Orders(context.Background(), user.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 2)
	// Newest first: the page is ordered by descending creation time
	assert.GreaterOrEqual(t, orders[0].CreatedAt, orders[1].CreatedAt)

	last, err := svc.LastOrder(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, orders[0].ID, last.ID)
}

func TestLastOrderWithoutHistory(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 0)

	last, err := svc.LastOrder(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestBillingAddressUpsert(t *testing.T) {
	db := openTestDB(t)
	svc := NewService(db, &fakeUploader{})
	user := seedUser(t, db, 0)

	// Nothing on file yet
	addr, err := svc.BillingAddress(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, addr)

	first := &domain.BillingAddress{UserID: user.ID, ShipTo: "Test User", City: "Austin", State: "TX", Zipcode: "73301", Email: "user@test.dev", SaveInfo: true}
	require.NoError(t, svc.SaveBillingAddress(context.Background(), first))

	// Saving again replaces the fields, not the row
	second := &domain.BillingAddress{UserID: user.ID, ShipTo: "Test User", City: "Denver", State: "CO", Zipcode: "80014", Email: "user@test.dev", SaveInfo: true}
	require.NoError(t, svc.SaveBillingAddress(context.Background(), second))

	addr, err = svc.BillingAddress(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, addr)
	assert.Equal(t, first.ID, addr.ID)
	assert.Equal(t, "Denver", addr.City)

	var count int64
	require.NoError(t, db.Model(&domain.BillingAddress{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
