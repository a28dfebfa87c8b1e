package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"brainycode/internal/billing"
	"brainycode/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

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

// asUser injects the authenticated user id the way the JWT middleware does
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	}
}

// seedAccount creates a user with a balance and a review plan.
func seedAccount(t *testing.T, db *gorm.DB, credits float64, tier domain.CreditTier) (*domain.User, *domain.SubscriptionPlan) {
	t.Helper()
	user := domain.User{Email: "billing@test.dev", Name: "Bill"}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&domain.CreditBalance{UserID: user.ID, Credits: credits}).Error)
	plan := domain.SubscriptionPlan{Title: "Review", Type: domain.PlanTypeReview, CreditTier: tier, Price: 19.99}
	require.NoError(t, db.Create(&plan).Error)
	return &user, &plan
}

func TestReviewPromptEndpoint(t *testing.T) {
	db := openTestDB(t)
	svc := billing.NewService(db, &fakeUploader{})
	user, plan := seedAccount(t, db, 5, domain.TierFive)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/subscription/review", asUser(user.ID), ReviewPromptHandler(svc))

	w := postJSON(t, r, "/subscription/review", gin.H{"planId": plan.ID, "promptId": "prompt-1"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Balance drained to zero and one pending review created
	var balance domain.CreditBalance
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&balance).Error)
	assert.Equal(t, 0.0, balance.Credits)
	var review domain.PromptReview
	require.NoError(t, db.First(&review).Error)
	assert.Equal(t, domain.ReviewPending, review.Status)
}

func TestReviewPromptEndpointInsufficientCredits(t *testing.T) {
	db := openTestDB(t)
	svc := billing.NewService(db, &fakeUploader{})
	user, plan := seedAccount(t, db, 3, domain.TierFive)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/subscription/review", asUser(user.ID), ReviewPromptHandler(svc))

	w := postJSON(t, r, "/subscription/review", gin.H{"planId": plan.ID, "promptId": "prompt-1"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "low credit")

	// Nothing moved
	var balance domain.CreditBalance
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&balance).Error)
	assert.Equal(t, 3.0, balance.Credits)
	var count int64
	require.NoError(t, db.Model(&domain.PromptReview{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestCustomOrderEndpoint(t *testing.T) {
	db := openTestDB(t)
	svc := billing.NewService(db, &fakeUploader{})
	user, plan := seedAccount(t, db, 12, domain.TierTen)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/subscription/custom-order", asUser(user.ID), CustomOrderHandler(svc))

	w := postJSON(t, r, "/subscription/custom-order", gin.H{"planId": plan.ID, "credit": 10, "price": 49.99})
	require.Equal(t, http.StatusOK, w.Code)

	// The response carries the post-deduction balance
	var resp struct {
		Credits domain.CreditBalance `json:"credits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2.0, resp.Credits.Credits)

	// Overdrawing the remainder is rejected
	w = postJSON(t, r, "/subscription/custom-order", gin.H{"planId": plan.ID, "credit": 10, "price": 49.99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomOrderEndpointFreeTier(t *testing.T) {
	db := openTestDB(t)
	svc := billing.NewService(db, &fakeUploader{})
	user, _ := seedAccount(t, db, 2, domain.TierTen)
	free := domain.SubscriptionPlan{Title: "Free board", Type: domain.PlanTypeCustom, CreditTier: domain.TierFree, Price: 9.99}
	require.NoError(t, db.Create(&free).Error)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/subscription/custom-order", asUser(user.ID), CustomOrderHandler(svc))

	// A zero-credit order passes validation and leaves the balance alone
	w := postJSON(t, r, "/subscription/custom-order", gin.H{"planId": free.ID, "credit": 0, "price": 9.99})
	require.Equal(t, http.StatusOK, w.Code)
	var balance domain.CreditBalance
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&balance).Error)
	assert.Equal(t, 2.0, balance.Credits)
	var count int64
	require.NoError(t, db.Model(&domain.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A negative cost is still rejected
	w = postJSON(t, r, "/subscription/custom-order", gin.H{"planId": free.ID, "credit": -1, "price": 9.99})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutRedirectURL(t *testing.T) {
	// The caller's callback wins; the frontend origin is the fallback
	assert.Equal(t, "https://app.test/paid", checkoutRedirectURL("https://app.test/paid", "https://app.test"))
	assert.Equal(t, "https://app.test", checkoutRedirectURL("", "https://app.test"))
}

func TestOrdersAndLastOrderEndpoints(t *testing.T) {
	db := openTestDB(t)
	svc := billing.NewService(db, &fakeUploader{})
	user, _ := seedAccount(t, db, 0, domain.TierOne)

	// Two purchases through the service
	for _, id := range []string{"pi_a", "pi_b"} {
		ev := billing.PaymentEvent{StripeID: id, UserID: user.ID, ThingID: 1, Credits: 10, Price: 9.99, CheckoutType: billing.CheckoutBuyCredits}
		require.NoError(t, svc.PurchaseSucceeded(context.Background(), ev))
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/subscription/orders", asUser(user.ID), OrdersHandler(svc))
	r.GET("/subscription/orders/last", asUser(user.ID), LastOrderHandler(svc))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscription/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Orders []domain.Order `json:"orders"`
		Total  int64          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Equal(t, int64(2), listResp.Total)
	require.Len(t, listResp.Orders, 2)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscription/orders/last", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var lastResp struct {
		IsOrderExists bool         `json:"isOrderExists"`
		Order         domain.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lastResp))
	assert.True(t, lastResp.IsOrderExists)
	assert.Equal(t, listResp.Orders[0].ID, lastResp.Order.ID)
}

func TestBillingAddressEndpoints(t *testing.T) {
	db := openTestDB(t)
	svc := billing.NewService(db, &fakeUploader{})
	user, _ := seedAccount(t, db, 0, domain.TierOne)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/subscription/billing-address", asUser(user.ID), GetBillingAddressHandler(svc))
	r.POST("/subscription/billing-address", asUser(user.ID), SaveBillingAddressHandler(svc))

	// Nothing saved yet
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscription/billing-address", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isAddressExists":false`)

	// Save, then the lookup reports it
	w = postJSON(t, r, "/subscription/billing-address", gin.H{
		"shipTo": "Bill", "address1": "1 Main St", "city": "Austin",
		"state": "TX", "zipcode": "73301", "email": "billing@test.dev", "saveInfo": true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/subscription/billing-address", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"isAddressExists":true`)
}
