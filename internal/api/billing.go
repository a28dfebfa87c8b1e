package api

import (
	"context"         // Context for Redis operations
	"encoding/base64" // Attachment decoding
	"errors"          // Sentinel error checks
	"net/http"        // HTTP status codes
	"strconv"         // Cache key building
	"time"            // Cache TTL

	"brainycode/internal/billing" // Billing service
	"brainycode/internal/domain"  // Importing domain models
	"brainycode/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"                          // Gin web framework
	"github.com/sirupsen/logrus"                        // Logging library
	"github.com/stripe/stripe-go/v82"                   // Stripe SDK
	"github.com/stripe/stripe-go/v82/checkout/session"  // Stripe Checkout sessions
)

// Request struct for creating a checkout session
type CheckoutRequest struct {
	PlanOrPackageID uint    `json:"planOrPackageId" binding:"required"` // Package or plan being bought
	CreditAmount    float64 `json:"creditAmount" binding:"gte=0"`       // Credits the purchase carries; zero for free tiers
	Price           float64 `json:"price" binding:"required,gt=0"`      // Price in USD
	CheckoutType    string  `json:"checkoutType" binding:"required"`    // buycredits or buycustomboard
	CallbackURL     string  `json:"callbackUrl"`                        // Redirect target after payment; frontend origin when empty
}

// checkoutRedirectURL picks the post-payment redirect: the caller's
// callback when given, the configured frontend origin otherwise.
func checkoutRedirectURL(callback, frontendURL string) string {
	if callback != "" {
		return callback
	}
	return frontendURL
}

// CheckoutSessionHandler creates a Stripe Checkout session whose payment
// intent carries the reconciliation metadata
func CheckoutSessionHandler(frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CheckoutRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Only the two checkout types exist
		if req.CheckoutType != billing.CheckoutBuyCredits && req.CheckoutType != billing.CheckoutBuyCustomBoard {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checkout type"})
			return
		}
		// The metadata is the wire format the webhook reconciles from
		ev := billing.PaymentEvent{
			UserID:       userID,              // Paying user
			ThingID:      req.PlanOrPackageID, // Package or plan
			Credits:      req.CreditAmount,    // Credits the purchase carries
			Price:        req.Price,           // Price in USD
			CheckoutType: req.CheckoutType,    // Checkout type discriminator
		}
		params := &stripe.CheckoutSessionParams{
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}), // Card payments only
			LineItems: []*stripe.CheckoutSessionLineItemParams{{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"), // USD pricing
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("User Credits"),           // Line item name
						Description: stripe.String("Purchase user credits"), // Line item description
					},
					UnitAmount: stripe.Int64(int64(req.Price * 100)), // Price in cents
				},
				Quantity: stripe.Int64(1), // Single line item
			}},
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),              // One-off payment
			SuccessURL: stripe.String(checkoutRedirectURL(req.CallbackURL, frontendURL)),      // Redirect after success
			CancelURL:  stripe.String(checkoutRedirectURL(req.CallbackURL, frontendURL)),      // Redirect after cancel
			PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
				Metadata: ev.Metadata(), // Reconciliation metadata
			},
		}
		sess, err := session.New(params)
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Paying user
				"error":   err.Error(), // Stripe failure
			}).Error("Checkout session creation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Session creation failed"})
			return
		}
		// Return the hosted checkout URL
		c.JSON(http.StatusOK, gin.H{"id": sess.ID, "url": sess.URL})
	}
}

// Request struct for a synchronous custom order
type CustomOrderRequest struct {
	PlanID uint    `json:"planId" binding:"required"`     // Ordered plan
	Credit float64 `json:"credit" binding:"gte=0"`        // Credit cost; zero for free tiers
	Price  float64 `json:"price" binding:"required,gt=0"` // Price in USD
}

// CustomOrderHandler deducts the plan's credit cost and records the order
func CustomOrderHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CustomOrderRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Apply the deduction and ledger entry atomically
		balance, err := svc.CustomOrderCheckout(c.Request.Context(), req.PlanID, userID, req.Credit, req.Price)
		if errors.Is(err, billing.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Credit balance not found"})
			return
		}
		if errors.Is(err, billing.ErrInsufficientCredits) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User has low credit to perform this task"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Custom order failed"})
			return
		}
		invalidateBillingCaches(c, userID) // Drop stale balance and history entries
		// Return the post-deduction balance
		c.JSON(http.StatusOK, gin.H{"credits": balance})
	}
}

// Attachment carried with a review request
type ReviewAttachment struct {
	Name     string `json:"name" binding:"required"`     // Original file name
	MimeType string `json:"mimetype" binding:"required"` // MIME type
	Content  string `json:"content" binding:"required"`  // Base64-encoded file content
}

// Request struct for a review submission
type ReviewRequest struct {
	PlanID     uint              `json:"planId" binding:"required"`   // Paying plan
	PromptID   string            `json:"promptId" binding:"required"` // Prompt to review
	Attachment *ReviewAttachment `json:"attachment"`                  // Optional supporting file
}

// ReviewPromptHandler spends credits on a prompt review
func ReviewPromptHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ReviewRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Decode the optional attachment before touching the ledger
		var attachment *billing.Attachment
		if req.Attachment != nil {
			decoded, err := base64.StdEncoding.DecodeString(req.Attachment.Content)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid attachment encoding"})
				return
			}
			attachment = &billing.Attachment{
				Name:        req.Attachment.Name,     // Original file name
				ContentType: req.Attachment.MimeType, // MIME type
				Body:        decoded,                 // File content
			}
		}
		// Deduct and create the review atomically
		review, err := svc.SpendCreditsForReview(c.Request.Context(), userID, req.PlanID, req.PromptID, attachment)
		if errors.Is(err, billing.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User credits not found"})
			return
		}
		if errors.Is(err, billing.ErrInsufficientCredits) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User has low credit to perform this task"})
			return
		}
		if errors.Is(err, billing.ErrAttachmentUpload) {
			invalidateBillingCaches(c, userID) // The spend is committed even though the upload failed
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  "Failed to upload file for review prompt",
				"review": review, // The committed review row
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process review prompt"})
			return
		}
		invalidateBillingCaches(c, userID) // Drop stale balance and history entries
		// Return the created review
		c.JSON(http.StatusCreated, gin.H{"review": review})
	}
}

// LastOrderHandler returns the user's most recent order
func LastOrderHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		order, err := svc.LastOrder(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch the last order"})
			return
		}
		// Never having ordered is a normal answer
		if order == nil {
			c.JSON(http.StatusOK, gin.H{"isOrderExists": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"isOrderExists": true, "order": order})
	}
}

// OrdersHandler returns the user's order history, newest-first and cached
func OrdersHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		// Redis cache key
		cacheKey := "orders:user:" + strconv.Itoa(int(userID)) + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background() // Context for Redis operations
		var cached struct {
			Orders     []domain.Order `json:"orders"`      // List of orders
			Page       int            `json:"page"`        // Current page
			PageSize   int            `json:"page_size"`   // Page size
			Total      int64          `json:"total"`       // Total orders
			TotalPages int            `json:"total_pages"` // Total pages
		}
		if rdb := redisFrom(c); rdb != nil {
			// Try to get from cache
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{
					"orders":      cached.Orders,     // Cached orders
					"page":        cached.Page,       // Current page
					"page_size":   cached.PageSize,   // Page size
					"total":       cached.Total,      // Total orders
					"total_pages": cached.TotalPages, // Total pages
					"cached":      true,
				})
				return
			}
		}
		// Fetch the page through the billing service
		orders, total, err := svc.Orders(c.Request.Context(), userID, page, pageSize)
		if err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"orders":      orders,     // List of orders
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total orders
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Not from cache
		}
		if rdb := redisFrom(c); rdb != nil {
			// Cache the result for 60 seconds
			_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		}
		c.JSON(http.StatusOK, resp) // Return order history
	}
}

// Request struct for saving a billing address
type BillingAddressRequest struct {
	ShipTo       string `json:"shipTo" binding:"required"`   // Recipient name
	Organisation string `json:"organisation"`                // Company name
	Address1     string `json:"address1" binding:"required"` // Street address line 1
	Address2     string `json:"address2"`                    // Street address line 2
	City         string `json:"city" binding:"required"`     // City
	State        string `json:"state" binding:"required"`    // State or province
	Zipcode      string `json:"zipcode" binding:"required"`  // Postal code
	Email        string `json:"email" binding:"required"`    // Contact email
	MobileNo     string `json:"mobileNo"`                    // Contact phone number
	SaveInfo     bool   `json:"saveInfo"`                    // Keep the address on file
}

// GetBillingAddressHandler reports whether a saved address exists
func GetBillingAddressHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		addr, err := svc.BillingAddress(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch billing address"})
			return
		}
		// No saved address is a normal answer
		if addr == nil {
			c.JSON(http.StatusOK, gin.H{"isAddressExists": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"isAddressExists": true, "billingAddress": addr})
	}
}

// SaveBillingAddressHandler upserts the user's billing address
func SaveBillingAddressHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req BillingAddressRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		addr := domain.BillingAddress{
			UserID:       userID,           // Owning user
			ShipTo:       req.ShipTo,       // Recipient name
			Organisation: req.Organisation, // Company name
			Address1:     req.Address1,     // Street address line 1
			Address2:     req.Address2,     // Street address line 2
			City:         req.City,         // City
			State:        req.State,        // State or province
			Zipcode:      req.Zipcode,      // Postal code
			Email:        req.Email,        // Contact email
			MobileNo:     req.MobileNo,     // Contact phone number
			SaveInfo:     req.SaveInfo,     // Keep the address on file
		}
		if err := svc.SaveBillingAddress(c.Request.Context(), &addr); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save billing address"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"billingAddress": addr}) // Return the stored address
	}
}

// invalidateBillingCaches drops the balance and order-history cache for a
// user after a balance-affecting write
func invalidateBillingCaches(c *gin.Context, userID uint) {
	rdb := redisFrom(c)
	if rdb == nil {
		return // Caching not wired
	}
	ctx := context.Background()                                          // Context for Redis operations
	_ = utils.DeleteCache(ctx, rdb, "credits:user:"+strconv.Itoa(int(userID))) // Invalidate balance cache
	utils.InvalidatePages(ctx, rdb, "orders:user:"+strconv.Itoa(int(userID)))  // Invalidate order-history pages
}
