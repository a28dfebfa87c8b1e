package api

import (
	"context"         // Context for Redis operations
	"encoding/base64" // Profile image decoding
	"net/http"        // HTTP status codes
	"strconv"         // Cache key building
	"time"            // Cache TTL

	"brainycode/internal/billing" // Billing service
	"brainycode/internal/domain"  // Importing domain models
	"brainycode/internal/utils"   // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// GetCreditHandler returns the authenticated user's credit balance
func GetCreditHandler(svc *billing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		ctx := context.Background()                                 // Context for Redis operations
		cacheKey := "credits:user:" + strconv.Itoa(int(userID))     // Cache key for the balance
		var balance domain.CreditBalance                            // Balance struct to hold data
		if rdb := redisFrom(c); rdb != nil {
			found, err := utils.GetCache(ctx, rdb, cacheKey, &balance) // Try to get from cache
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{"credits": balance, "cached": true})
				return
			}
		}
		// If not in cache, fetch through the billing service
		b, err := svc.Balance(c.Request.Context(), userID)
		if err != nil {
			// Return not found if the balance row doesn't exist
			c.JSON(http.StatusNotFound, gin.H{"error": "Credit balance not found"})
			return
		}
		if rdb := redisFrom(c); rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, b, 60*time.Second) // Cache the balance for 60 seconds
		}
		c.JSON(http.StatusOK, gin.H{"credits": b, "cached": false}) // Return balance info
	}
}

// Request struct for profile upload
type ProfileUploadRequest struct {
	Image    string `json:"image" binding:"required"`    // Base64-encoded image content
	Name     string `json:"name" binding:"required"`     // Original file name
	MimeType string `json:"mimetype" binding:"required"` // Image MIME type
}

// ProfileUploadHandler stores the user's profile image in object storage
func ProfileUploadHandler(db *gorm.DB, storage billing.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req ProfileUploadRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Decode the base64 payload
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			// If decoding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image encoding"})
			return
		}
		// Upload under the user's prefix
		key := "users/" + strconv.Itoa(int(userID)) + "/profile"
		url, err := storage.Upload(c.Request.Context(), key, decoded, req.MimeType)
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Uploading user
				"error":   err.Error(), // Upload failure
			}).Error("Profile upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload profile image"})
			return
		}
		// Record the new profile URL
		if err := db.Model(&domain.User{}).Where("id = ?", userID).Update("profile_url", url).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile image"})
			return
		}
		// Return the stored location
		c.JSON(http.StatusOK, gin.H{"profile_url": url})
	}
}
