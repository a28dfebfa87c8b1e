package api

import (
	"net/http" // HTTP status codes

	"brainycode/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// CreditPackagesHandler lists the purchasable credit packages
func CreditPackagesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var packages []domain.CreditPackage // Catalog rows
		if err := db.Find(&packages).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch credit packages"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"credits": packages}) // Return the catalog
	}
}

// PlansHandler lists subscription plans of the requested type
// (?type=custom for custom-board plans, review plans by default)
func PlansHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		planType := c.DefaultQuery("type", domain.PlanTypeReview) // Requested plan type
		// Only the two catalog types exist
		if planType != domain.PlanTypeReview && planType != domain.PlanTypeCustom {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid plan type"})
			return
		}
		var plans []domain.SubscriptionPlan // Catalog rows
		if err := db.Where("type = ?", planType).Find(&plans).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch subscriptions"})
			return
		}
		// An empty review catalog means the seed never ran
		if len(plans) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscriptions not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"subscriptions": plans}) // Return the catalog
	}
}

// BoardSpecificationsHandler lists the hardware boards a custom order can
// be built against
func BoardSpecificationsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var boards []domain.BoardSpecification // Catalog rows
		if err := db.Find(&boards).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch board specifications"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"boardSpecification": boards}) // Return the catalog
	}
}
