package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Object key building
	"strings"  // Title derivation

	"brainycode/internal/billing" // Uploader interface
	"brainycode/internal/domain"  // Importing domain models
	"brainycode/internal/llm"     // Completion provider

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/google/uuid"     // Prompt id generation
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Request struct for code generation
type GenerateRequest struct {
	Prompt   string `json:"prompt" binding:"required"` // Prompt text
	Language string `json:"language"`                  // Target programming language
}

// GenerateCodeHandler sends the prompt to the completion provider, stores
// the result as a Prompt row and archives the generated code to storage
func GenerateCodeHandler(db *gorm.DB, completer llm.Completer, storage billing.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req GenerateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Generate the completion
		code, err := completer.Complete(c.Request.Context(), req.Prompt)
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // Requesting user
				"error":   err.Error(), // Provider failure
			}).Error("Code generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate code"})
			return
		}
		// Persist the prompt and its completion
		prompt := domain.Prompt{
			ID:       uuid.NewString(),         // UUID primary key
			UserID:   userID,                   // Requesting user
			Title:    promptTitle(req.Prompt),  // Short label
			Language: req.Language,             // Target language
			Request:  req.Prompt,               // Prompt text
			Response: code,                     // Generated code
		}
		if err := db.Create(&prompt).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prompt"})
			return
		}
		// Archive the generated code under the user's prefix; the stored
		// prompt row stands even if the archive write fails
		key := "user-codes/" + strconv.Itoa(int(userID)) + "/prompts/" + prompt.ID + ".txt"
		fileURL, err := storage.Upload(c.Request.Context(), key, []byte(code), "text/plain")
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,      // Requesting user
				"prompt_id": prompt.ID,   // Stored prompt
				"error":     err.Error(), // Upload failure
			}).Error("Generated code archive failed")
		}
		// Return the stored prompt and archive location
		c.JSON(http.StatusCreated, gin.H{"promptId": prompt.ID, "fileUrl": fileURL, "code": code})
	}
}

// PromptsHandler lists the user's stored prompts, newest-first
func PromptsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var prompts []domain.Prompt // The user's prompts
		if err := db.Where("user_id = ?", userID).Order("created_at desc").Find(&prompts).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prompts"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompts": prompts}) // Return the prompts
	}
}

// PromptHandler returns one of the user's prompts by id
func PromptHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var prompt domain.Prompt // The requested prompt
		// Scope the lookup to the authenticated user
		if err := db.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&prompt).Error; err != nil {
			// If not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"prompt": prompt}) // Return the prompt
	}
}

// RegenerateRequest identifies the prompt to run again
type RegenerateRequest struct {
	PromptID string `json:"promptId" binding:"required"` // Prompt to regenerate
}

// RegeneratePromptHandler reruns a stored prompt through the completion
// provider and replaces the saved response and its archived copy
func RegeneratePromptHandler(db *gorm.DB, completer llm.Completer, storage billing.Uploader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req RegenerateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var prompt domain.Prompt // The stored prompt
		// Scope the lookup to the authenticated user
		if err := db.Where("id = ? AND user_id = ?", req.PromptID, userID).First(&prompt).Error; err != nil {
			// If not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
			return
		}
		// Rerun the original request text
		code, err := completer.Complete(c.Request.Context(), prompt.Request)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,      // Requesting user
				"prompt_id": prompt.ID,   // Stored prompt
				"error":     err.Error(), // Provider failure
			}).Error("Prompt regeneration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate code"})
			return
		}
		// Replace the stored response
		if err := db.Model(&prompt).Update("response", code).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prompt"})
			return
		}
		prompt.Response = code
		// Overwrite the archived copy under the same key; the updated row
		// stands even if the archive write fails
		key := "user-codes/" + strconv.Itoa(int(userID)) + "/prompts/" + prompt.ID + ".txt"
		if _, err := storage.Upload(c.Request.Context(), key, []byte(code), "text/plain"); err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id":   userID,      // Requesting user
				"prompt_id": prompt.ID,   // Stored prompt
				"error":     err.Error(), // Upload failure
			}).Error("Regenerated code archive failed")
		}
		c.JSON(http.StatusOK, gin.H{"prompt": prompt, "code": code}) // Return the refreshed prompt
	}
}

// DeletePromptHandler removes one of the user's prompts
func DeletePromptHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Scope the delete to the authenticated user
		res := db.Where("id = ? AND user_id = ?", c.Param("id"), userID).Delete(&domain.Prompt{})
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete prompt"})
			return
		}
		// Nothing matched means the prompt isn't this user's to delete
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Prompt deleted successfully"})
	}
}

// PromptReviewsHandler lists the user's prompt reviews, newest-first
func PromptReviewsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUserID(c) // Get userID from context
		if !ok {
			// If not authenticated, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var reviews []domain.PromptReview // The user's reviews
		if err := db.Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&reviews).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch prompt reviews"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"promptReviews": reviews}) // Return the reviews
	}
}

// LanguagesHandler lists the supported language and framework pairs
func LanguagesHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var languages []domain.Language // Catalog rows
		if err := db.Find(&languages).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch languages"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"languages": languages}) // Return the catalog
	}
}

// promptTitle derives a short label from the prompt text
func promptTitle(prompt string) string {
	title := []rune(strings.TrimSpace(prompt)) // Rune-wise so truncation never splits a character
	if len(title) > 60 {
		title = title[:60] // Keep labels short
	}
	return string(title)
}
