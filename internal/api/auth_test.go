package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"brainycode/internal/domain"
	"brainycode/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret"

// openTestDB opens a throwaway SQLite database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "api_test.db")
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

// postJSON performs a JSON POST against the router.
func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func authRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/signup", SignupHandler(db))
	r.POST("/auth/signin", SigninHandler(db, testJWTSecret))
	return r
}

func TestSignupSeedsStartingCredits(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db)

	w := postJSON(t, r, "/auth/signup", gin.H{"email": "New@Test.dev", "name": "New User", "password": "hunter2hunter"})
	require.Equal(t, http.StatusCreated, w.Code)

	// The account is stored lowercased with the signup grant alongside
	var user domain.User
	require.NoError(t, db.Where("email = ?", "new@test.dev").First(&user).Error)
	var balance domain.CreditBalance
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&balance).Error)
	assert.Equal(t, float64(domain.StartingCredits), balance.Credits)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db)

	body := gin.H{"email": "dup@test.dev", "name": "Dup", "password": "hunter2hunter"}
	require.Equal(t, http.StatusCreated, postJSON(t, r, "/auth/signup", body).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(t, r, "/auth/signup", body).Code)

	// Only one balance row was seeded
	var count int64
	require.NoError(t, db.Model(&domain.CreditBalance{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSignupValidation(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db)

	// Bad email shape
	w := postJSON(t, r, "/auth/signup", gin.H{"email": "not-an-email", "name": "X", "password": "hunter2hunter"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	// Password too short
	w = postJSON(t, r, "/auth/signup", gin.H{"email": "ok@test.dev", "name": "X", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSigninReturnsUsableToken(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/auth/signup", gin.H{"email": "login@test.dev", "name": "L", "password": "hunter2hunter"}).Code)

	w := postJSON(t, r, "/auth/signin", gin.H{"email": "login@test.dev", "password": "hunter2hunter"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)

	// The issued token parses and carries the account
	claims, err := utils.ParseJWT(resp.Token, testJWTSecret)
	require.NoError(t, err)
	assert.Equal(t, "login@test.dev", claims.Email)
}

func TestSigninRejectsWrongPassword(t *testing.T) {
	db := openTestDB(t)
	r := authRouter(db)

	require.Equal(t, http.StatusCreated, postJSON(t, r, "/auth/signup", gin.H{"email": "x@test.dev", "name": "X", "password": "hunter2hunter"}).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(t, r, "/auth/signin", gin.H{"email": "x@test.dev", "password": "wrongwrong1"}).Code)
	assert.Equal(t, http.StatusUnauthorized, postJSON(t, r, "/auth/signin", gin.H{"email": "ghost@test.dev", "password": "hunter2hunter"}).Code)
}
