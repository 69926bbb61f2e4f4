package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"

	"repairbase/config"
	"repairbase/models"
)

func TestHashPassword(t *testing.T) {
	password := "mysecretpassword"
	cost := bcrypt.MinCost // Fast hashing for tests

	hash, err := HashPassword(password, cost)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" {
		t.Error("Expected hash to not be empty")
	}

	// Hashing again must produce a different hash due to the salt
	hash2, err := HashPassword(password, cost)
	if err != nil {
		t.Fatalf("HashPassword (2nd time) failed: %v", err)
	}
	if hash == hash2 {
		t.Error("Expected different hashes for the same password due to salt")
	}
}

func TestCheckPasswordHash(t *testing.T) {
	password := "mysecretpassword"
	hash, err := HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Setup failed: HashPassword failed: %v", err)
	}

	if !CheckPasswordHash(password, hash) {
		t.Error("CheckPasswordHash should return true for the correct password")
	}
	if CheckPasswordHash("wrongpassword", hash) {
		t.Error("CheckPasswordHash should return false for an incorrect password")
	}
	if CheckPasswordHash(password, "invalidhashstring") {
		t.Error("CheckPasswordHash should return false for an invalid hash format")
	}
}

// --- JWT Tests ---

func createTestJWTConfig() *config.Config {
	return &config.Config{
		JwtSecret:     "test-secret-key-longer-than-32-bytes",
		TokenLifetime: time.Hour,
	}
}

func createTestProfile() *models.Profile {
	return &models.Profile{
		ID:               GenerateDashlessUUID(),
		Username:         "anna",
		Email:            "anna@example.com",
		DisplayName:      "Anna M.",
		Role:             models.RoleStaff,
		ShopID:           "shop123",
		CreationDate:     time.Now().UTC(),
		LastModifiedDate: time.Now().UTC(),
	}
}

func TestGenerateJWT(t *testing.T) {
	cfg := createTestJWTConfig()
	profile := createTestProfile()

	tokenString, err := GenerateJWT(profile, cfg)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if tokenString == "" {
		t.Error("Expected token string not to be empty")
	}
	if len(strings.Split(tokenString, ".")) != 3 {
		t.Errorf("Expected token string to have 3 parts, got: %s", tokenString)
	}

	// Empty secret is a hard error
	cfgEmptySecret := &config.Config{JwtSecret: "", TokenLifetime: time.Hour}
	if _, err := GenerateJWT(profile, cfgEmptySecret); err == nil {
		t.Error("Expected error when generating JWT with empty secret, but got nil")
	}
}

func TestValidateJWT(t *testing.T) {
	cfg := createTestJWTConfig()
	profile := createTestProfile()

	validToken, err := GenerateJWT(profile, cfg)
	if err != nil {
		t.Fatalf("Setup failed: GenerateJWT failed: %v", err)
	}

	claims, err := ValidateJWT(validToken, cfg)
	if err != nil {
		t.Fatalf("ValidateJWT failed for valid token: %v", err)
	}
	if claims.UserID != profile.ID {
		t.Errorf("Expected UserID %s, got %s", profile.ID, claims.UserID)
	}
	if claims.Username != profile.Username {
		t.Errorf("Expected Username %s, got %s", profile.Username, claims.Username)
	}
	if claims.Role != profile.Role {
		t.Errorf("Expected Role %s, got %s", profile.Role, claims.Role)
	}
	if claims.ShopID != profile.ShopID {
		t.Errorf("Expected ShopID %s, got %s", profile.ShopID, claims.ShopID)
	}
	if claims.Issuer != "repairbase" {
		t.Errorf("Expected Issuer 'repairbase', got %s", claims.Issuer)
	}

	// Malformed token
	if _, err := ValidateJWT("this.is.not.a.valid.token", cfg); err == nil {
		t.Error("Expected error when validating malformed token, but got nil")
	}

	// Wrong secret
	cfgWrongSecret := createTestJWTConfig()
	cfgWrongSecret.JwtSecret = "different-secret-key-also-needs-to-be-long"
	if _, err := ValidateJWT(validToken, cfgWrongSecret); err == nil {
		t.Error("Expected error when validating token with wrong secret, but got nil")
	}

	// Expired token
	cfgShortLived := createTestJWTConfig()
	cfgShortLived.TokenLifetime = -1 * time.Second
	expiredToken, err := GenerateJWT(profile, cfgShortLived)
	if err != nil {
		t.Fatalf("Setup failed: GenerateJWT for expired token failed: %v", err)
	}
	_, err = ValidateJWT(expiredToken, cfg)
	if err == nil {
		t.Error("Expected error when validating expired token, but got nil")
	} else if !strings.Contains(err.Error(), "token has expired") {
		t.Errorf("Expected 'token has expired' error, got: %v", err)
	}
}

// --- OTP Tests ---

type mockOtpDb struct {
	storedOtps map[string]struct {
		otp    string
		expiry time.Time
	}
	deleteCalled bool
}

func newMockOtpDb() *mockOtpDb {
	return &mockOtpDb{
		storedOtps: make(map[string]struct {
			otp    string
			expiry time.Time
		}),
	}
}

func (m *mockOtpDb) StoreOTP(email string, otp string, expiry time.Time) {
	m.storedOtps[email] = struct {
		otp    string
		expiry time.Time
	}{otp, expiry}
}

func (m *mockOtpDb) RetrieveOTP(email string) (string, time.Time, bool) {
	data, found := m.storedOtps[email]
	if !found {
		return "", time.Time{}, false
	}
	return data.otp, data.expiry, true
}

func (m *mockOtpDb) DeleteOTP(email string) {
	m.deleteCalled = true
	delete(m.storedOtps, email)
}

func TestGenerateOTP(t *testing.T) {
	otp := generateOTP(otpLength)

	if len(otp) != otpLength {
		t.Errorf("Expected OTP length %d, got %d", otpLength, len(otp))
	}
	for _, char := range otp {
		if char < '0' || char > '9' {
			t.Errorf("Expected OTP to contain only digits, got %s", otp)
			break
		}
	}
}

func TestGenerateAndStoreOTP(t *testing.T) {
	mockDb := newMockOtpDb()
	email := "otpuser@example.com"

	generatedOtp, err := GenerateAndStoreOTP(email, mockDb)
	if err != nil {
		t.Fatalf("GenerateAndStoreOTP failed: %v", err)
	}

	storedData, found := mockDb.storedOtps[email]
	if !found {
		t.Fatal("OTP was not stored")
	}
	if storedData.otp != generatedOtp {
		t.Errorf("Stored OTP (%s) does not match generated OTP (%s)", storedData.otp, generatedOtp)
	}
	if !storedData.expiry.After(time.Now()) {
		t.Errorf("Expected OTP expiry to be in the future, got %v", storedData.expiry)
	}
}

func TestVerifyOTP(t *testing.T) {
	email := "verify@example.com"
	correctOtp := "123456"

	t.Run("ValidOTP", func(t *testing.T) {
		mockDb := newMockOtpDb()
		mockDb.StoreOTP(email, correctOtp, time.Now().Add(5*time.Minute))

		valid, err := VerifyOTP(email, correctOtp, mockDb)
		if err != nil {
			t.Errorf("Expected no error for valid OTP, got: %v", err)
		}
		if !valid {
			t.Error("Expected verification to succeed")
		}
		if _, _, found := mockDb.RetrieveOTP(email); found {
			t.Error("OTP should be deleted after successful verification")
		}
	})

	t.Run("WrongOTP", func(t *testing.T) {
		mockDb := newMockOtpDb()
		mockDb.StoreOTP(email, correctOtp, time.Now().Add(5*time.Minute))

		valid, err := VerifyOTP(email, "987654", mockDb)
		if err == nil || !strings.Contains(err.Error(), "invalid OTP") {
			t.Errorf("Expected 'invalid OTP' error, got: %v", err)
		}
		if valid {
			t.Error("Expected verification to fail")
		}
		if mockDb.deleteCalled {
			t.Error("OTP must survive a failed attempt")
		}
	})

	t.Run("ExpiredOTP", func(t *testing.T) {
		mockDb := newMockOtpDb()
		mockDb.StoreOTP(email, correctOtp, time.Now().Add(-5*time.Minute))

		valid, err := VerifyOTP(email, correctOtp, mockDb)
		if err == nil || !strings.Contains(err.Error(), "OTP has expired") {
			t.Errorf("Expected 'OTP has expired' error, got: %v", err)
		}
		if valid {
			t.Error("Expected verification to fail")
		}
		if _, _, found := mockDb.RetrieveOTP(email); found {
			t.Error("Expired OTP should have been deleted")
		}
	})

	t.Run("NoOTPFound", func(t *testing.T) {
		mockDb := newMockOtpDb()

		valid, err := VerifyOTP(email, correctOtp, mockDb)
		if err == nil || !strings.Contains(err.Error(), "no OTP found") {
			t.Errorf("Expected 'no OTP found' error, got: %v", err)
		}
		if valid {
			t.Error("Expected verification to fail")
		}
	})
}

// --- Middleware Tests ---

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := createTestJWTConfig()
	profile := createTestProfile()
	validToken, _ := GenerateJWT(profile, cfg)

	cfgExpired := createTestJWTConfig()
	cfgExpired.TokenLifetime = -time.Hour
	expiredToken, _ := GenerateJWT(profile, cfgExpired)

	router := gin.New()
	router.Use(AuthMiddleware(cfg))
	router.GET("/protected", func(c *gin.Context) {
		userID, exists := c.Get("userID")
		assert.True(t, exists, "userID should exist in context")
		assert.Equal(t, profile.ID, userID)

		username, exists := c.Get("username")
		assert.True(t, exists, "username should exist in context")
		assert.Equal(t, profile.Username, username)

		shopID, exists := c.Get("shopID")
		assert.True(t, exists, "shopID should exist in context")
		assert.Equal(t, profile.ShopID, shopID)

		c.Status(http.StatusOK)
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"NoAuthHeader", "", http.StatusUnauthorized},
		{"NoBearerPrefix", validToken, http.StatusBadRequest},
		{"WrongScheme", "Basic " + validToken, http.StatusBadRequest},
		{"ExpiredToken", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"ValidToken", "Bearer " + validToken, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.expectedStatus, w.Code)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(role string) *gin.Engine {
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("userRole", role)
			c.Next()
		})
		router.Use(AdminOnly())
		router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}

	w := httptest.NewRecorder()
	newRouter(models.RoleAdmin).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	newRouter(models.RoleStaff).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
