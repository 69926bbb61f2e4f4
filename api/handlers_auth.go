package api

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"repairbase/config"
	"repairbase/db"
	"repairbase/models"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// --- Signup ---

// SignupRequest defines the expected JSON body for registering a new shop.
// Signup always creates a fresh shop with the registering user as its admin;
// staff accounts are created later by that admin.
type SignupRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
	ShopName    string `json:"shop_name" binding:"required"`
}

// SignupHandler registers a new shop together with its admin account.
// @Summary      Register a Shop
// @Description  Creates a new repair shop and its first user account. The registering user becomes the shop's admin and can then create staff accounts.
// @Description  Usernames and emails must be unique across the whole server (case-insensitive).
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup body SignupRequest true "Shop name plus the admin's credentials."
// @Success      201  {object}  models.Profile "The newly created admin profile (password hash excluded)."
// @Failure      400  {object}  utils.APIError "Invalid request body or password shorter than 8 characters."
// @Failure      409  {object}  utils.APIError "Username or email already registered."
// @Failure      500  {object}  utils.APIError "Internal error while creating the shop or profile."
// @Router       /auth/signup [post]
func SignupHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	hash, err := utils.HashPassword(req.Password, cfg.BcryptCost)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to process password.")
		return
	}

	shop, err := database.CreateShop(models.Shop{Name: req.ShopName})
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to create shop: %v", err))
		return
	}

	profile := models.Profile{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		ShopID:       shop.ID,
	}
	created, err := database.CreateProfile(profile)
	if err != nil {
		// Roll the empty shop back so a rejected signup leaves no orphan.
		if delErr := database.DeleteShop(shop.ID); delErr != nil {
			log.Printf("WARN: Could not remove shop %s after failed signup: %v", shop.ID, delErr)
		}
		if strings.Contains(err.Error(), "already exists") {
			utils.GinError(c, http.StatusConflict, err.Error())
		} else {
			utils.GinInternalServerError(c, fmt.Sprintf("Failed to create profile: %v", err))
		}
		return
	}

	created.PasswordHash = ""
	c.JSON(http.StatusCreated, created)
}

// --- Login ---

// LoginRequest accepts either the username or the email as identifier.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// LoginResponse carries the access token returned on successful login.
type LoginResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	Profile     models.Profile `json:"profile"`
}

// LoginHandler authenticates a user and returns a JWT access token.
// @Summary      Log In
// @Description  Authenticates with username-or-email plus password and returns a bearer token for the protected endpoints.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials body LoginRequest true "Login identifier (username or email) and password."
// @Success      200  {object}  LoginResponse "Authentication succeeded; the response carries the bearer token."
// @Failure      400  {object}  utils.APIError "Missing identifier or password."
// @Failure      401  {object}  utils.APIError "Unknown account or wrong password."
// @Failure      500  {object}  utils.APIError "Token generation failed."
// @Router       /auth/login [post]
func LoginHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	profile, found := database.GetProfileByEmail(req.Identifier)
	if !found {
		profile, found = database.GetProfileByUsername(req.Identifier)
	}
	// Same error for unknown account and wrong password.
	if !found || !utils.CheckPasswordHash(req.Password, profile.PasswordHash) {
		utils.GinUnauthorized(c, "Invalid credentials.")
		return
	}

	token, err := utils.GenerateJWT(&profile, cfg)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to generate access token.")
		return
	}

	profile.PasswordHash = ""
	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		Profile:     profile,
	})
}

// --- Logout ---

// LogoutHandler ends the client session.
// @Summary      Log Out
// @Description  Tokens are stateless, so logout is client-side: discard the token. This endpoint exists so clients have a uniform call to make.
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "Confirmation message."
// @Router       /auth/logout [post]
func LogoutHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out. Discard your access token."})
}

// --- Password Reset ---

// ForgotPasswordRequest asks for a reset OTP for the given email.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPasswordHandler starts the password reset flow.
// @Summary      Request Password Reset
// @Description  Generates a one-time password for the account. The OTP is printed to the server console; there is no outbound email delivery. The response is the same whether or not the email is registered.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email of the account to reset."
// @Success      200  {object}  map[string]string "Generic confirmation, returned regardless of whether the email exists."
// @Failure      400  {object}  utils.APIError "Invalid request body."
// @Router       /auth/forgot-password [post]
func ForgotPasswordHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if _, found := database.GetProfileByEmail(req.Email); found {
		if _, err := utils.GenerateAndStoreOTP(req.Email, database); err != nil {
			utils.GinInternalServerError(c, "Failed to generate OTP.")
			return
		}
	}

	// Do not reveal whether the email exists.
	c.JSON(http.StatusOK, gin.H{"message": "If the email is registered, an OTP has been generated. Check the server console."})
}

// ResetPasswordRequest completes the reset flow with the OTP.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// ResetPasswordHandler sets a new password after OTP verification.
// @Summary      Reset Password
// @Description  Verifies the OTP from the forgot-password step and replaces the account password. The OTP is single-use and expires after five minutes.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body ResetPasswordRequest true "Email, OTP and the new password."
// @Success      200  {object}  map[string]string "Password was changed."
// @Failure      400  {object}  utils.APIError "Invalid body, expired OTP or wrong OTP."
// @Failure      500  {object}  utils.APIError "Internal error while storing the new password."
// @Router       /auth/reset-password [post]
func ResetPasswordHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	valid, err := utils.VerifyOTP(req.Email, req.OTP, database)
	if err != nil || !valid {
		msg := "Invalid or expired OTP."
		if err != nil {
			msg = fmt.Sprintf("OTP verification failed: %v", err)
		}
		utils.GinBadRequest(c, msg)
		return
	}

	hash, err := utils.HashPassword(req.NewPassword, cfg.BcryptCost)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to process new password.")
		return
	}
	if err := database.UpdateProfilePassword(req.Email, hash); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to update password: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset. You can log in with the new password."})
}
