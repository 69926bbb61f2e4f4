package api

import (
	"fmt"
	"net/http"
	"strings"

	"repairbase/config"
	"repairbase/db"
	"repairbase/models"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// contextString reads a string value the auth middleware stored on the
// request context. Missing or mistyped values indicate a wiring bug.
func contextString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// --- Get Current Profile ---

// GetProfileMeHandler retrieves the profile of the currently authenticated user.
// @Summary      Get Your Own Profile
// @Description  Returns the account data of the logged-in user, resolved from the bearer token.
// @Tags         Profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Profile "Your profile (password hash excluded)."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Failure      404  {object}  utils.APIError "No profile behind the token; the account may have been deleted."
// @Router       /profiles/me [get]
func GetProfileMeHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	userID, ok := contextString(c, "userID")
	if !ok {
		utils.GinInternalServerError(c, "User ID not found in context. Middleware issue?")
		return
	}

	profile, found := database.GetProfileByID(userID)
	if !found {
		utils.GinNotFound(c, "Authenticated user profile not found.")
		return
	}

	profile.PasswordHash = ""
	c.JSON(http.StatusOK, profile)
}

// --- Update Current Profile ---

// UpdateProfileRequest defines the fields a user may change on their own
// account. Username, email, role and shop are fixed.
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// UpdateProfileMeHandler updates the profile of the currently authenticated user.
// @Summary      Update Your Own Profile
// @Description  Changes the display name of the logged-in user. Username, email, role and shop assignment cannot be changed here.
// @Tags         Profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        profile body UpdateProfileRequest true "Fields to update."
// @Success      200  {object}  models.Profile "The updated profile."
// @Failure      400  {object}  utils.APIError "Invalid request body."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Failure      404  {object}  utils.APIError "No profile behind the token."
// @Router       /profiles/me [put]
func UpdateProfileMeHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	userID, ok := contextString(c, "userID")
	if !ok {
		utils.GinInternalServerError(c, "User ID not found in context.")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	existing, found := database.GetProfileByID(userID)
	if !found {
		utils.GinNotFound(c, "Authenticated user profile not found.")
		return
	}

	existing.DisplayName = req.DisplayName
	updated, err := database.UpdateProfile(userID, existing)
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to update profile: %v", err))
		return
	}

	updated.PasswordHash = ""
	c.JSON(http.StatusOK, updated)
}

// --- Staff Management (admin) ---

// CreateStaffRequest defines the body for an admin creating a staff account
// in their own shop.
type CreateStaffRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
	Role        string `json:"role,omitempty"` // "staff" (default) or "admin"
}

// CreateStaffHandler creates a staff account in the admin's shop.
// @Summary      Create a Staff Account
// @Description  Admin-only. Creates a new account inside the admin's own shop. The role defaults to staff; pass "admin" to create another admin.
// @Tags         Profiles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        staff body CreateStaffRequest true "Credentials of the new account."
// @Success      201  {object}  models.Profile "The created account."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown role."
// @Failure      403  {object}  utils.APIError "Caller is not an admin."
// @Failure      409  {object}  utils.APIError "Username or email already taken."
// @Router       /profiles [post]
func CreateStaffHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleStaff
	}
	if role != models.RoleStaff && role != models.RoleAdmin {
		utils.GinBadRequest(c, fmt.Sprintf("Unknown role '%s'. Use 'staff' or 'admin'.", req.Role))
		return
	}

	hash, err := utils.HashPassword(req.Password, cfg.BcryptCost)
	if err != nil {
		utils.GinInternalServerError(c, "Failed to process password.")
		return
	}

	created, err := database.CreateProfile(models.Profile{
		Username:     req.Username,
		Email:        req.Email,
		DisplayName:  req.DisplayName,
		PasswordHash: hash,
		Role:         role,
		ShopID:       shopID,
	})
	if err != nil {
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

// ListStaffHandler lists the accounts of the caller's shop.
// @Summary      List Shop Staff
// @Description  Returns all accounts belonging to the caller's shop, sorted by username.
// @Tags         Profiles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Profile "The shop's accounts."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /profiles [get]
func ListStaffHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	profiles := database.GetProfilesByShop(shopID)
	for i := range profiles {
		profiles[i].PasswordHash = ""
	}
	c.JSON(http.StatusOK, profiles)
}

// DeleteStaffHandler removes a staff account from the admin's shop.
// @Summary      Delete a Staff Account
// @Description  Admin-only. Deletes an account in the admin's own shop. Admins cannot delete themselves.
// @Tags         Profiles
// @Security     BearerAuth
// @Param        id path string true "ID of the account to delete."
// @Success      204  "Account deleted."
// @Failure      400  {object}  utils.APIError "Attempt to delete your own account."
// @Failure      403  {object}  utils.APIError "Caller is not an admin or the account belongs to another shop."
// @Failure      404  {object}  utils.APIError "No such account."
// @Router       /profiles/{id} [delete]
func DeleteStaffHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, _ := contextString(c, "shopID")
	userID, _ := contextString(c, "userID")
	targetID := c.Param("id")

	if targetID == userID {
		utils.GinBadRequest(c, "You cannot delete your own account.")
		return
	}

	target, found := database.GetProfileByID(targetID)
	if !found {
		utils.GinNotFound(c, "Profile not found.")
		return
	}
	if target.ShopID != shopID {
		utils.GinForbidden(c, "Profile belongs to a different shop.")
		return
	}

	if err := database.DeleteProfile(targetID); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete profile: %v", err))
		return
	}
	c.Status(http.StatusNoContent)
}
