package api

import (
	"fmt"
	"net/http"

	"repairbase/config"
	"repairbase/db"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// GetShopHandler returns the caller's shop.
// @Summary      Get Your Shop
// @Description  Returns the master data of the shop the caller belongs to: name, address, contact details and the invoice footer text.
// @Tags         Shops
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Shop "The caller's shop."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Failure      404  {object}  utils.APIError "The shop behind the token no longer exists."
// @Router       /shop [get]
func GetShopHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	shop, found := database.GetShopByID(shopID)
	if !found {
		utils.GinNotFound(c, "Shop not found.")
		return
	}
	c.JSON(http.StatusOK, shop)
}

// UpdateShopRequest defines the editable shop master data.
type UpdateShopRequest struct {
	Name          string `json:"name" binding:"required"`
	Address       string `json:"address"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	InvoiceFooter string `json:"invoice_footer"`
}

// UpdateShopHandler updates the caller's shop master data.
// @Summary      Update Your Shop
// @Description  Admin-only. Replaces the shop's master data. The invoice footer is printed at the bottom of every invoice.
// @Tags         Shops
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        shop body UpdateShopRequest true "The new shop master data."
// @Success      200  {object}  models.Shop "The updated shop."
// @Failure      400  {object}  utils.APIError "Invalid request body."
// @Failure      403  {object}  utils.APIError "Caller is not an admin."
// @Failure      404  {object}  utils.APIError "The shop behind the token no longer exists."
// @Router       /shop [put]
func UpdateShopHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	var req UpdateShopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	existing, found := database.GetShopByID(shopID)
	if !found {
		utils.GinNotFound(c, "Shop not found.")
		return
	}

	existing.Name = req.Name
	existing.Address = req.Address
	existing.Phone = req.Phone
	existing.Email = req.Email
	existing.InvoiceFooter = req.InvoiceFooter

	updated, err := database.UpdateShop(shopID, existing)
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to update shop: %v", err))
		return
	}
	c.JSON(http.StatusOK, updated)
}
