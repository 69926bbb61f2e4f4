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

// PartOrderRequest defines the body for ordering a spare part.
type PartOrderRequest struct {
	RepairOrderID  string `json:"repair_order_id"`
	PartName       string `json:"part_name" binding:"required"`
	Supplier       string `json:"supplier"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

// CreatePartOrderHandler records a spare-part order.
// @Summary      Order a Spare Part
// @Description  Records a spare-part order in status "offen". `repair_order_id` optionally links the part to the repair waiting on it; the linked order must belong to the caller's shop. Quantity defaults to 1.
// @Tags         Parts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        part body PartOrderRequest true "Part name, supplier and an optional repair-order link."
// @Success      201  {object}  models.PartOrder "The created part order."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown linked repair order."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /parts [post]
func CreatePartOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	var req PartOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if req.RepairOrderID != "" {
		order, found := database.GetRepairOrderByID(req.RepairOrderID)
		if !found || order.ShopID != shopID {
			utils.GinBadRequest(c, fmt.Sprintf("Repair order '%s' not found in your shop.", req.RepairOrderID))
			return
		}
	}

	created, err := database.CreatePartOrder(models.PartOrder{
		ShopID:         shopID,
		RepairOrderID:  req.RepairOrderID,
		PartName:       req.PartName,
		Supplier:       req.Supplier,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	})
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to create part order: %v", err))
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListPartOrdersHandler lists the shop's part orders.
// @Summary      List Part Orders
// @Description  Lists the caller's shop's spare-part orders, optionally filtered by status (offen, bestellt, geliefert, storniert).
// @Tags         Parts
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "Status filter." example(offen)
// @Success      200  {array}   models.PartOrder "The part orders."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /parts [get]
func ListPartOrdersHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}
	c.JSON(http.StatusOK, database.GetPartOrdersByShop(shopID, c.Query("status")))
}

func getShopPart(c *gin.Context, database *db.Database, id string) (models.PartOrder, bool) {
	shopID, _ := contextString(c, "shopID")
	part, found := database.GetPartOrderByID(id)
	if !found || part.ShopID != shopID {
		utils.GinNotFound(c, "Part order not found.")
		return models.PartOrder{}, false
	}
	return part, true
}

// PartStatusRequest moves a part order to a new status.
type PartStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePartStatusHandler moves a part order to a new status.
// @Summary      Change Part Order Status
// @Description  Moves a part order between offen, bestellt, geliefert and storniert. Part statuses carry no history; only the current value is kept.
// @Tags         Parts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string            true "Part order ID."
// @Param        status body PartStatusRequest true "The target status."
// @Success      200  {object}  models.PartOrder "The updated part order."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown status."
// @Failure      404  {object}  utils.APIError "No such part order in your shop."
// @Router       /parts/{id}/status [put]
func UpdatePartStatusHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	part, ok := getShopPart(c, database, c.Param("id"))
	if !ok {
		return
	}

	var req PartStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := database.UpdatePartOrderStatus(part.ID, req.Status)
	if err != nil {
		if strings.Contains(err.Error(), "unknown part status") {
			utils.GinBadRequest(c, err.Error())
		} else {
			utils.GinInternalServerError(c, fmt.Sprintf("Failed to update part order: %v", err))
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeletePartOrderHandler removes a part order.
// @Summary      Delete a Part Order
// @Tags         Parts
// @Security     BearerAuth
// @Param        id path string true "Part order ID."
// @Success      204  "Part order deleted."
// @Failure      404  {object}  utils.APIError "No such part order in your shop."
// @Router       /parts/{id} [delete]
func DeletePartOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	part, ok := getShopPart(c, database, c.Param("id"))
	if !ok {
		return
	}
	if err := database.DeletePartOrder(part.ID); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete part order: %v", err))
		return
	}
	c.Status(http.StatusNoContent)
}
