package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"repairbase/config"
	"repairbase/db"
	"repairbase/models"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// RepairOrderRequest defines the body for creating or updating a repair order.
type RepairOrderRequest struct {
	CustomerID    string   `json:"customer_id" binding:"required"`
	DeviceType    string   `json:"device_type" binding:"required"`
	Brand         string   `json:"brand" binding:"required"`
	Model         string   `json:"model" binding:"required"`
	Serial        string   `json:"serial"`
	Issues        []string `json:"issues"`
	DeviceDetails any      `json:"device_details,omitempty"`
	QuoteCents    int64    `json:"quote_cents"`
	DepositCents  int64    `json:"deposit_cents"`
}

// CreateRepairOrderHandler opens a new repair order.
// @Summary      Create a Repair Order
// @Description  Opens a repair order for a customer of the caller's shop. New orders always start in status "eingegangen"; the status afterwards only moves via the transition endpoint.
// @Description  `device_details` accepts arbitrary JSON (pattern lock, accessories handed in, water damage notes) and can later be searched with `detail_query`.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        order body RepairOrderRequest true "The device, its issues and the quote."
// @Success      201  {object}  models.RepairOrder "The created order."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown customer."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /orders [post]
func CreateRepairOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}
	userID, _ := contextString(c, "userID")

	var req RepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	// The customer must exist and belong to the same shop.
	customer, found := database.GetCustomerByID(req.CustomerID)
	if !found || customer.ShopID != shopID {
		utils.GinBadRequest(c, fmt.Sprintf("Customer '%s' not found in your shop.", req.CustomerID))
		return
	}

	created, err := database.CreateRepairOrder(models.RepairOrder{
		ShopID:        shopID,
		CustomerID:    req.CustomerID,
		DeviceType:    req.DeviceType,
		Brand:         req.Brand,
		Model:         req.Model,
		Serial:        req.Serial,
		Issues:        req.Issues,
		DeviceDetails: req.DeviceDetails,
		QuoteCents:    req.QuoteCents,
		DepositCents:  req.DepositCents,
	}, userID)
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to create repair order: %v", err))
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListOrdersResponse is the paginated order listing.
type ListOrdersResponse struct {
	Data  []models.RepairOrder `json:"data"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// ListRepairOrdersHandler lists and filters the shop's repair orders.
// @Summary      List Repair Orders
// @Description  Lists the caller's shop's repair orders with filtering, sorting and pagination.
// @Description
// @Description  Filters:
// @Description  *   `status`: one of eingegangen, in_bearbeitung, wartet_auf_teile, fertig, abgeholt, storniert.
// @Description  *   `customer_id`: orders of one customer.
// @Description  *   `detail_query`: searches the free-form `device_details` JSON. Each condition is `path operator value`, conditions alternate with `and`/`or`. Operators: equals, contains, greater_than, less_than plus `-insensitive` variants. Example: `?detail_query=accessories contains Ladekabel&detail_query=and&detail_query=water_damage equals true`
// @Description
// @Description  Sorting: `sort_by` (creation_date, last_modified_date), `order` (asc, desc; default desc). Pagination: `page` (from 1), `limit` (max 100, default 20).
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        status       query string false "Status filter." example(in_bearbeitung)
// @Param        customer_id  query string false "Customer filter."
// @Param        detail_query query []string false "Device-details conditions, alternating with and/or." collectionFormat(multi)
// @Param        sort_by      query string false "creation_date (default) or last_modified_date."
// @Param        order        query string false "asc or desc (default)."
// @Param        page         query int    false "Page number, starts at 1." default(1)
// @Param        limit        query int    false "Page size, max 100." default(20)
// @Success      200  {object}  ListOrdersResponse "One page of matching orders plus the total count."
// @Failure      400  {object}  utils.APIError "Malformed filter, sort or pagination parameter."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /orders [get]
func ListRepairOrdersHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	page, errPage := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if errPage != nil || errLimit != nil || page < 1 || limit < 1 {
		utils.GinBadRequest(c, "Invalid 'page' or 'limit' query parameter. Must be positive integers.")
		return
	}

	orders, total, err := database.QueryRepairOrders(db.QueryOrdersParams{
		ShopID:      shopID,
		Status:      c.Query("status"),
		CustomerID:  c.Query("customer_id"),
		DetailQuery: c.QueryArray("detail_query"),
		SortBy:      c.Query("sort_by"),
		Order:       c.Query("order"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		utils.GinBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, ListOrdersResponse{Data: orders, Total: total, Page: page, Limit: limit})
}

// getShopOrder loads an order and enforces shop scoping. Writes the error
// response itself when the order is missing or foreign.
func getShopOrder(c *gin.Context, database *db.Database, id string) (models.RepairOrder, bool) {
	shopID, _ := contextString(c, "shopID")
	order, found := database.GetRepairOrderByID(id)
	if !found || order.ShopID != shopID {
		utils.GinNotFound(c, "Repair order not found.")
		return models.RepairOrder{}, false
	}
	return order, true
}

// GetRepairOrderHandler returns one repair order.
// @Summary      Get a Repair Order
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID."
// @Success      200  {object}  models.RepairOrder "The order, including its full status history."
// @Failure      404  {object}  utils.APIError "No such order in your shop."
// @Router       /orders/{id} [get]
func GetRepairOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	order, ok := getShopOrder(c, database, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateRepairOrderHandler updates the editable fields of an order.
// @Summary      Update a Repair Order
// @Description  Replaces the device data, issue list, details and quote. The status, status history and invoice number are untouched; use the transition endpoint to move the status.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path string             true "Order ID."
// @Param        order body RepairOrderRequest true "The new order data."
// @Success      200  {object}  models.RepairOrder "The updated order."
// @Failure      400  {object}  utils.APIError "Invalid request body."
// @Failure      404  {object}  utils.APIError "No such order in your shop."
// @Router       /orders/{id} [put]
func UpdateRepairOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	order, ok := getShopOrder(c, database, c.Param("id"))
	if !ok {
		return
	}

	var req RepairOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := database.UpdateRepairOrder(order.ID, models.RepairOrder{
		DeviceType:    req.DeviceType,
		Brand:         req.Brand,
		Model:         req.Model,
		Serial:        req.Serial,
		Issues:        req.Issues,
		DeviceDetails: req.DeviceDetails,
		QuoteCents:    req.QuoteCents,
		DepositCents:  req.DepositCents,
	})
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to update repair order: %v", err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// TransitionRequest moves an order to a new status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// TransitionRepairOrderHandler moves an order to a new status.
// @Summary      Change Order Status
// @Description  Appends a status change to the order's history. Transitioning to the current status is a no-op. When an order first reaches "fertig" it is assigned the next invoice number of the shop (format RE-YYYY-NNNNNN); the number never changes afterwards.
// @Tags         Orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id         path string            true "Order ID."
// @Param        transition body TransitionRequest true "Target status and an optional note for the history."
// @Success      200  {object}  models.RepairOrder "The order after the transition."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown status."
// @Failure      404  {object}  utils.APIError "No such order in your shop."
// @Router       /orders/{id}/transition [post]
func TransitionRepairOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	order, ok := getShopOrder(c, database, c.Param("id"))
	if !ok {
		return
	}
	userID, _ := contextString(c, "userID")

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	updated, err := database.TransitionRepairOrder(order.ID, req.Status, userID, req.Note)
	if err != nil {
		if strings.Contains(err.Error(), "unknown status") {
			utils.GinBadRequest(c, err.Error())
		} else {
			utils.GinInternalServerError(c, fmt.Sprintf("Failed to transition order: %v", err))
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteRepairOrderHandler removes a repair order.
// @Summary      Delete a Repair Order
// @Description  Admin-only. Permanently removes the order including its status history. Orders that already carry an invoice number should be cancelled instead; deletion does not reuse the number.
// @Tags         Orders
// @Security     BearerAuth
// @Param        id path string true "Order ID."
// @Success      204  "Order deleted."
// @Failure      403  {object}  utils.APIError "Caller is not an admin."
// @Failure      404  {object}  utils.APIError "No such order in your shop."
// @Router       /orders/{id} [delete]
func DeleteRepairOrderHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	order, ok := getShopOrder(c, database, c.Param("id"))
	if !ok {
		return
	}
	if err := database.DeleteRepairOrder(order.ID); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete repair order: %v", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Invoice ---

// InvoiceLine is one position on an invoice.
type InvoiceLine struct {
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
}

// InvoiceResponse is the renderable invoice data of a finished order.
type InvoiceResponse struct {
	InvoiceNumber string        `json:"invoice_number"`
	Date          string        `json:"date"`
	Shop          models.Shop   `json:"shop"`
	CustomerName  string        `json:"customer_name"`
	Device        string        `json:"device"`
	Lines         []InvoiceLine `json:"lines"`
	TotalCents    int64         `json:"total_cents"`
	DepositCents  int64         `json:"deposit_cents"`
	DueCents      int64         `json:"due_cents"`
	Footer        string        `json:"footer"`
}

// GetInvoiceHandler returns the invoice data of a finished order.
// @Summary      Get an Invoice
// @Description  Returns the renderable invoice of an order that has reached "fertig" at least once. Orders without an invoice number yield 409. The footer comes from the shop's master data.
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Order ID."
// @Success      200  {object}  InvoiceResponse "The invoice data."
// @Failure      404  {object}  utils.APIError "No such order in your shop."
// @Failure      409  {object}  utils.APIError "The order has no invoice number yet."
// @Router       /orders/{id}/invoice [get]
func GetInvoiceHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	order, ok := getShopOrder(c, database, c.Param("id"))
	if !ok {
		return
	}
	if order.InvoiceNumber == "" {
		utils.GinError(c, http.StatusConflict, "Order has no invoice yet; it must reach status 'fertig' first.")
		return
	}

	shop, _ := database.GetShopByID(order.ShopID)

	customerName := ""
	if customer, found := database.GetCustomerByID(order.CustomerID); found {
		customerName = strings.TrimSpace(customer.FirstName + " " + customer.LastName)
	}

	lines := make([]InvoiceLine, 0, len(order.Issues))
	for _, issue := range order.Issues {
		lines = append(lines, InvoiceLine{Description: issue})
	}
	if len(lines) == 0 {
		lines = append(lines, InvoiceLine{Description: "Reparatur"})
	}
	// The quote is a flat total; attach it to the first line.
	lines[0].AmountCents = order.QuoteCents

	invoiceDate := order.LastModifiedDate
	for _, change := range order.StatusHistory {
		if change.Status == models.StatusDone {
			invoiceDate = change.ChangedAt
			break
		}
	}

	c.JSON(http.StatusOK, InvoiceResponse{
		InvoiceNumber: order.InvoiceNumber,
		Date:          invoiceDate.Format("02.01.2006"),
		Shop:          shop,
		CustomerName:  customerName,
		Device:        strings.TrimSpace(order.DeviceType + " " + order.Brand + " " + order.Model),
		Lines:         lines,
		TotalCents:    order.QuoteCents,
		DepositCents:  order.DepositCents,
		DueCents:      order.QuoteCents - order.DepositCents,
		Footer:        shop.InvoiceFooter,
	})
}
