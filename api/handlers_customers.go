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

// CustomerRequest defines the body for creating or updating a customer.
type CustomerRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Notes     string `json:"notes"`
}

// CreateCustomerHandler registers a new customer in the caller's shop.
// @Summary      Create a Customer
// @Description  Adds a customer record to the caller's shop. Phone and email are optional but needed for notifications.
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        customer body CustomerRequest true "The customer's contact data."
// @Success      201  {object}  models.Customer "The created customer."
// @Failure      400  {object}  utils.APIError "Invalid request body."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /customers [post]
func CreateCustomerHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	created, err := database.CreateCustomer(models.Customer{
		ShopID:    shopID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Notes:     req.Notes,
	})
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to create customer: %v", err))
		return
	}
	c.JSON(http.StatusCreated, created)
}

// SearchCustomersHandler searches the caller's customers.
// @Summary      Search Customers
// @Description  Case-insensitive substring search over name, phone and email of the caller's shop. An empty query returns all customers.
// @Tags         Customers
// @Produce      json
// @Security     BearerAuth
// @Param        q query string false "Search text." example(meyer)
// @Success      200  {array}   models.Customer "Matching customers."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /customers [get]
func SearchCustomersHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}
	c.JSON(http.StatusOK, database.SearchCustomers(shopID, c.Query("q")))
}

// getShopCustomer loads a customer and enforces shop scoping. Writes the
// error response itself and returns false when the caller may not see it.
func getShopCustomer(c *gin.Context, database *db.Database, id string) (models.Customer, bool) {
	shopID, _ := contextString(c, "shopID")
	customer, found := database.GetCustomerByID(id)
	if !found {
		utils.GinNotFound(c, "Customer not found.")
		return models.Customer{}, false
	}
	if customer.ShopID != shopID {
		// Hide other shops' customers entirely.
		utils.GinNotFound(c, "Customer not found.")
		return models.Customer{}, false
	}
	return customer, true
}

// GetCustomerHandler returns one customer.
// @Summary      Get a Customer
// @Tags         Customers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Customer ID."
// @Success      200  {object}  models.Customer "The customer."
// @Failure      404  {object}  utils.APIError "No such customer in your shop."
// @Router       /customers/{id} [get]
func GetCustomerHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	customer, ok := getShopCustomer(c, database, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomerHandler updates a customer's contact data.
// @Summary      Update a Customer
// @Tags         Customers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Customer ID."
// @Param        customer body CustomerRequest true "The new contact data."
// @Success      200  {object}  models.Customer "The updated customer."
// @Failure      400  {object}  utils.APIError "Invalid request body."
// @Failure      404  {object}  utils.APIError "No such customer in your shop."
// @Router       /customers/{id} [put]
func UpdateCustomerHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	customer, ok := getShopCustomer(c, database, c.Param("id"))
	if !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	customer.FirstName = req.FirstName
	customer.LastName = req.LastName
	customer.Phone = req.Phone
	customer.Email = req.Email
	customer.Address = req.Address
	customer.Notes = req.Notes

	updated, err := database.UpdateCustomer(customer.ID, customer)
	if err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to update customer: %v", err))
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteCustomerHandler removes a customer.
// @Summary      Delete a Customer
// @Description  Removes the customer record. Existing repair orders keep their customer ID and simply point at a record that no longer exists.
// @Tags         Customers
// @Security     BearerAuth
// @Param        id path string true "Customer ID."
// @Success      204  "Customer deleted."
// @Failure      404  {object}  utils.APIError "No such customer in your shop."
// @Router       /customers/{id} [delete]
func DeleteCustomerHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	customer, ok := getShopCustomer(c, database, c.Param("id"))
	if !ok {
		return
	}
	if err := database.DeleteCustomer(customer.ID); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "not found") {
			utils.GinNotFound(c, "Customer not found.")
		} else {
			utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete customer: %v", err))
		}
		return
	}
	c.Status(http.StatusNoContent)
}
