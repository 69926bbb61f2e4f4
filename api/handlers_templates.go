package api

import (
	"fmt"
	"net/http"
	"strings"

	"repairbase/config"
	"repairbase/db"
	"repairbase/models"
	"repairbase/notify"
	"repairbase/utils"

	"github.com/gin-gonic/gin"
)

// TemplateRequest defines the body for creating or updating a message template.
type TemplateRequest struct {
	Kind    string `json:"kind" binding:"required"` // "sms" or "email"
	Name    string `json:"name" binding:"required"`
	Subject string `json:"subject"`
	Body    string `json:"body" binding:"required"`
}

// CreateTemplateHandler saves a new message template.
// @Summary      Create a Message Template
// @Description  Saves a notification template for the caller's shop. Bodies use Go template placeholders over the order fields, e.g. `Hallo {{.Kunde}}, Ihr {{.Geraet}} ist {{.Status}}.` Available placeholders: Kunde, Telefon, Geraet, Marke, Modell, Status, Kostenvor, Rechnung, Werkstatt, WerkstattTel.
// @Tags         Templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        template body TemplateRequest true "Kind (sms or email), name and body."
// @Success      201  {object}  models.MessageTemplate "The saved template."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown kind."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /templates [post]
func CreateTemplateHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	created, err := database.CreateTemplate(models.MessageTemplate{
		ShopID:  shopID,
		Kind:    req.Kind,
		Name:    req.Name,
		Subject: req.Subject,
		Body:    req.Body,
	})
	if err != nil {
		if strings.Contains(err.Error(), "kind") {
			utils.GinBadRequest(c, err.Error())
		} else {
			utils.GinInternalServerError(c, fmt.Sprintf("Failed to create template: %v", err))
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListTemplatesHandler lists the shop's templates.
// @Summary      List Message Templates
// @Tags         Templates
// @Produce      json
// @Security     BearerAuth
// @Param        kind query string false "Filter by kind (sms or email)."
// @Success      200  {array}   models.MessageTemplate "The shop's templates."
// @Failure      401  {object}  utils.APIError "Missing, invalid or expired token."
// @Router       /templates [get]
func ListTemplatesHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	shopID, ok := contextString(c, "shopID")
	if !ok {
		utils.GinInternalServerError(c, "Shop ID not found in context.")
		return
	}
	c.JSON(http.StatusOK, database.GetTemplatesByShop(shopID, c.Query("kind")))
}

func getShopTemplate(c *gin.Context, database *db.Database, id string) (models.MessageTemplate, bool) {
	shopID, _ := contextString(c, "shopID")
	tmpl, found := database.GetTemplateByID(id)
	if !found || tmpl.ShopID != shopID {
		utils.GinNotFound(c, "Template not found.")
		return models.MessageTemplate{}, false
	}
	return tmpl, true
}

// UpdateTemplateHandler updates a message template.
// @Summary      Update a Message Template
// @Tags         Templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path string          true "Template ID."
// @Param        template body TemplateRequest true "The new template content."
// @Success      200  {object}  models.MessageTemplate "The updated template."
// @Failure      400  {object}  utils.APIError "Invalid body or unknown kind."
// @Failure      404  {object}  utils.APIError "No such template in your shop."
// @Router       /templates/{id} [put]
func UpdateTemplateHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	tmpl, ok := getShopTemplate(c, database, c.Param("id"))
	if !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	tmpl.Kind = req.Kind
	tmpl.Name = req.Name
	tmpl.Subject = req.Subject
	tmpl.Body = req.Body

	updated, err := database.UpdateTemplate(tmpl.ID, tmpl)
	if err != nil {
		if strings.Contains(err.Error(), "kind") {
			utils.GinBadRequest(c, err.Error())
		} else {
			utils.GinInternalServerError(c, fmt.Sprintf("Failed to update template: %v", err))
		}
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTemplateHandler removes a message template.
// @Summary      Delete a Message Template
// @Tags         Templates
// @Security     BearerAuth
// @Param        id path string true "Template ID."
// @Success      204  "Template deleted."
// @Failure      404  {object}  utils.APIError "No such template in your shop."
// @Router       /templates/{id} [delete]
func DeleteTemplateHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	tmpl, ok := getShopTemplate(c, database, c.Param("id"))
	if !ok {
		return
	}
	if err := database.DeleteTemplate(tmpl.ID); err != nil {
		utils.GinInternalServerError(c, fmt.Sprintf("Failed to delete template: %v", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Preview & Send ---

// PreviewRequest renders a template against a concrete order.
type PreviewRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// PreviewResponse is the rendered message.
type PreviewResponse struct {
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// PreviewTemplateHandler renders a template for one order without sending.
// @Summary      Preview a Template
// @Description  Renders the template against a concrete order so typos in placeholders surface before anything is sent. Unknown placeholders are reported as an error.
// @Tags         Templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string         true "Template ID."
// @Param        preview body PreviewRequest true "The order to render against."
// @Success      200  {object}  PreviewResponse "The rendered message."
// @Failure      400  {object}  utils.APIError "Invalid body or a placeholder the order fields do not provide."
// @Failure      404  {object}  utils.APIError "Template or order not found in your shop."
// @Router       /templates/{id}/preview [post]
func PreviewTemplateHandler(c *gin.Context, database *db.Database, cfg *config.Config) {
	tmpl, ok := getShopTemplate(c, database, c.Param("id"))
	if !ok {
		return
	}

	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	order, ok := getShopOrder(c, database, req.OrderID)
	if !ok {
		return
	}

	fields := buildMessageFields(database, order)
	message, err := notify.Render(tmpl.Body, fields)
	if err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Template rendering failed: %v", err))
		return
	}

	resp := PreviewResponse{Message: message}
	if tmpl.Subject != "" {
		subject, err := notify.Render(tmpl.Subject, fields)
		if err != nil {
			utils.GinBadRequest(c, fmt.Sprintf("Subject rendering failed: %v", err))
			return
		}
		resp.Subject = subject
	}
	c.JSON(http.StatusOK, resp)
}

// buildMessageFields resolves the customer and shop of an order into the
// flat placeholder set.
func buildMessageFields(database *db.Database, order models.RepairOrder) notify.Fields {
	var customer *models.Customer
	if cust, found := database.GetCustomerByID(order.CustomerID); found {
		customer = &cust
	}
	var shop *models.Shop
	if s, found := database.GetShopByID(order.ShopID); found {
		shop = &s
	}
	return notify.BuildFields(order, customer, shop)
}

// NotifyRequest sends a rendered template to an order's customer.
type NotifyRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

// NotifyCustomerHandler sends an SMS for one order.
// @Summary      Notify the Customer
// @Description  Renders the given SMS template against the order and sends it to the customer's phone number through the SMS gateway. A gateway failure yields 502; the order itself is unchanged either way.
// @Tags         Templates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string        true "Order ID."
// @Param        notify body NotifyRequest true "The SMS template to send."
// @Success      200  {object}  map[string]string "The message was handed to the gateway."
// @Failure      400  {object}  utils.APIError "Invalid body, non-SMS template, rendering error or customer without phone number."
// @Failure      404  {object}  utils.APIError "Order or template not found in your shop."
// @Failure      502  {object}  utils.APIError "The SMS gateway rejected the message or was unreachable."
// @Router       /orders/{id}/notify [post]
func NotifyCustomerHandler(c *gin.Context, database *db.Database, cfg *config.Config, sms *notify.SMSClient) {
	order, ok := getShopOrder(c, database, c.Param("id"))
	if !ok {
		return
	}

	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	tmpl, ok := getShopTemplate(c, database, req.TemplateID)
	if !ok {
		return
	}
	if tmpl.Kind != "sms" {
		utils.GinBadRequest(c, "Only SMS templates can be sent through this endpoint.")
		return
	}

	customer, found := database.GetCustomerByID(order.CustomerID)
	if !found || customer.Phone == "" {
		utils.GinBadRequest(c, "The order's customer has no phone number on file.")
		return
	}

	message, err := notify.Render(tmpl.Body, buildMessageFields(database, order))
	if err != nil {
		utils.GinBadRequest(c, fmt.Sprintf("Template rendering failed: %v", err))
		return
	}

	if sms == nil {
		utils.GinBadGateway(c, "No SMS gateway configured.")
		return
	}
	if err := sms.Send(c.Request.Context(), customer.Phone, message); err != nil {
		utils.GinBadGateway(c, fmt.Sprintf("SMS delivery failed: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "SMS sent."})
}
