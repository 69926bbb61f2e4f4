// Package notify renders customer messages from templates and delivers
// them through the SMS gateway.
package notify

import (
	"fmt"
	"strings"
	"text/template"

	"repairbase/models"
)

// Fields is the flat placeholder surface exposed to message templates.
// Template bodies reference these as {{.Kunde}}, {{.Status}} and so on.
type Fields struct {
	Kunde        string
	Telefon      string
	Geraet       string
	Marke        string
	Modell       string
	Status       string
	Kostenvor    string
	Rechnung     string
	Werkstatt    string
	WerkstattTel string
}

// BuildFields flattens an order with its customer and shop into the
// placeholder set. Nil customer or shop leaves the matching fields empty.
func BuildFields(order models.RepairOrder, customer *models.Customer, shop *models.Shop) Fields {
	fields := Fields{
		Geraet:    order.DeviceType,
		Marke:     order.Brand,
		Modell:    order.Model,
		Status:    statusLabel(order.Status),
		Kostenvor: formatEuros(order.QuoteCents),
		Rechnung:  order.InvoiceNumber,
	}
	if customer != nil {
		fields.Kunde = strings.TrimSpace(customer.FirstName + " " + customer.LastName)
		fields.Telefon = customer.Phone
	}
	if shop != nil {
		fields.Werkstatt = shop.Name
		fields.WerkstattTel = shop.Phone
	}
	return fields
}

// statusLabels maps order statuses to customer-facing German wording.
var statusLabels = map[string]string{
	models.StatusReceived:   "eingegangen",
	models.StatusInProgress: "in Bearbeitung",
	models.StatusWaitParts:  "wartet auf Ersatzteile",
	models.StatusDone:       "fertig zur Abholung",
	models.StatusPickedUp:   "abgeholt",
	models.StatusCancelled:  "storniert",
}

func statusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

func formatEuros(cents int64) string {
	return strings.Replace(fmt.Sprintf("%.2f EUR", float64(cents)/100), ".", ",", 1)
}

// Render executes a template body against the placeholder fields. Unknown
// placeholders are an error so a typo in a saved template surfaces at
// preview or send time instead of producing a blank in the message.
func Render(body string, fields Fields) (string, error) {
	tmpl, err := template.New("message").Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, fields); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return sb.String(), nil
}
