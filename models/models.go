package models

import (
	"sync"
	"time"
)

// Role values for staff accounts.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// Repair order status values. German labels match what the shop UI shows.
const (
	StatusReceived   = "eingegangen"
	StatusInProgress = "in_bearbeitung"
	StatusWaitParts  = "wartet_auf_teile"
	StatusDone       = "fertig"
	StatusPickedUp   = "abgeholt"
	StatusCancelled  = "storniert"
)

// Part order status values.
const (
	PartStatusOpen      = "offen"
	PartStatusOrdered   = "bestellt"
	PartStatusDelivered = "geliefert"
	PartStatusCancelled = "storniert"
)

// Profile represents a staff account.
type Profile struct {
	ID               string    `json:"id"`       // Unique ID (UUID, dashless)
	Username         string    `json:"username"` // Unique, used for catalog scoping
	Email            string    `json:"email"`    // Unique, used for login
	DisplayName      string    `json:"display_name"`
	PasswordHash     string    `json:"password_hash"`
	Role             string    `json:"role"`               // RoleAdmin or RoleStaff
	ShopID           string    `json:"shop_id"`            // Shop this account belongs to
	CreationDate     time.Time `json:"creation_date"`      // UTC
	LastModifiedDate time.Time `json:"last_modified_date"` // UTC
}

// Shop represents one store location.
type Shop struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Address          string    `json:"address"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	InvoiceFooter    string    `json:"invoice_footer"` // Printed under every invoice
	CreationDate     time.Time `json:"creation_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// Customer represents a repair-shop customer.
type Customer struct {
	ID               string    `json:"id"`
	ShopID           string    `json:"shop_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email"`
	Address          string    `json:"address"`
	Notes            string    `json:"notes"`
	CreationDate     time.Time `json:"creation_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// StatusChange records one step of a repair order's lifecycle.
type StatusChange struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"` // Profile ID
	ChangedAt time.Time `json:"changed_at"` // UTC
	Note      string    `json:"note,omitempty"`
}

// RepairOrder represents a single device repair job.
type RepairOrder struct {
	ID               string         `json:"id"`
	ShopID           string         `json:"shop_id"`
	CustomerID       string         `json:"customer_id"`
	DeviceType       string         `json:"device_type"` // e.g. "Smartphone"
	Brand            string         `json:"brand"`
	Model            string         `json:"model"`
	Serial           string         `json:"serial,omitempty"` // Serial number or IMEI
	Issues           []string       `json:"issues"`
	DeviceDetails    any            `json:"device_details,omitempty"` // Free-form JSON (pattern lock, accessories, ...)
	QuoteCents       int64          `json:"quote_cents"`
	DepositCents     int64          `json:"deposit_cents"`
	Status           string         `json:"status"`
	StatusHistory    []StatusChange `json:"status_history"`
	InvoiceNumber    string         `json:"invoice_number,omitempty"` // Assigned when the order first reaches "fertig"
	CreationDate     time.Time      `json:"creation_date"`
	LastModifiedDate time.Time      `json:"last_modified_date"`
}

// PartOrder represents a spare part ordered from a supplier.
type PartOrder struct {
	ID               string    `json:"id"`
	ShopID           string    `json:"shop_id"`
	RepairOrderID    string    `json:"repair_order_id,omitempty"` // Optional link to the repair waiting on this part
	PartName         string    `json:"part_name"`
	Supplier         string    `json:"supplier"`
	Quantity         int       `json:"quantity"`
	UnitPriceCents   int64     `json:"unit_price_cents"`
	Status           string    `json:"status"`
	CreationDate     time.Time `json:"creation_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// MessageTemplate is an SMS or email text with {{.Field}} placeholders.
type MessageTemplate struct {
	ID               string    `json:"id"`
	ShopID           string    `json:"shop_id"`
	Kind             string    `json:"kind"` // "sms" or "email"
	Name             string    `json:"name"`
	Subject          string    `json:"subject,omitempty"` // Email only
	Body             string    `json:"body"`
	CreationDate     time.Time `json:"creation_date"`
	LastModifiedDate time.Time `json:"last_modified_date"`
}

// Database holds all application data and manages concurrent access
type Database struct {
	Profiles     map[string]Profile         `json:"profiles"`      // Keyed by Profile ID (dashless)
	Shops        map[string]Shop            `json:"shops"`         // Keyed by Shop ID
	Customers    map[string]Customer        `json:"customers"`     // Keyed by Customer ID
	RepairOrders map[string]RepairOrder     `json:"repair_orders"` // Keyed by Order ID
	PartOrders   map[string]PartOrder       `json:"part_orders"`   // Keyed by Part Order ID
	Templates    map[string]MessageTemplate `json:"templates"`     // Keyed by Template ID
	InvoiceSeq   map[string]int64           `json:"invoice_seq"`   // Per-shop invoice number counters

	// Mutex for thread-safe access to the maps
	Mu sync.RWMutex `json:"-"` // Exclude mutex from serialization (Exported)
}
