package db

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"repairbase/config"
	"repairbase/models"
	"repairbase/utils"
)

// Database holds all application data and manages concurrent access.
// The embedded models.Database carries the maps and their mutex; this struct
// adds the persistence logic (config, debounced save timer, OTP store).
type Database struct {
	models.Database
	config      *config.Config
	saveTimer   *time.Timer // Timer for debounced saving
	savePending bool        // Flag to indicate if a save is queued
	saveMutex   sync.Mutex  // Mutex specifically for the save timer logic
	otpStore    map[string]otpRecord // Temporary store for password reset OTPs
	otpMutex    sync.Mutex
}

// otpRecord stores the OTP and its expiry time
type otpRecord struct {
	otp    string
	expiry time.Time
}

// NewDatabase creates and initializes a new Database instance.
// It attempts to load existing data from the configured file.
func NewDatabase(cfg *config.Config) (*Database, error) {
	db := &Database{
		Database: models.Database{
			Profiles:     make(map[string]models.Profile),
			Shops:        make(map[string]models.Shop),
			Customers:    make(map[string]models.Customer),
			RepairOrders: make(map[string]models.RepairOrder),
			PartOrders:   make(map[string]models.PartOrder),
			Templates:    make(map[string]models.MessageTemplate),
			InvoiceSeq:   make(map[string]int64),
		},
		config:   cfg,
		otpStore: make(map[string]otpRecord),
	}

	log.Printf("INFO: Initializing database with file: %s", cfg.DbFilePath)
	if err := db.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("ERROR: Database Load failed with critical error: %v", err)
			return nil, err
		}
	}

	return db, nil
}

// ensureMaps initializes any nil maps on the embedded struct. Needed after
// unmarshalling files written by older versions that lack newer sections.
func (db *Database) ensureMaps() {
	if db.Database.Profiles == nil {
		db.Database.Profiles = make(map[string]models.Profile)
	}
	if db.Database.Shops == nil {
		db.Database.Shops = make(map[string]models.Shop)
	}
	if db.Database.Customers == nil {
		db.Database.Customers = make(map[string]models.Customer)
	}
	if db.Database.RepairOrders == nil {
		db.Database.RepairOrders = make(map[string]models.RepairOrder)
	}
	if db.Database.PartOrders == nil {
		db.Database.PartOrders = make(map[string]models.PartOrder)
	}
	if db.Database.Templates == nil {
		db.Database.Templates = make(map[string]models.MessageTemplate)
	}
	if db.Database.InvoiceSeq == nil {
		db.Database.InvoiceSeq = make(map[string]int64)
	}
}

// Load reads the database state from the JSON file specified in the configuration.
// If the file doesn't exist, it initializes an empty database state and logs a message.
// If the file exists but cannot be parsed, it logs a critical error and returns it.
func (db *Database) Load() error {
	db.Database.Mu.Lock() // Write lock, loading replaces the maps
	defer db.Database.Mu.Unlock()

	fileData, err := os.ReadFile(db.config.DbFilePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("INFO: Database file '%s' not found. Initializing empty database.", db.config.DbFilePath)
			db.ensureMaps()
			return nil
		}
		log.Printf("ERROR: Failed to read database file '%s': %v. Proceeding with empty state.", db.config.DbFilePath, err)
		db.ensureMaps()
		return nil
	}

	err = json.Unmarshal(fileData, &db.Database)
	if err != nil {
		log.Printf("CRITICAL: Failed to parse JSON data from database file '%s': %v. Server startup might be affected.", db.config.DbFilePath, err)
		// Keep whatever state we have, but make sure the maps are usable.
		db.ensureMaps()
		return err
	}

	db.ensureMaps()

	log.Printf("INFO: Successfully loaded database from %s. Profiles: %d, Shops: %d, Customers: %d, Orders: %d, Parts: %d, Templates: %d",
		db.config.DbFilePath, len(db.Database.Profiles), len(db.Database.Shops), len(db.Database.Customers),
		len(db.Database.RepairOrders), len(db.Database.PartOrders), len(db.Database.Templates))

	return nil
}

// persist saves the current database state to the JSON file.
// This is the actual file writing logic, called by the debounced mechanism.
func (db *Database) persist() error {
	db.Database.Mu.RLock() // Read lock is enough for marshalling the current state
	defer db.Database.Mu.RUnlock()

	jsonData, err := json.MarshalIndent(&db.Database, "", "  ")
	if err != nil {
		log.Printf("ERROR: Failed to marshal database state to JSON: %v", err)
		return err
	}

	// --- Atomic Write ---
	tempFilePath := db.config.DbFilePath + ".tmp"
	backupFilePath := db.config.DbFilePath + ".bak"

	err = os.WriteFile(tempFilePath, jsonData, 0644)
	if err != nil {
		log.Printf("ERROR: Failed to write to temporary database file '%s': %v", tempFilePath, err)
		return err
	}

	if db.config.EnableBackup {
		if _, err := os.Stat(db.config.DbFilePath); err == nil {
			err = os.Rename(db.config.DbFilePath, backupFilePath)
			if err != nil {
				log.Printf("WARN: Failed to rename '%s' to '%s' for backup: %v. Proceeding with save.", db.config.DbFilePath, backupFilePath, err)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: Error checking status of original DB file '%s' before backup: %v", db.config.DbFilePath, err)
		}
	}

	err = os.Rename(tempFilePath, db.config.DbFilePath)
	if err != nil {
		log.Printf("ERROR: Failed to atomically rename temporary file '%s' to '%s': %v", tempFilePath, db.config.DbFilePath, err)
		_ = os.Remove(tempFilePath)
		return err
	}

	log.Printf("INFO: Successfully saved database state to %s", db.config.DbFilePath)
	return nil
}

// requestSave is called after every write operation to trigger a debounced save.
func (db *Database) requestSave() {
	db.saveMutex.Lock()
	defer db.saveMutex.Unlock()

	// Instant save if interval is zero or negative
	if db.config.SaveInterval <= 0 {
		go func() {
			if err := db.persist(); err != nil {
				log.Printf("ERROR: Immediate persist failed: %v", err)
			}
		}()
		return
	}

	// Debounced save: a running timer is reset by the next write
	if db.saveTimer != nil {
		db.saveTimer.Stop()
	}

	db.savePending = true

	db.saveTimer = time.AfterFunc(db.config.SaveInterval, func() {
		db.saveMutex.Lock()
		if !db.savePending {
			db.saveMutex.Unlock()
			return
		}
		db.savePending = false
		db.saveMutex.Unlock()

		if err := db.persist(); err != nil {
			log.Printf("ERROR: Debounced persist failed: %v", err)
		}
	})
}

// Close ensures any pending save operation is completed before shutdown.
func (db *Database) Close() error {
	var needsFinalPersist bool

	db.saveMutex.Lock()
	if db.saveTimer != nil {
		db.saveTimer.Stop()
		db.saveTimer = nil
	}
	if db.savePending {
		needsFinalPersist = true
		db.savePending = false
	}
	db.saveMutex.Unlock()

	if needsFinalPersist {
		log.Printf("INFO: Performing final persist operation on close...")
		if err := db.persist(); err != nil {
			log.Printf("ERROR: Final persist operation failed during close: %v", err)
			return err
		}
	}

	return nil
}

// --- OTP Store Methods ---

// StoreOTP saves an OTP for a given email with an expiry time.
func (db *Database) StoreOTP(email string, otp string, expiry time.Time) {
	db.otpMutex.Lock()
	defer db.otpMutex.Unlock()
	db.otpStore[email] = otpRecord{otp: otp, expiry: expiry}
}

// RetrieveOTP fetches the stored OTP and expiry time for a given email.
func (db *Database) RetrieveOTP(email string) (string, time.Time, bool) {
	db.otpMutex.Lock()
	defer db.otpMutex.Unlock()

	record, found := db.otpStore[email]
	if !found {
		return "", time.Time{}, false
	}
	return record.otp, record.expiry, true
}

// DeleteOTP removes the OTP record for a given email.
func (db *Database) DeleteOTP(email string) {
	db.otpMutex.Lock()
	defer db.otpMutex.Unlock()
	delete(db.otpStore, email)
}

// --- CRUD Methods: Profiles ---

// CreateProfile adds a new staff profile. Username and email must be unique
// (case-insensitive).
func (db *Database) CreateProfile(profile models.Profile) (models.Profile, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	for _, existing := range db.Database.Profiles {
		if strings.EqualFold(existing.Email, profile.Email) {
			return models.Profile{}, fmt.Errorf("email '%s' already exists", profile.Email)
		}
		if strings.EqualFold(existing.Username, profile.Username) {
			return models.Profile{}, fmt.Errorf("username '%s' already exists", profile.Username)
		}
	}

	if profile.ID == "" {
		profile.ID = utils.GenerateDashlessUUID()
	}
	now := time.Now().UTC()
	if profile.CreationDate.IsZero() {
		profile.CreationDate = now
	}
	profile.LastModifiedDate = now

	db.Database.Profiles[profile.ID] = profile
	log.Printf("INFO: Created Profile ID: %s, Username: %s", profile.ID, profile.Username)

	db.requestSave()
	return profile, nil
}

// GetProfileByID retrieves a profile by its ID.
func (db *Database) GetProfileByID(id string) (models.Profile, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	profile, found := db.Database.Profiles[id]
	return profile, found
}

// GetProfileByEmail retrieves a profile by its email address (case-insensitive).
func (db *Database) GetProfileByEmail(email string) (models.Profile, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	for _, profile := range db.Database.Profiles {
		if strings.EqualFold(profile.Email, email) {
			return profile, true
		}
	}
	return models.Profile{}, false
}

// GetProfileByUsername retrieves a profile by its username (case-insensitive).
func (db *Database) GetProfileByUsername(username string) (models.Profile, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	for _, profile := range db.Database.Profiles {
		if strings.EqualFold(profile.Username, username) {
			return profile, true
		}
	}
	return models.Profile{}, false
}

// UpdateProfile updates an existing profile. ID, creation date and password
// hash are preserved; email uniqueness is re-checked.
func (db *Database) UpdateProfile(id string, updated models.Profile) (models.Profile, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	existing, found := db.Database.Profiles[id]
	if !found {
		return models.Profile{}, fmt.Errorf("profile with ID '%s' not found", id)
	}

	updated.ID = existing.ID
	updated.CreationDate = existing.CreationDate
	updated.PasswordHash = existing.PasswordHash
	updated.LastModifiedDate = time.Now().UTC()

	if !strings.EqualFold(existing.Email, updated.Email) {
		for _, p := range db.Database.Profiles {
			if p.ID != id && strings.EqualFold(p.Email, updated.Email) {
				return models.Profile{}, fmt.Errorf("cannot update profile, email '%s' already exists for another user", updated.Email)
			}
		}
	}
	if !strings.EqualFold(existing.Username, updated.Username) {
		for _, p := range db.Database.Profiles {
			if p.ID != id && strings.EqualFold(p.Username, updated.Username) {
				return models.Profile{}, fmt.Errorf("cannot update profile, username '%s' already exists for another user", updated.Username)
			}
		}
	}

	db.Database.Profiles[id] = updated
	log.Printf("INFO: Updated Profile ID: %s", id)

	db.requestSave()
	return updated, nil
}

// DeleteProfile removes a profile by its ID.
func (db *Database) DeleteProfile(id string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if _, found := db.Database.Profiles[id]; !found {
		return fmt.Errorf("profile with ID '%s' not found", id)
	}

	delete(db.Database.Profiles, id)
	log.Printf("INFO: Deleted Profile ID: %s", id)

	db.requestSave()
	return nil
}

// GetProfilesByShop retrieves all profiles attached to a shop.
func (db *Database) GetProfilesByShop(shopID string) []models.Profile {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	profiles := make([]models.Profile, 0)
	for _, profile := range db.Database.Profiles {
		if profile.ShopID == shopID {
			profiles = append(profiles, profile)
		}
	}
	return profiles
}

// GetAllProfiles retrieves all profiles.
func (db *Database) GetAllProfiles() []models.Profile {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	profiles := make([]models.Profile, 0, len(db.Database.Profiles))
	for _, profile := range db.Database.Profiles {
		profiles = append(profiles, profile)
	}
	return profiles
}

// UpdateProfilePassword finds a profile by email and updates only its password hash.
func (db *Database) UpdateProfilePassword(email string, newPasswordHash string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	var targetID string
	found := false
	for id, profile := range db.Database.Profiles {
		if strings.EqualFold(profile.Email, email) {
			targetID = id
			found = true
			break
		}
	}

	if !found {
		return fmt.Errorf("profile with email '%s' not found", email)
	}

	profile := db.Database.Profiles[targetID]
	profile.PasswordHash = newPasswordHash
	profile.LastModifiedDate = time.Now().UTC()
	db.Database.Profiles[targetID] = profile
	log.Printf("INFO: Updated password hash for Profile ID: %s", targetID)

	db.requestSave()
	return nil
}

// --- CRUD Methods: Shops ---

// CreateShop adds a new shop.
func (db *Database) CreateShop(shop models.Shop) (models.Shop, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if shop.Name == "" {
		return models.Shop{}, fmt.Errorf("shop must have a name")
	}

	if shop.ID == "" {
		shop.ID = utils.GenerateDashlessUUID()
	}
	now := time.Now().UTC()
	shop.CreationDate = now
	shop.LastModifiedDate = now

	db.Database.Shops[shop.ID] = shop
	log.Printf("INFO: Created Shop ID: %s, Name: %s", shop.ID, shop.Name)

	db.requestSave()
	return shop, nil
}

// GetShopByID retrieves a shop by its ID.
func (db *Database) GetShopByID(id string) (models.Shop, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	shop, found := db.Database.Shops[id]
	return shop, found
}

// GetAllShops retrieves all shops.
func (db *Database) GetAllShops() []models.Shop {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	shops := make([]models.Shop, 0, len(db.Database.Shops))
	for _, shop := range db.Database.Shops {
		shops = append(shops, shop)
	}
	return shops
}

// UpdateShop updates an existing shop.
func (db *Database) UpdateShop(id string, updated models.Shop) (models.Shop, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	existing, found := db.Database.Shops[id]
	if !found {
		return models.Shop{}, fmt.Errorf("shop with ID '%s' not found", id)
	}

	updated.ID = existing.ID
	updated.CreationDate = existing.CreationDate
	updated.LastModifiedDate = time.Now().UTC()

	db.Database.Shops[id] = updated
	log.Printf("INFO: Updated Shop ID: %s", id)

	db.requestSave()
	return updated, nil
}

// DeleteShop removes a shop by its ID. Profiles, customers and orders of the
// shop are not cascaded; they keep their shop_id and become unreachable via
// the UI until reassigned.
func (db *Database) DeleteShop(id string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if _, found := db.Database.Shops[id]; !found {
		return fmt.Errorf("shop with ID '%s' not found", id)
	}

	delete(db.Database.Shops, id)
	log.Printf("INFO: Deleted Shop ID: %s", id)

	db.requestSave()
	return nil
}

// --- CRUD Methods: Customers ---

// CreateCustomer adds a new customer.
func (db *Database) CreateCustomer(customer models.Customer) (models.Customer, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if customer.ShopID == "" {
		return models.Customer{}, fmt.Errorf("customer must have a shop_id")
	}

	customer.ID = utils.GenerateDashlessUUID()
	now := time.Now().UTC()
	customer.CreationDate = now
	customer.LastModifiedDate = now

	db.Database.Customers[customer.ID] = customer
	log.Printf("INFO: Created Customer ID: %s (%s %s)", customer.ID, customer.FirstName, customer.LastName)

	db.requestSave()
	return customer, nil
}

// GetCustomerByID retrieves a customer by its ID.
func (db *Database) GetCustomerByID(id string) (models.Customer, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	customer, found := db.Database.Customers[id]
	return customer, found
}

// SearchCustomers returns the customers of a shop whose name, phone or email
// contains the query string (case-insensitive). An empty query matches all.
func (db *Database) SearchCustomers(shopID, query string) []models.Customer {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	customers := make([]models.Customer, 0)
	for _, customer := range db.Database.Customers {
		if customer.ShopID != shopID {
			continue
		}
		if q == "" {
			customers = append(customers, customer)
			continue
		}
		haystack := strings.ToLower(customer.FirstName + " " + customer.LastName + " " + customer.Phone + " " + customer.Email)
		if strings.Contains(haystack, q) {
			customers = append(customers, customer)
		}
	}
	return customers
}

// UpdateCustomer updates an existing customer.
func (db *Database) UpdateCustomer(id string, updated models.Customer) (models.Customer, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	existing, found := db.Database.Customers[id]
	if !found {
		return models.Customer{}, fmt.Errorf("customer with ID '%s' not found", id)
	}

	updated.ID = existing.ID
	updated.ShopID = existing.ShopID
	updated.CreationDate = existing.CreationDate
	updated.LastModifiedDate = time.Now().UTC()

	db.Database.Customers[id] = updated
	log.Printf("INFO: Updated Customer ID: %s", id)

	db.requestSave()
	return updated, nil
}

// DeleteCustomer removes a customer by its ID. Their repair orders are kept;
// the customer reference becomes dangling but harmless.
func (db *Database) DeleteCustomer(id string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if _, found := db.Database.Customers[id]; !found {
		return fmt.Errorf("customer with ID '%s' not found", id)
	}

	delete(db.Database.Customers, id)
	log.Printf("INFO: Deleted Customer ID: %s", id)

	db.requestSave()
	return nil
}

// --- CRUD Methods: Repair Orders ---

// validStatus reports whether s is one of the known repair order statuses.
func validStatus(s string) bool {
	switch s {
	case models.StatusReceived, models.StatusInProgress, models.StatusWaitParts,
		models.StatusDone, models.StatusPickedUp, models.StatusCancelled:
		return true
	}
	return false
}

// CreateRepairOrder adds a new repair order in status "eingegangen".
func (db *Database) CreateRepairOrder(order models.RepairOrder, createdBy string) (models.RepairOrder, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if order.ShopID == "" {
		return models.RepairOrder{}, fmt.Errorf("repair order must have a shop_id")
	}
	if order.CustomerID == "" {
		return models.RepairOrder{}, fmt.Errorf("repair order must have a customer_id")
	}
	if _, found := db.Database.Customers[order.CustomerID]; !found {
		return models.RepairOrder{}, fmt.Errorf("customer with ID '%s' not found", order.CustomerID)
	}

	order.ID = utils.GenerateDashlessUUID()
	now := time.Now().UTC()
	order.CreationDate = now
	order.LastModifiedDate = now
	order.Status = models.StatusReceived
	order.StatusHistory = []models.StatusChange{{
		Status:    models.StatusReceived,
		ChangedBy: createdBy,
		ChangedAt: now,
	}}
	order.InvoiceNumber = ""
	if order.Issues == nil {
		order.Issues = []string{}
	}

	db.Database.RepairOrders[order.ID] = order
	log.Printf("INFO: Created RepairOrder ID: %s (%s %s %s)", order.ID, order.DeviceType, order.Brand, order.Model)

	db.requestSave()
	return order, nil
}

// GetRepairOrderByID retrieves a repair order by its ID.
func (db *Database) GetRepairOrderByID(id string) (models.RepairOrder, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	order, found := db.Database.RepairOrders[id]
	return order, found
}

// GetRepairOrdersByShop retrieves all repair orders of a shop.
func (db *Database) GetRepairOrdersByShop(shopID string) []models.RepairOrder {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	orders := make([]models.RepairOrder, 0)
	for _, order := range db.Database.RepairOrders {
		if order.ShopID == shopID {
			orders = append(orders, order)
		}
	}
	return orders
}

// UpdateRepairOrder updates the editable fields of an order. Status changes
// go through TransitionRepairOrder, not here.
func (db *Database) UpdateRepairOrder(id string, updated models.RepairOrder) (models.RepairOrder, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	existing, found := db.Database.RepairOrders[id]
	if !found {
		return models.RepairOrder{}, fmt.Errorf("repair order with ID '%s' not found", id)
	}

	existing.DeviceType = updated.DeviceType
	existing.Brand = updated.Brand
	existing.Model = updated.Model
	existing.Serial = updated.Serial
	existing.Issues = updated.Issues
	existing.DeviceDetails = updated.DeviceDetails
	existing.QuoteCents = updated.QuoteCents
	existing.DepositCents = updated.DepositCents
	existing.LastModifiedDate = time.Now().UTC()
	if existing.Issues == nil {
		existing.Issues = []string{}
	}

	db.Database.RepairOrders[id] = existing
	log.Printf("INFO: Updated RepairOrder ID: %s", id)

	db.requestSave()
	return existing, nil
}

// TransitionRepairOrder moves an order to a new status, appending to its
// status history. Reaching "fertig" for the first time assigns the next
// invoice number of the order's shop.
func (db *Database) TransitionRepairOrder(id, newStatus, changedBy, note string) (models.RepairOrder, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	order, found := db.Database.RepairOrders[id]
	if !found {
		return models.RepairOrder{}, fmt.Errorf("repair order with ID '%s' not found", id)
	}
	if !validStatus(newStatus) {
		return models.RepairOrder{}, fmt.Errorf("unknown status '%s'", newStatus)
	}
	if order.Status == newStatus {
		return order, nil // No-op transition
	}

	now := time.Now().UTC()
	order.Status = newStatus
	order.StatusHistory = append(order.StatusHistory, models.StatusChange{
		Status:    newStatus,
		ChangedBy: changedBy,
		ChangedAt: now,
		Note:      note,
	})
	order.LastModifiedDate = now

	if newStatus == models.StatusDone && order.InvoiceNumber == "" {
		db.Database.InvoiceSeq[order.ShopID]++
		order.InvoiceNumber = fmt.Sprintf("RE-%s-%06d", now.Format("2006"), db.Database.InvoiceSeq[order.ShopID])
		log.Printf("INFO: Assigned invoice number %s to RepairOrder ID: %s", order.InvoiceNumber, id)
	}

	db.Database.RepairOrders[id] = order
	log.Printf("INFO: RepairOrder ID: %s transitioned to %s", id, newStatus)

	db.requestSave()
	return order, nil
}

// DeleteRepairOrder removes a repair order by its ID.
func (db *Database) DeleteRepairOrder(id string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if _, found := db.Database.RepairOrders[id]; !found {
		return fmt.Errorf("repair order with ID '%s' not found", id)
	}

	delete(db.Database.RepairOrders, id)
	log.Printf("INFO: Deleted RepairOrder ID: %s", id)

	db.requestSave()
	return nil
}

// --- CRUD Methods: Part Orders ---

func validPartStatus(s string) bool {
	switch s {
	case models.PartStatusOpen, models.PartStatusOrdered, models.PartStatusDelivered, models.PartStatusCancelled:
		return true
	}
	return false
}

// CreatePartOrder adds a new spare-part order in status "offen".
func (db *Database) CreatePartOrder(part models.PartOrder) (models.PartOrder, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if part.ShopID == "" {
		return models.PartOrder{}, fmt.Errorf("part order must have a shop_id")
	}
	if part.PartName == "" {
		return models.PartOrder{}, fmt.Errorf("part order must have a part_name")
	}
	if part.Quantity <= 0 {
		part.Quantity = 1
	}
	if part.RepairOrderID != "" {
		if _, found := db.Database.RepairOrders[part.RepairOrderID]; !found {
			return models.PartOrder{}, fmt.Errorf("repair order with ID '%s' not found", part.RepairOrderID)
		}
	}

	part.ID = utils.GenerateDashlessUUID()
	now := time.Now().UTC()
	part.CreationDate = now
	part.LastModifiedDate = now
	part.Status = models.PartStatusOpen

	db.Database.PartOrders[part.ID] = part
	log.Printf("INFO: Created PartOrder ID: %s (%s x%d)", part.ID, part.PartName, part.Quantity)

	db.requestSave()
	return part, nil
}

// GetPartOrderByID retrieves a part order by its ID.
func (db *Database) GetPartOrderByID(id string) (models.PartOrder, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	part, found := db.Database.PartOrders[id]
	return part, found
}

// GetPartOrdersByShop retrieves all part orders of a shop, optionally
// filtered by status.
func (db *Database) GetPartOrdersByShop(shopID, status string) []models.PartOrder {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	parts := make([]models.PartOrder, 0)
	for _, part := range db.Database.PartOrders {
		if part.ShopID != shopID {
			continue
		}
		if status != "" && part.Status != status {
			continue
		}
		parts = append(parts, part)
	}
	return parts
}

// UpdatePartOrderStatus moves a part order to a new status.
func (db *Database) UpdatePartOrderStatus(id, newStatus string) (models.PartOrder, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	part, found := db.Database.PartOrders[id]
	if !found {
		return models.PartOrder{}, fmt.Errorf("part order with ID '%s' not found", id)
	}
	if !validPartStatus(newStatus) {
		return models.PartOrder{}, fmt.Errorf("unknown part status '%s'", newStatus)
	}

	part.Status = newStatus
	part.LastModifiedDate = time.Now().UTC()
	db.Database.PartOrders[id] = part
	log.Printf("INFO: PartOrder ID: %s moved to %s", id, newStatus)

	db.requestSave()
	return part, nil
}

// DeletePartOrder removes a part order by its ID.
func (db *Database) DeletePartOrder(id string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if _, found := db.Database.PartOrders[id]; !found {
		return fmt.Errorf("part order with ID '%s' not found", id)
	}

	delete(db.Database.PartOrders, id)
	log.Printf("INFO: Deleted PartOrder ID: %s", id)

	db.requestSave()
	return nil
}

// --- CRUD Methods: Message Templates ---

// CreateTemplate adds a new message template.
func (db *Database) CreateTemplate(tmpl models.MessageTemplate) (models.MessageTemplate, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if tmpl.ShopID == "" {
		return models.MessageTemplate{}, fmt.Errorf("template must have a shop_id")
	}
	if tmpl.Kind != "sms" && tmpl.Kind != "email" {
		return models.MessageTemplate{}, fmt.Errorf("template kind must be 'sms' or 'email', got '%s'", tmpl.Kind)
	}
	if tmpl.Name == "" {
		return models.MessageTemplate{}, fmt.Errorf("template must have a name")
	}

	tmpl.ID = utils.GenerateDashlessUUID()
	now := time.Now().UTC()
	tmpl.CreationDate = now
	tmpl.LastModifiedDate = now

	db.Database.Templates[tmpl.ID] = tmpl
	log.Printf("INFO: Created MessageTemplate ID: %s (%s/%s)", tmpl.ID, tmpl.Kind, tmpl.Name)

	db.requestSave()
	return tmpl, nil
}

// GetTemplateByID retrieves a template by its ID.
func (db *Database) GetTemplateByID(id string) (models.MessageTemplate, bool) {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	tmpl, found := db.Database.Templates[id]
	return tmpl, found
}

// GetTemplatesByShop retrieves the templates of a shop, optionally filtered
// by kind ("sms" or "email").
func (db *Database) GetTemplatesByShop(shopID, kind string) []models.MessageTemplate {
	db.Database.Mu.RLock()
	defer db.Database.Mu.RUnlock()

	templates := make([]models.MessageTemplate, 0)
	for _, tmpl := range db.Database.Templates {
		if tmpl.ShopID != shopID {
			continue
		}
		if kind != "" && tmpl.Kind != kind {
			continue
		}
		templates = append(templates, tmpl)
	}
	return templates
}

// UpdateTemplate updates an existing template.
func (db *Database) UpdateTemplate(id string, updated models.MessageTemplate) (models.MessageTemplate, error) {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	existing, found := db.Database.Templates[id]
	if !found {
		return models.MessageTemplate{}, fmt.Errorf("template with ID '%s' not found", id)
	}

	existing.Name = updated.Name
	existing.Subject = updated.Subject
	existing.Body = updated.Body
	existing.LastModifiedDate = time.Now().UTC()

	db.Database.Templates[id] = existing
	log.Printf("INFO: Updated MessageTemplate ID: %s", id)

	db.requestSave()
	return existing, nil
}

// DeleteTemplate removes a template by its ID.
func (db *Database) DeleteTemplate(id string) error {
	db.Database.Mu.Lock()
	defer db.Database.Mu.Unlock()

	if _, found := db.Database.Templates[id]; !found {
		return fmt.Errorf("template with ID '%s' not found", id)
	}

	delete(db.Database.Templates, id)
	log.Printf("INFO: Deleted MessageTemplate ID: %s", id)

	db.requestSave()
	return nil
}
