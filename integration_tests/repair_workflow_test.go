package integration_tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	serverBinaryPath = "./app_binary"           // Relative to integration_tests directory
	testDbPath       = "./test_repairbase.json" // Relative to integration_tests directory
	testCatalogPath  = "./test_catalog.json"
	testPort         = "8091"
	serverBaseURL    = "http://localhost:" + testPort
	testJwtSecret    = "a-very-secure-secret-for-testing-only"
	readinessTimeout = 15 * time.Second
	readinessPoll    = 200 * time.Millisecond
)

var httpClient = &http.Client{
	Timeout: 10 * time.Second,
}

// --- Test Main: Setup & Teardown ---

func TestMain(m *testing.M) {
	log.Println("INFO: Starting integration test setup...")

	log.Println("INFO: Building server binary...")
	buildCmd := exec.Command("go", "build", "-o", serverBinaryPath, "..")
	buildCmd.Dir = "."
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Fatalf("FATAL: Failed to build server binary: %v\nOutput:\n%s", err, string(buildOutput))
	}
	log.Printf("INFO: Server binary built successfully at %s", serverBinaryPath)

	absBinaryPath, _ := filepath.Abs(serverBinaryPath)
	absDbPath, _ := filepath.Abs(testDbPath)
	absCatalogPath, _ := filepath.Abs(testCatalogPath)

	env := append(os.Environ(),
		fmt.Sprintf("REPAIRBASE_DB_FILE_PATH=%s", absDbPath),
		fmt.Sprintf("REPAIRBASE_CATALOG_FILE_PATH=%s", absCatalogPath),
		fmt.Sprintf("REPAIRBASE_JWT_SECRET=%s", testJwtSecret),
		fmt.Sprintf("REPAIRBASE_LISTEN_PORT=%s", testPort),
		"REPAIRBASE_LISTEN_ADDRESS=0.0.0.0",
		"REPAIRBASE_SAVE_INTERVAL=100ms", // Save quickly during tests
		"REPAIRBASE_ENABLE_BACKUP=false",
	)

	log.Printf("INFO: Starting server process: %s (port %s, DB: %s)", absBinaryPath, testPort, absDbPath)
	serverCmd := exec.Command(absBinaryPath)
	serverCmd.Env = env
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	err = serverCmd.Start()
	if err != nil {
		log.Fatalf("FATAL: Failed to start server process: %v", err)
	}
	log.Printf("INFO: Server process started (PID: %d)", serverCmd.Process.Pid)

	log.Printf("INFO: Waiting for server to become ready at %s...", serverBaseURL)
	ready := waitForServerReady(serverBaseURL+"/swagger/index.html", readinessTimeout)
	if !ready {
		_ = serverCmd.Process.Signal(syscall.SIGTERM)
		time.Sleep(100 * time.Millisecond)
		_ = serverCmd.Process.Kill()
		log.Fatalf("FATAL: Server did not become ready within %v", readinessTimeout)
	}
	log.Println("INFO: Server is ready!")

	log.Println("INFO: Running test functions...")
	exitCode := m.Run()
	log.Printf("INFO: Test functions finished with exit code %d.", exitCode)

	log.Println("INFO: Tearing down - stopping server process...")
	err = serverCmd.Process.Signal(syscall.SIGTERM)
	if err != nil {
		log.Printf("WARN: Failed to send SIGTERM to server process: %v", err)
	} else {
		time.Sleep(500 * time.Millisecond)
	}
	err = serverCmd.Process.Kill()
	if err != nil && !strings.Contains(err.Error(), "process already finished") {
		log.Printf("WARN: Failed to kill server process: %v", err)
	} else {
		log.Println("INFO: Server process stopped.")
	}
	_, _ = serverCmd.Process.Wait()

	log.Println("INFO: Cleaning up test artifacts...")
	for _, artifact := range []string{serverBinaryPath, testDbPath, testDbPath + ".bak", testCatalogPath} {
		if err := os.Remove(artifact); err != nil && !os.IsNotExist(err) {
			log.Printf("WARN: Failed to remove test artifact '%s': %v", artifact, err)
		}
	}

	log.Println("INFO: Integration test teardown complete.")
	os.Exit(exitCode)
}

// --- Helper Functions ---

// waitForServerReady polls a URL until it gets a 200 OK or times out.
func waitForServerReady(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := httpClient.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(readinessPoll)
	}
	return false
}

// makeRequest marshals the body, sends the request with the bearer token and
// decodes the response into targetStruct when one is given. The caller checks
// resp.StatusCode.
func makeRequest(t *testing.T, method, urlPath string, authToken string, body interface{}, targetStruct interface{}) (*http.Response, error) {
	t.Helper()

	fullURL := serverBaseURL + urlPath
	var reqBody io.Reader

	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body for %s %s: %w", method, urlPath, err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s %s: %w", method, urlPath, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request %s %s: %w", method, urlPath, err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, fmt.Errorf("failed to read response body for %s %s: %w", method, urlPath, err)
	}
	log.Printf("DEBUG: %s %s -> %s Body: %s", method, urlPath, resp.Status, string(respBodyBytes))

	if targetStruct != nil && len(respBodyBytes) > 0 {
		if err := json.Unmarshal(respBodyBytes, targetStruct); err != nil {
			return resp, fmt.Errorf("failed to decode JSON response for %s %s into %T: %w. Body: %s", method, urlPath, targetStruct, err, string(respBodyBytes))
		}
	}

	return resp, nil
}

// --- API Request/Response Structs (add more as needed) ---

type SignupRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	ShopName    string `json:"shop_name"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ProfileResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	ShopID      string `json:"shop_id"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	Profile     ProfileResponse `json:"profile"`
}

type CustomerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type CustomerResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ShopID    string `json:"shop_id"`
}

type OrderRequest struct {
	CustomerID   string         `json:"customer_id"`
	DeviceType   string         `json:"device_type"`
	Brand        string         `json:"brand"`
	Model        string         `json:"model"`
	Issues       []string       `json:"issues"`
	QuoteCents   int64          `json:"quote_cents"`
	DepositCents int64          `json:"deposit_cents"`
	Details      map[string]any `json:"device_details,omitempty"`
}

type OrderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	InvoiceNumber string `json:"invoice_number"`
	Model         string `json:"model"`
	StatusHistory []struct {
		From string `json:"from"`
		To   string `json:"to"`
		Note string `json:"note"`
	} `json:"status_history"`
}

type TransitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type PartRequest struct {
	RepairOrderID  string `json:"repair_order_id"`
	PartName       string `json:"part_name"`
	Supplier       string `json:"supplier"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type PartResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type InvoiceResponse struct {
	InvoiceNumber string `json:"invoice_number"`
	CustomerName  string `json:"customer_name"`
	TotalCents    int64  `json:"total_cents"`
	DueCents      int64  `json:"due_cents"`
}

type TemplateRequest struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Body string `json:"body"`
}

type TemplateResponse struct {
	ID string `json:"id"`
}

type PreviewRequest struct {
	OrderID string `json:"order_id"`
}

type PreviewResponse struct {
	Message string `json:"message"`
}

type StatsResponse struct {
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	OrderCount        int              `json:"order_count"`
	ByStatus          map[string]int64 `json:"by_status"`
}

// --- Test Functions ---

// TestRepairWorkflow walks one device through the counter workflow: intake,
// repair with a spare part, completion with an invoice, pickup, statistics.
func TestRepairWorkflow(t *testing.T) {
	t.Log("INFO: Starting TestRepairWorkflow...")
	assert := require.New(t)

	// Unique per run so a stale database never causes conflicts.
	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	adminUsername := "chefin_" + suffix
	adminEmail := adminUsername + "@example.com"
	adminPassword := "sicheres-passwort"

	var token string
	var customerID, orderID, partID, templateID string

	// --- Step 1: Register the shop ---
	t.Log("Step 1: Registering shop and admin account...")
	signupReq := SignupRequest{
		Username:    adminUsername,
		Email:       adminEmail,
		Password:    adminPassword,
		DisplayName: "Die Chefin",
		ShopName:    "Handy Klinik " + suffix,
	}
	resp, err := makeRequest(t, http.MethodPost, "/auth/signup", "", signupReq, nil)
	assert.NoError(err, "Step 1: Signup request failed")
	assert.Equal(http.StatusCreated, resp.StatusCode, "Step 1: Signup expected status 201")

	// --- Step 2: Log in ---
	t.Log("Step 2: Logging in...")
	var loginResp LoginResponse
	resp, err = makeRequest(t, http.MethodPost, "/auth/login", "", LoginRequest{Identifier: adminUsername, Password: adminPassword}, &loginResp)
	assert.NoError(err, "Step 2: Login request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 2: Login expected status 200")
	assert.NotEmpty(loginResp.AccessToken, "Step 2: Login token should not be empty")
	assert.Equal("admin", loginResp.Profile.Role, "Step 2: The registering user should be the shop admin")
	token = loginResp.AccessToken

	// --- Step 3: Register the customer at the counter ---
	t.Log("Step 3: Creating customer...")
	customerReq := CustomerRequest{
		FirstName: "Erika",
		LastName:  "Mustermann",
		Phone:     "+49 151 1234567",
		Email:     "erika." + suffix + "@example.com",
	}
	var customerResp CustomerResponse
	resp, err = makeRequest(t, http.MethodPost, "/customers", token, customerReq, &customerResp)
	assert.NoError(err, "Step 3: Create customer request failed")
	assert.Equal(http.StatusCreated, resp.StatusCode, "Step 3: Create customer expected status 201")
	assert.NotEmpty(customerResp.ID, "Step 3: Customer ID should not be empty")
	customerID = customerResp.ID

	// --- Step 4: Open the repair order ---
	t.Log("Step 4: Creating repair order...")
	orderReq := OrderRequest{
		CustomerID: customerID,
		DeviceType: "Smartphone",
		Brand:      "Apple",
		Model:      "iPhone 13",
		Issues:     []string{"Display defekt/gebrochen"},
		QuoteCents: 18900,
		Details:    map[string]any{"color": "Mitternachtsblau", "water_damage": false},
	}
	var orderResp OrderResponse
	resp, err = makeRequest(t, http.MethodPost, "/orders", token, orderReq, &orderResp)
	assert.NoError(err, "Step 4: Create order request failed")
	assert.Equal(http.StatusCreated, resp.StatusCode, "Step 4: Create order expected status 201")
	assert.Equal("eingegangen", orderResp.Status, "Step 4: New orders start in 'eingegangen'")
	assert.Empty(orderResp.InvoiceNumber, "Step 4: New orders carry no invoice number")
	orderID = orderResp.ID

	// --- Step 5: The technician starts the repair ---
	t.Log("Step 5: Transitioning order to 'in_bearbeitung'...")
	resp, err = makeRequest(t, http.MethodPost, "/orders/"+orderID+"/transition", token,
		TransitionRequest{Status: "in_bearbeitung", Note: "Diagnose: Displaytausch nötig"}, &orderResp)
	assert.NoError(err, "Step 5: Transition request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 5: Transition expected status 200")
	assert.Equal("in_bearbeitung", orderResp.Status)

	// --- Step 6: A spare part is needed; the order waits ---
	t.Log("Step 6: Ordering spare part and moving order to 'wartet_auf_teile'...")
	var partResp PartResponse
	resp, err = makeRequest(t, http.MethodPost, "/parts", token, PartRequest{
		RepairOrderID:  orderID,
		PartName:       "Display iPhone 13",
		Supplier:       "Teilegroßhandel Nord",
		UnitPriceCents: 8900,
	}, &partResp)
	assert.NoError(err, "Step 6: Create part request failed")
	assert.Equal(http.StatusCreated, resp.StatusCode, "Step 6: Create part expected status 201")
	assert.Equal("offen", partResp.Status, "Step 6: New parts start in 'offen'")
	partID = partResp.ID

	resp, err = makeRequest(t, http.MethodPost, "/orders/"+orderID+"/transition", token,
		TransitionRequest{Status: "wartet_auf_teile"}, &orderResp)
	assert.NoError(err, "Step 6: Transition request failed")
	assert.Equal(http.StatusOK, resp.StatusCode)

	// --- Step 7: The part arrives ---
	t.Log("Step 7: Part delivered...")
	resp, err = makeRequest(t, http.MethodPut, "/parts/"+partID+"/status", token,
		map[string]string{"status": "geliefert"}, &partResp)
	assert.NoError(err, "Step 7: Part status request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 7: Part status expected status 200")
	assert.Equal("geliefert", partResp.Status)

	// --- Step 8: Repair finished; the invoice number appears ---
	t.Log("Step 8: Transitioning order to 'fertig'...")
	resp, err = makeRequest(t, http.MethodPost, "/orders/"+orderID+"/transition", token,
		TransitionRequest{Status: "fertig"}, &orderResp)
	assert.NoError(err, "Step 8: Transition request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 8: Transition expected status 200")
	assert.Equal("fertig", orderResp.Status)
	assert.Regexp(`^RE-\d{4}-\d{6}$`, orderResp.InvoiceNumber, "Step 8: Reaching 'fertig' assigns the invoice number")

	var invoiceResp InvoiceResponse
	resp, err = makeRequest(t, http.MethodGet, "/orders/"+orderID+"/invoice", token, nil, &invoiceResp)
	assert.NoError(err, "Step 8: Invoice request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 8: Invoice expected status 200")
	assert.Equal(orderResp.InvoiceNumber, invoiceResp.InvoiceNumber)
	assert.Equal("Erika Mustermann", invoiceResp.CustomerName)
	assert.Equal(int64(18900), invoiceResp.TotalCents)

	// --- Step 9: Preview the pickup notification ---
	t.Log("Step 9: Creating and previewing the SMS template...")
	var templateResp TemplateResponse
	resp, err = makeRequest(t, http.MethodPost, "/templates", token, TemplateRequest{
		Kind: "sms",
		Name: "Fertigmeldung",
		Body: "Hallo {{.Kunde}}, Ihr {{.Modell}} ist {{.Status}}. Ihre {{.Werkstatt}}",
	}, &templateResp)
	assert.NoError(err, "Step 9: Create template request failed")
	assert.Equal(http.StatusCreated, resp.StatusCode, "Step 9: Create template expected status 201")
	templateID = templateResp.ID

	var previewResp PreviewResponse
	resp, err = makeRequest(t, http.MethodPost, "/templates/"+templateID+"/preview", token,
		PreviewRequest{OrderID: orderID}, &previewResp)
	assert.NoError(err, "Step 9: Preview request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 9: Preview expected status 200")
	assert.Contains(previewResp.Message, "Erika Mustermann")
	assert.Contains(previewResp.Message, "fertig zur Abholung")

	// --- Step 10: The customer picks the device up ---
	t.Log("Step 10: Transitioning order to 'abgeholt'...")
	resp, err = makeRequest(t, http.MethodPost, "/orders/"+orderID+"/transition", token,
		TransitionRequest{Status: "abgeholt", Note: "Bar bezahlt"}, &orderResp)
	assert.NoError(err, "Step 10: Transition request failed")
	assert.Equal(http.StatusOK, resp.StatusCode)
	assert.Equal(orderResp.InvoiceNumber, invoiceResp.InvoiceNumber, "Step 10: The invoice number never changes after assignment")

	// --- Step 11: The day's numbers ---
	t.Log("Step 11: Checking revenue statistics...")
	var statsResp StatsResponse
	resp, err = makeRequest(t, http.MethodGet, "/stats", token, nil, &statsResp)
	assert.NoError(err, "Step 11: Stats request failed")
	assert.Equal(http.StatusOK, resp.StatusCode, "Step 11: Stats expected status 200")
	assert.Equal(int64(18900), statsResp.TotalRevenueCents, "Step 11: The picked-up order counts as revenue")
	assert.Equal(1, statsResp.OrderCount)
	assert.Equal(int64(18900), statsResp.ByStatus["abgeholt"])

	t.Log("INFO: TestRepairWorkflow completed successfully!")
}
