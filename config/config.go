package config

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Config holds all configuration settings for the application.
type Config struct {
	// Server settings
	ListenAddress string
	ListenPort    string

	// Database settings
	DbFilePath   string
	SaveInterval time.Duration
	EnableBackup bool

	// Catalog settings
	CatalogFilePath string

	// Authentication settings
	JwtSecret     string // The actual secret key
	JwtSecretFile string // Path to the file containing the secret
	TokenLifetime time.Duration
	BcryptCost    int

	// SMS gateway settings
	SmsGatewayURL   string  // Empty disables outbound SMS
	SmsGatewayToken string
	SmsRatePerSec   float64 // Max outbound SMS per second
}

const (
	defaultAddress       = "0.0.0.0"
	defaultPort          = "8080"
	defaultDbFile        = "./repairbase.json" // Relative to working dir
	defaultCatalogFile   = "./catalog.json"
	defaultSaveInterval  = 3 * time.Second
	defaultEnableBackup  = true
	defaultJwtSecretFile = ""
	defaultJwtKeyFile    = "./repairbase.key" // Default file if we generate a key
	defaultTokenLifetime = 8 * time.Hour      // A work shift
	defaultBcryptCost    = 12
	defaultSmsRate       = 1.0
)

// LoadConfig loads configuration from defaults, an optional INI file,
// environment variables, and command-line flags. Precedence (highest last):
// defaults < INI file < environment < flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	// The INI file path itself can only come from flag or env.
	iniPath := flag.String("config", getEnv("REPAIRBASE_CONFIG", ""), "Path to INI configuration file (Env: REPAIRBASE_CONFIG)")

	flag.StringVar(&cfg.ListenAddress, "address", getEnv("REPAIRBASE_LISTEN_ADDRESS", defaultAddress), "Server listen address (Env: REPAIRBASE_LISTEN_ADDRESS)")
	flag.StringVar(&cfg.ListenPort, "port", getEnv("REPAIRBASE_LISTEN_PORT", defaultPort), "Server listen port (Env: REPAIRBASE_LISTEN_PORT)")
	flag.StringVar(&cfg.DbFilePath, "db-file", getEnv("REPAIRBASE_DB_FILE_PATH", defaultDbFile), "Path to the JSON database file (Env: REPAIRBASE_DB_FILE_PATH)")
	flag.StringVar(&cfg.CatalogFilePath, "catalog-file", getEnv("REPAIRBASE_CATALOG_FILE_PATH", defaultCatalogFile), "Path to the catalog key-value file (Env: REPAIRBASE_CATALOG_FILE_PATH)")
	saveIntervalStr := flag.String("save-interval", getEnv("REPAIRBASE_SAVE_INTERVAL", defaultSaveInterval.String()), "Debounce interval for saving DB (e.g., 5s, 100ms) (Env: REPAIRBASE_SAVE_INTERVAL)")
	flag.BoolVar(&cfg.EnableBackup, "enable-backup", getEnvBool("REPAIRBASE_ENABLE_BACKUP", defaultEnableBackup), "Enable database backup (.bak file) before saving (Env: REPAIRBASE_ENABLE_BACKUP)")
	flag.StringVar(&cfg.JwtSecretFile, "jwt-secret-file", getEnv("REPAIRBASE_JWT_SECRET_FILE", defaultJwtSecretFile), "Path to file containing JWT secret key (Env: REPAIRBASE_JWT_SECRET_FILE)")
	flag.StringVar(&cfg.SmsGatewayURL, "sms-gateway-url", getEnv("REPAIRBASE_SMS_GATEWAY_URL", ""), "HTTP SMS gateway endpoint; empty disables SMS (Env: REPAIRBASE_SMS_GATEWAY_URL)")
	flag.StringVar(&cfg.SmsGatewayToken, "sms-gateway-token", getEnv("REPAIRBASE_SMS_GATEWAY_TOKEN", ""), "Bearer token for the SMS gateway (Env: REPAIRBASE_SMS_GATEWAY_TOKEN)")

	// Non-configurable defaults
	cfg.TokenLifetime = defaultTokenLifetime
	cfg.BcryptCost = defaultBcryptCost
	cfg.SmsRatePerSec = defaultSmsRate

	flag.Parse()

	// --- INI file layer ---
	// Applied only for values still at their built-in default, so flags and
	// env vars keep precedence over the file.
	if *iniPath != "" {
		if err := applyINI(cfg, *iniPath, saveIntervalStr); err != nil {
			return nil, err
		}
	}

	// Parse duration after flags and file are settled
	var err error
	cfg.SaveInterval, err = time.ParseDuration(*saveIntervalStr)
	if err != nil {
		log.Printf("WARN: Invalid save-interval duration '%s'. Using default %s. Error: %v", *saveIntervalStr, defaultSaveInterval, err)
		cfg.SaveInterval = defaultSaveInterval
	}

	// --- JWT Secret Handling ---
	// Priority: File (CLI/Env) > Env Var > Default Key File > Generate
	var secretSource string

	// 1. Explicit file path (from flag or REPAIRBASE_JWT_SECRET_FILE env)
	if cfg.JwtSecretFile != "" {
		secretBytes, err := os.ReadFile(cfg.JwtSecretFile)
		if err == nil {
			cfg.JwtSecret = strings.TrimSpace(string(secretBytes))
			if cfg.JwtSecret != "" {
				log.Printf("INFO: Loaded JWT secret from specified file: %s", cfg.JwtSecretFile)
				secretSource = fmt.Sprintf("File (%s)", cfg.JwtSecretFile)
			} else {
				log.Printf("WARN: Specified JWT secret file '%s' is empty or contains only whitespace. Ignoring.", cfg.JwtSecretFile)
			}
		} else {
			log.Printf("WARN: Failed to read specified JWT secret file '%s': %v. Checking other sources.", cfg.JwtSecretFile, err)
		}
	}

	// 2. Environment variable (REPAIRBASE_JWT_SECRET) if not loaded from file
	if cfg.JwtSecret == "" {
		cfg.JwtSecret = strings.TrimSpace(getEnv("REPAIRBASE_JWT_SECRET", ""))
		if cfg.JwtSecret != "" {
			log.Printf("INFO: Loaded JWT secret from REPAIRBASE_JWT_SECRET environment variable.")
			secretSource = "Environment Variable (REPAIRBASE_JWT_SECRET)"
		}
	}

	// 3. Default key file if still no secret
	if cfg.JwtSecret == "" {
		secretBytes, err := os.ReadFile(defaultJwtKeyFile)
		if err == nil {
			cfg.JwtSecret = strings.TrimSpace(string(secretBytes))
			if cfg.JwtSecret != "" {
				log.Printf("INFO: Loaded JWT secret from default key file: %s", defaultJwtKeyFile)
				secretSource = fmt.Sprintf("Default Key File (%s)", defaultJwtKeyFile)
			} else {
				log.Printf("WARN: Default JWT key file '%s' is empty or contains only whitespace. Will attempt generation.", defaultJwtKeyFile)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("WARN: Failed to read default JWT key file '%s': %v. Will attempt generation.", defaultJwtKeyFile, err)
		}
	}

	// 4. Generate secret if still not found and save to default file
	if cfg.JwtSecret == "" {
		log.Printf("INFO: JWT secret not found via file, environment variable, or default key file. Generating a new secret...")
		newSecret, err := generateRandomKey(32) // 256-bit key
		if err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.JwtSecret = newSecret

		err = os.WriteFile(defaultJwtKeyFile, []byte(newSecret), 0600) // Read/write for owner only
		if err != nil {
			log.Printf("WARN: Failed to save generated JWT secret to '%s': %v. The server will use the generated key for this session only.", defaultJwtKeyFile, err)
			secretSource = "Generated (In Memory)"
		} else {
			log.Printf("INFO: Successfully generated and saved new JWT secret to: %s", defaultJwtKeyFile)
			secretSource = fmt.Sprintf("Generated & Saved (%s)", defaultJwtKeyFile)
		}
	}

	if cfg.JwtSecret == "" {
		return nil, fmt.Errorf("failed to obtain a valid JWT secret after checking all sources and attempting generation")
	}

	// --- Path Validation ---
	if err := resolveFilePath(&cfg.DbFilePath, "db-file"); err != nil {
		return nil, err
	}
	if err := resolveFilePath(&cfg.CatalogFilePath, "catalog-file"); err != nil {
		return nil, err
	}

	logConfiguration(cfg, secretSource)

	return cfg, nil
}

// applyINI overlays values from an INI file onto cfg, touching only fields
// that still hold their built-in defaults.
func applyINI(cfg *Config, path string, saveIntervalStr *string) error {
	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config file '%s': %w", path, err)
	}
	log.Printf("INFO: Loaded configuration file: %s", path)

	server := file.Section("server")
	if cfg.ListenAddress == defaultAddress && server.HasKey("address") {
		cfg.ListenAddress = server.Key("address").String()
	}
	if cfg.ListenPort == defaultPort && server.HasKey("port") {
		cfg.ListenPort = server.Key("port").String()
	}

	database := file.Section("database")
	if cfg.DbFilePath == defaultDbFile && database.HasKey("file") {
		cfg.DbFilePath = database.Key("file").String()
	}
	if cfg.CatalogFilePath == defaultCatalogFile && database.HasKey("catalog_file") {
		cfg.CatalogFilePath = database.Key("catalog_file").String()
	}
	if *saveIntervalStr == defaultSaveInterval.String() && database.HasKey("save_interval") {
		*saveIntervalStr = database.Key("save_interval").String()
	}
	if database.HasKey("enable_backup") {
		if v, err := database.Key("enable_backup").Bool(); err == nil && cfg.EnableBackup == defaultEnableBackup {
			cfg.EnableBackup = v
		}
	}

	auth := file.Section("auth")
	if cfg.JwtSecretFile == defaultJwtSecretFile && auth.HasKey("jwt_secret_file") {
		cfg.JwtSecretFile = auth.Key("jwt_secret_file").String()
	}

	sms := file.Section("sms")
	if cfg.SmsGatewayURL == "" && sms.HasKey("gateway_url") {
		cfg.SmsGatewayURL = sms.Key("gateway_url").String()
	}
	if cfg.SmsGatewayToken == "" && sms.HasKey("gateway_token") {
		cfg.SmsGatewayToken = sms.Key("gateway_token").String()
	}
	if sms.HasKey("rate_per_sec") {
		if v, err := sms.Key("rate_per_sec").Float64(); err == nil && v > 0 {
			cfg.SmsRatePerSec = v
		}
	}

	return nil
}

// resolveFilePath makes the path absolute and rejects paths pointing at a
// directory. A missing file is fine, it will be created on first save.
func resolveFilePath(path *string, name string) error {
	abs, err := filepath.Abs(*path)
	if err != nil {
		return fmt.Errorf("could not determine absolute path for %s '%s': %w", name, *path, err)
	}
	*path = abs

	fileInfo, err := os.Stat(*path)
	if err == nil && fileInfo.IsDir() {
		return fmt.Errorf("%s path '%s' points to a directory, not a file", name, *path)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// Recognizes "true", "1", "yes" (case-insensitive) as true.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
		log.Printf("WARN: Invalid boolean value for environment variable %s: '%s'. Using default: %t", key, value, fallback)
	}
	return fallback
}

// logConfiguration prints the loaded configuration settings.
func logConfiguration(cfg *Config, secretSource string) {
	log.Println("--- Configuration ---")
	log.Printf("Server Address: %s", cfg.ListenAddress)
	log.Printf("Server Port: %s", cfg.ListenPort)
	log.Printf("Database File: %s", cfg.DbFilePath)
	log.Printf("Catalog File: %s", cfg.CatalogFilePath)
	log.Printf("Database Save Interval: %s", cfg.SaveInterval)
	log.Printf("Database Backup Enabled: %t", cfg.EnableBackup)
	log.Printf("JWT Secret Source: %s", secretSource)
	log.Printf("JWT Token Lifetime: %s", cfg.TokenLifetime)
	log.Printf("Bcrypt Cost: %d", cfg.BcryptCost)
	if cfg.SmsGatewayURL != "" {
		log.Printf("SMS Gateway: %s (%.1f msg/s)", cfg.SmsGatewayURL, cfg.SmsRatePerSec)
	} else {
		log.Printf("SMS Gateway: disabled")
	}
	log.Println("---------------------")
}

// generateRandomKey generates a cryptographically secure random key of the
// specified byte length and returns it as a hex-encoded string.
func generateRandomKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
