package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds process-level settings read from the environment.
type Config struct {
	Server struct {
		Port int `envconfig:"PORT" default:"8080"`
	}

	Google struct {
		// Inline service-account key material. Takes precedence over the
		// key file when both are set.
		ServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
		// Path to a service-account key file.
		CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS" default:"credentials.json"`
	}

	Profiles struct {
		File string `envconfig:"PROFILES_FILE" default:"profiles.json"`
	}

	Scan struct {
		// Gemini model used for receipt prefill suggestions. Scanning is
		// disabled when GEMINI_API_KEY is not set.
		Model  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
		APIKey string `envconfig:"GEMINI_API_KEY"`
	}

	Archive struct {
		ProjectID string `envconfig:"BQ_PROJECT_ID"`
		Dataset   string `envconfig:"BQ_DATASET" default:"finance"`
		Table     string `envconfig:"BQ_TABLE" default:"receipts"`
	}
}

// Load reads settings from the environment, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	return &cfg, nil
}

// ScanEnabled reports whether the Gemini scan feature is configured.
func (c *Config) ScanEnabled() bool {
	return c.Scan.APIKey != ""
}

// Profile maps one selectable identity to its storage destinations.
type Profile struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	DriveFolderID string `json:"drive_folder_id"`
}

// Profiles is the static deployment mapping loaded once at startup: which
// spreadsheet and Drive folder each profile writes to, plus the category
// list offered by the form.
type Profiles struct {
	Profiles   map[string]Profile `json:"profiles"`
	Categories []string           `json:"categories"`
}

var defaultCategories = []string{
	"Food",
	"Transportation",
	"Entertainment",
	"Utilities",
	"Shopping",
}

// LoadProfiles reads and validates the profiles file.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read profiles file %q: %w", path, err)
	}

	var p Profiles
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("config: parse profiles file %q: %w", path, err)
	}

	if len(p.Profiles) == 0 {
		return nil, fmt.Errorf("config: profiles file %q defines no profiles", path)
	}
	for name, prof := range p.Profiles {
		if prof.SpreadsheetID == "" || prof.DriveFolderID == "" {
			return nil, fmt.Errorf("config: profile %q must set spreadsheet_id and drive_folder_id", name)
		}
	}

	if len(p.Categories) == 0 {
		p.Categories = defaultCategories
	}

	return &p, nil
}

// Get returns the profile for the given name.
func (p *Profiles) Get(name string) (Profile, bool) {
	prof, ok := p.Profiles[name]
	return prof, ok
}

// Names returns the profile names in stable order.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.Profiles))
	for name := range p.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
