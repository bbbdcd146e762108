package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mtlprog/realty/internal/domain"
)

// Source kinds.
const (
	SourceGviz     = "gviz"
	SourceSheets   = "sheets"
	SourceWorkbook = "xlsx"
	SourcePostgres = "postgres"
)

// Export kinds.
const (
	ExportNone     = "none"
	ExportSheets   = "sheets"
	ExportWorkbook = "xlsx"
)

// DefaultSourceTable is the Postgres source table created by the bundled migrations.
const DefaultSourceTable = "complex_prices"

// defaultSnapshotIDs are the dated sheets of the tracked price spreadsheet.
var defaultSnapshotIDs = []string{
	"24.06.07", "24.06.26", "24.07.18", "24.07.31", "24.08.22",
	"24.09.25", "24.10.22", "24.11.14", "24.12.10",
	"25.01.13", "25.02.03", "25.04.19", "25.05.23", "25.06.09",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SourceKind            string
	SpreadsheetID         string
	GvizURL               string
	SnapshotIDs           []string
	GoogleCredentialsJSON string
	WorkbookPath          string
	DatabaseURL           string
	SourceTable           string
	SourceRetryMax        int
	SourceRetryBaseDelay  time.Duration
	FetchConcurrency      int
	ColumnMappingFile     string
	ExportKind            string
	ExportSpreadsheetID   string
	ExportPath            string
	ChartFontPath         string
	HTTPPort              string
	AdminAPIKey           string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present;
// variables already set in the environment take precedence.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	return Config{
		SourceKind:            envOrDefault("SOURCE_KIND", SourceGviz),
		SpreadsheetID:         envOrDefault("SPREADSHEET_ID", "1cUZ9-bMzeokaAGb84YAh--KngCM0U0-9pJgXHXrJ0U8"),
		GvizURL:               envOrDefault("GVIZ_URL", "https://docs.google.com"),
		SnapshotIDs:           envOrDefaultList("SNAPSHOT_IDS", defaultSnapshotIDs),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_CREDENTIALS_JSON"),
		WorkbookPath:          os.Getenv("WORKBOOK_PATH"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		SourceTable:           envOrDefault("SOURCE_TABLE", DefaultSourceTable),
		SourceRetryMax:        envOrDefaultInt("SOURCE_RETRY_MAX", 3),
		SourceRetryBaseDelay:  envOrDefaultDuration("SOURCE_RETRY_BASE_DELAY", 2*time.Second),
		FetchConcurrency:      envOrDefaultInt("FETCH_CONCURRENCY", 4),
		ColumnMappingFile:     os.Getenv("COLUMN_MAPPING_FILE"),
		ExportKind:            envOrDefault("EXPORT_KIND", ExportNone),
		ExportSpreadsheetID:   os.Getenv("EXPORT_SPREADSHEET_ID"),
		ExportPath:            envOrDefault("EXPORT_PATH", "realty-export.xlsx"),
		ChartFontPath:         os.Getenv("CHART_FONT_PATH"),
		HTTPPort:              envOrDefault("HTTP_PORT", "8080"),
		AdminAPIKey:           os.Getenv("ADMIN_API_KEY"),
	}
}

// Validate checks that the settings required by the chosen source and export are present.
func (c Config) Validate() error {
	switch c.SourceKind {
	case SourceGviz:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("SPREADSHEET_ID is required for source %s", c.SourceKind)
		}
	case SourceSheets:
		if c.SpreadsheetID == "" || c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON are required for source %s", c.SourceKind)
		}
	case SourceWorkbook:
		if c.WorkbookPath == "" {
			return fmt.Errorf("WORKBOOK_PATH is required for source %s", c.SourceKind)
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for source %s", c.SourceKind)
		}
	default:
		return fmt.Errorf("unknown SOURCE_KIND %q", c.SourceKind)
	}

	switch c.ExportKind {
	case ExportNone, "":
	case ExportSheets:
		if c.ExportSpreadsheetID == "" || c.GoogleCredentialsJSON == "" {
			return fmt.Errorf("EXPORT_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON are required for export %s", c.ExportKind)
		}
	case ExportWorkbook:
		if c.ExportPath == "" {
			return fmt.Errorf("EXPORT_PATH is required for export %s", c.ExportKind)
		}
	default:
		return fmt.Errorf("unknown EXPORT_KIND %q", c.ExportKind)
	}
	return nil
}

// OwnsSourceTable reports whether the Postgres source table is the one the
// bundled migrations create. Any other table is managed outside this service.
func (c Config) OwnsSourceTable() bool {
	return c.SourceTable == DefaultSourceTable
}

// LoadColumnMapping reads the YAML column mapping file, or returns the
// default mapping when path is empty. Missing entries fall back to defaults.
func LoadColumnMapping(path string) (domain.ColumnMapping, error) {
	if path == "" {
		return domain.DefaultColumnMapping, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ColumnMapping{}, fmt.Errorf("reading column mapping %s: %w", path, err)
	}

	var mapping domain.ColumnMapping
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return domain.ColumnMapping{}, fmt.Errorf("parsing column mapping %s: %w", path, err)
	}
	return mapping.WithDefaults(), nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
