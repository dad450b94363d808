package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/laser/las"
)

// DefaultConfigPath is the path to the canonical reader defaults file.
const DefaultConfigPath = "config/reader.defaults.json"

// ReaderConfig holds the knobs for decoding, surveying and cataloguing LAS
// files. Every field is optional; the Get* accessors supply defaults for
// anything the JSON leaves out.
type ReaderConfig struct {
	// Streaming decoder
	ScratchBytes *int `json:"scratch_bytes,omitempty"`

	// Survey
	BatchPoints      *int     `json:"batch_points,omitempty"`
	CheckBounds      *bool    `json:"check_bounds,omitempty"`
	BoundsTolerance  *float64 `json:"bounds_tolerance,omitempty"`
	PreviewMaxPoints *int     `json:"preview_max_points,omitempty"`
	HistogramBins    *int     `json:"histogram_bins,omitempty"`

	// Catalog
	CatalogBusyTimeout *string `json:"catalog_busy_timeout,omitempty"` // duration string like "5s"

	// Log streams of the las package
	LogDiag  *bool `json:"log_diag,omitempty"`
	LogTrace *bool `json:"log_trace,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyReaderConfig returns a ReaderConfig with all fields set to nil.
func EmptyReaderConfig() *ReaderConfig {
	return &ReaderConfig{}
}

// LoadReaderConfig loads a ReaderConfig from a JSON file.
// The file must have a .json extension and be at most 1MB. Fields omitted
// from the file fall back to their defaults.
func LoadReaderConfig(path string) (*ReaderConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyReaderConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *ReaderConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from las/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadReaderConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *ReaderConfig) Validate() error {
	if c.ScratchBytes != nil && *c.ScratchBytes <= 0 {
		return fmt.Errorf("scratch_bytes must be positive, got %d", *c.ScratchBytes)
	}
	if c.BatchPoints != nil && *c.BatchPoints <= 0 {
		return fmt.Errorf("batch_points must be positive, got %d", *c.BatchPoints)
	}
	if c.BoundsTolerance != nil && *c.BoundsTolerance < 0 {
		return fmt.Errorf("bounds_tolerance must be non-negative, got %f", *c.BoundsTolerance)
	}
	if c.PreviewMaxPoints != nil && *c.PreviewMaxPoints < 0 {
		return fmt.Errorf("preview_max_points must be non-negative, got %d", *c.PreviewMaxPoints)
	}
	if c.HistogramBins != nil && *c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be at least 1, got %d", *c.HistogramBins)
	}
	if c.CatalogBusyTimeout != nil && *c.CatalogBusyTimeout != "" {
		if _, err := time.ParseDuration(*c.CatalogBusyTimeout); err != nil {
			return fmt.Errorf("invalid catalog_busy_timeout '%s': %w", *c.CatalogBusyTimeout, err)
		}
	}
	return nil
}

// GetScratchBytes returns the scratch_bytes value or the default.
func (c *ReaderConfig) GetScratchBytes() int {
	if c.ScratchBytes == nil {
		return las.DefaultScratchSize
	}
	return *c.ScratchBytes
}

// GetBatchPoints returns the batch_points value or the default.
func (c *ReaderConfig) GetBatchPoints() int {
	if c.BatchPoints == nil {
		return 65536
	}
	return *c.BatchPoints
}

// GetCheckBounds returns the check_bounds value or the default.
func (c *ReaderConfig) GetCheckBounds() bool {
	if c.CheckBounds == nil {
		return true
	}
	return *c.CheckBounds
}

// GetBoundsTolerance returns the bounds_tolerance value or the default.
func (c *ReaderConfig) GetBoundsTolerance() float64 {
	if c.BoundsTolerance == nil {
		return 0.01
	}
	return *c.BoundsTolerance
}

// GetPreviewMaxPoints returns the preview_max_points value or the default.
func (c *ReaderConfig) GetPreviewMaxPoints() int {
	if c.PreviewMaxPoints == nil {
		return 20000
	}
	return *c.PreviewMaxPoints
}

// GetHistogramBins returns the histogram_bins value or the default.
func (c *ReaderConfig) GetHistogramBins() int {
	if c.HistogramBins == nil {
		return 32
	}
	return *c.HistogramBins
}

// GetCatalogBusyTimeout parses and returns the CatalogBusyTimeout.
func (c *ReaderConfig) GetCatalogBusyTimeout() time.Duration {
	if c.CatalogBusyTimeout == nil || *c.CatalogBusyTimeout == "" {
		return 5 * time.Second // default
	}
	d, err := time.ParseDuration(*c.CatalogBusyTimeout)
	if err != nil {
		return 5 * time.Second // default on parse error
	}
	return d
}

// GetLogDiag returns the log_diag value or the default.
func (c *ReaderConfig) GetLogDiag() bool {
	if c.LogDiag == nil {
		return false
	}
	return *c.LogDiag
}

// GetLogTrace returns the log_trace value or the default.
func (c *ReaderConfig) GetLogTrace() bool {
	if c.LogTrace == nil {
		return false
	}
	return *c.LogTrace
}

// Options returns the streaming decoder options selected by the config.
func (c *ReaderConfig) Options() []las.Option {
	return []las.Option{las.WithScratchSize(c.GetScratchBytes())}
}

// ApplyLogWriters routes the las log streams to w. The ops stream is always
// enabled; diag and trace follow log_diag and log_trace.
func (c *ReaderConfig) ApplyLogWriters(w io.Writer) {
	var diag, trace io.Writer
	if c.GetLogDiag() {
		diag = w
	}
	if c.GetLogTrace() {
		trace = w
	}
	las.SetLogWriters(w, diag, trace)
}
