package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brettbedarf/simfs/internal/util"
	"gopkg.in/yaml.v3"
)

// CLI style verbosity values accepted by ConfigOverride.LogLvl
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	DefaultActor      = "user"
	DefaultPrivileged = false
	DefaultAdmin      = false

	// DefaultSnapshotCap is how many snapshots are retained, most recent first
	DefaultSnapshotCap = 5

	// DefaultRepairProbability is the chance a corrupted file is repaired rather than removed
	DefaultRepairProbability = 0.7

	DefaultCorruptMinFiles = 1
	DefaultCorruptMaxFiles = 3

	// Share of a file's bytes overwritten when it is corrupted
	DefaultCorruptMinRatio = 0.2
	DefaultCorruptMaxRatio = 0.5

	// DefaultSaveTimeout bounds a single gateway save, in seconds
	DefaultSaveTimeout = 5.0

	DefaultStoreType = "memory"
	DefaultFsName    = "simfs"
	DefaultName      = "simfs"
)

// Config contains runtime configuration values for the simulated file system.
type Config struct {
	MountOptions
	Store StoreConfig

	LogLvl util.LogLevel // Minimum log level (Default info)

	Actor      string // Name of the acting user (Default "user")
	Privileged bool   // Whether the actor gets group permissions on nodes it does not own (Default false)
	Admin      bool   // Admin override; bypasses permission checks (Default false)

	SnapshotCap       int     // Snapshots kept in history (Default 5)
	RepairProbability float64 // Per-file chance of repair vs removal (Default 0.7)
	CorruptMinFiles   int     // Fewest files hit by a random corruption (Default 1)
	CorruptMaxFiles   int     // Most files hit by a random corruption (Default 3)
	CorruptMinRatio   float64 // Smallest share of bytes overwritten (Default 0.2)
	CorruptMaxRatio   float64 // Largest share of bytes overwritten (Default 0.5)
	SaveTimeout       float64 // Gateway save timeout in seconds (Default 5.0)

	MetricsAddr string // Listen address for the Prometheus handler; empty disables it
}

// SaveTimeoutDuration returns SaveTimeout as a time.Duration
func (c *Config) SaveTimeoutDuration() time.Duration {
	return time.Duration(c.SaveTimeout * float64(time.Second))
}

// Validate reports settings the file system cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Actor == "" {
		errs = append(errs, errors.New("actor must not be empty"))
	}
	if c.SnapshotCap < 1 {
		errs = append(errs, fmt.Errorf("snapshot_cap must be at least 1, got %d", c.SnapshotCap))
	}
	if c.RepairProbability < 0 || c.RepairProbability > 1 {
		errs = append(errs, fmt.Errorf("repair_probability must be within [0,1], got %v", c.RepairProbability))
	}
	if c.CorruptMinFiles < 1 || c.CorruptMaxFiles < c.CorruptMinFiles {
		errs = append(errs, fmt.Errorf("invalid corrupt file range [%d,%d]", c.CorruptMinFiles, c.CorruptMaxFiles))
	}
	if c.CorruptMinRatio < 0 || c.CorruptMaxRatio > 1 || c.CorruptMaxRatio < c.CorruptMinRatio {
		errs = append(errs, fmt.Errorf("invalid corrupt ratio range [%v,%v]", c.CorruptMinRatio, c.CorruptMaxRatio))
	}
	return errors.Join(errs...)
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a CLI verbosity between 1 (error) and 5 (trace), not a util.LogLevel
	LogLvl            *int         `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	FsName            *string      `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name              *string      `yaml:"name,omitempty" json:"name,omitempty"`
	Debug             *bool        `yaml:"debug,omitempty" json:"debug,omitempty"`
	Actor             *string      `yaml:"actor,omitempty" json:"actor,omitempty"`
	Privileged        *bool        `yaml:"privileged,omitempty" json:"privileged,omitempty"`
	Admin             *bool        `yaml:"admin,omitempty" json:"admin,omitempty"`
	SnapshotCap       *int         `yaml:"snapshot_cap,omitempty" json:"snapshot_cap,omitempty"`
	RepairProbability *float64     `yaml:"repair_probability,omitempty" json:"repair_probability,omitempty"`
	CorruptMinFiles   *int         `yaml:"corrupt_min_files,omitempty" json:"corrupt_min_files,omitempty"`
	CorruptMaxFiles   *int         `yaml:"corrupt_max_files,omitempty" json:"corrupt_max_files,omitempty"`
	CorruptMinRatio   *float64     `yaml:"corrupt_min_ratio,omitempty" json:"corrupt_min_ratio,omitempty"`
	CorruptMaxRatio   *float64     `yaml:"corrupt_max_ratio,omitempty" json:"corrupt_max_ratio,omitempty"`
	SaveTimeout       *float64     `yaml:"save_timeout,omitempty" json:"save_timeout,omitempty"`
	MetricsAddr       *string      `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
	Store             *StoreConfig `yaml:"store,omitempty" json:"store,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		Store:             StoreConfig{Type: DefaultStoreType},
		LogLvl:            DefaultLogLvl,
		Actor:             DefaultActor,
		Privileged:        DefaultPrivileged,
		Admin:             DefaultAdmin,
		SnapshotCap:       DefaultSnapshotCap,
		RepairProbability: DefaultRepairProbability,
		CorruptMinFiles:   DefaultCorruptMinFiles,
		CorruptMaxFiles:   DefaultCorruptMaxFiles,
		CorruptMinRatio:   DefaultCorruptMinRatio,
		CorruptMaxRatio:   DefaultCorruptMaxRatio,
		SaveTimeout:       DefaultSaveTimeout,
	}
}

// NewConfig creates a Config from defaults with override applied on top.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = util.VerbosityToLevel(*override.LogLvl)
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.Actor != nil {
		c.Actor = *override.Actor
	}
	if override.Privileged != nil {
		c.Privileged = *override.Privileged
	}
	if override.Admin != nil {
		c.Admin = *override.Admin
	}
	if override.SnapshotCap != nil {
		c.SnapshotCap = *override.SnapshotCap
	}
	if override.RepairProbability != nil {
		c.RepairProbability = *override.RepairProbability
	}
	if override.CorruptMinFiles != nil {
		c.CorruptMinFiles = *override.CorruptMinFiles
	}
	if override.CorruptMaxFiles != nil {
		c.CorruptMaxFiles = *override.CorruptMaxFiles
	}
	if override.CorruptMinRatio != nil {
		c.CorruptMinRatio = *override.CorruptMinRatio
	}
	if override.CorruptMaxRatio != nil {
		c.CorruptMaxRatio = *override.CorruptMaxRatio
	}
	if override.SaveTimeout != nil {
		c.SaveTimeout = *override.SaveTimeout
	}
	if override.MetricsAddr != nil {
		c.MetricsAddr = *override.MetricsAddr
	}
	if override.Store != nil {
		c.Store = *override.Store
	}
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
