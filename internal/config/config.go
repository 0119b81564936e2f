// Package config loads a simulation run's parameters from a YAML file
// using viper, the same config-loading style as this module's other
// components.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/mnohosten/pagingsim/internal/pager"
)

// RunConfig is the on-disk shape of a simulation run's parameters.
// memory_kb and page_kb are the external inputs; total_frames is
// derived, never configured directly.
type RunConfig struct {
	Memory struct {
		MemoryKB int `mapstructure:"memory_kb"`
		PageKB   int `mapstructure:"page_kb"`
	} `mapstructure:"memory"`
	VirtualPages int    `mapstructure:"virtual_pages"`
	Policy       string `mapstructure:"policy"`
	BackingPath  string `mapstructure:"backing_path"`

	Compress struct {
		Enabled bool `mapstructure:"enabled"`
		Level   int  `mapstructure:"level"`
	} `mapstructure:"compress"`
	Encrypt struct {
		Enabled    bool   `mapstructure:"enabled"`
		Passphrase string `mapstructure:"passphrase"`
		Salt       string `mapstructure:"salt"`
	} `mapstructure:"encrypt"`
}

// Default returns a RunConfig sized for the three-frame, eight-page
// worked scenarios: total_frames=3, virtual_pages=8.
func Default() RunConfig {
	var c RunConfig
	c.Memory.MemoryKB = 12
	c.Memory.PageKB = 4
	c.VirtualPages = 8
	c.Policy = "fifo"
	c.BackingPath = "pagingsim.swap"
	return c
}

// Load reads a YAML run configuration from path.
func Load(path string) (RunConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return RunConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return RunConfig{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// policyFromName maps a config file's policy string to a pager.PolicyKind.
func policyFromName(name string) (pager.PolicyKind, error) {
	switch name {
	case "fifo", "":
		return pager.PolicyFIFO, nil
	case "lru":
		return pager.PolicyLRU, nil
	case "clock":
		return pager.PolicyClock, nil
	default:
		return 0, &pager.ConfigError{Reason: "unknown policy name: " + name}
	}
}

// ToPagerConfig validates the run configuration and converts it to the
// pager package's internal representation, rejecting a non-positive
// page_kb, a memory_kb that isn't a multiple of page_kb, and an unknown
// policy name. It does not check the frame and page ceilings;
// pager.NewEngine rejects a Config that exceeds them.
func (c RunConfig) ToPagerConfig() (pager.Config, error) {
	if c.Memory.PageKB <= 0 {
		return pager.Config{}, &pager.ConfigError{Reason: "page_kb must be positive"}
	}
	if c.Memory.MemoryKB%c.Memory.PageKB != 0 {
		return pager.Config{}, &pager.ConfigError{Reason: "memory_kb must be a multiple of page_kb"}
	}

	policy, err := policyFromName(c.Policy)
	if err != nil {
		return pager.Config{}, err
	}

	return pager.Config{
		TotalFrames:  c.Memory.MemoryKB / c.Memory.PageKB,
		VirtualPages: c.VirtualPages,
		PageSize:     c.Memory.PageKB * 1024,
		Policy:       policy,
		BackingPath:  c.BackingPath,
	}, nil
}

const defaultEncryptSalt = "pagingsim-default-salt"

// ApplyCodec installs a compression or encryption codec on engine
// according to the run's Compress/Encrypt settings, or leaves the
// engine on its default plaintext codec if neither is enabled. Must be
// called before the engine's first Access. Compress takes precedence if
// both are (unusually) enabled at once.
func (c RunConfig) ApplyCodec(engine *pager.PagingEngine, pageSize int) error {
	switch {
	case c.Compress.Enabled:
		codec, err := pager.NewCompressionCodec(pageSize, c.Compress.Level)
		if err != nil {
			return err
		}
		engine.SetCodec(codec)
	case c.Encrypt.Enabled:
		if c.Encrypt.Passphrase == "" {
			return &pager.ConfigError{Reason: "encrypt.passphrase must be set when encrypt.enabled is true"}
		}
		salt := c.Encrypt.Salt
		if salt == "" {
			salt = defaultEncryptSalt
		}
		codec, err := pager.NewEncryptionCodec(c.Encrypt.Passphrase, []byte(salt), pageSize)
		if err != nil {
			return err
		}
		engine.SetCodec(codec)
	}
	return nil
}
