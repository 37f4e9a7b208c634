// Package config provides the engine configuration: a JSON file with
// environment overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/xyproto/env/v2"

	"github.com/sarchlab/rvdbt/codecache"
	"github.com/sarchlab/rvdbt/rtl"
	"github.com/sarchlab/rvdbt/softfloat"
)

// EngineConfig holds the parameters of one emulated CPU context.
type EngineConfig struct {
	// ScratchpadBase is the host address of the spill scratchpad.
	ScratchpadBase uint64 `json:"scratchpad_base"`

	// ScratchpadSize is the scratchpad size in bytes.
	ScratchpadSize uint64 `json:"scratchpad_size"`

	// RoundingMode is the initial frm, as a mnemonic ("rne", "rtz", ...).
	RoundingMode string `json:"rounding_mode"`

	// MaxBlockLen is the maximum number of guest instructions per
	// translated block.
	MaxBlockLen int `json:"max_block_len"`

	// WritebackEachInst stores spilled registers after every guest
	// instruction rather than only at block end.
	WritebackEachInst bool `json:"writeback_each_inst"`

	// CodeCacheBlocks is the number of cached translations.
	CodeCacheBlocks int `json:"code_cache_blocks"`

	// CodeCacheWays is the associativity of the code cache.
	CodeCacheWays int `json:"code_cache_ways"`

	// MaxInstructions stops a run after that many guest instructions.
	// 0 means no limit.
	MaxInstructions uint64 `json:"max_instructions"`

	// Verbosity is the log level passed to the logger.
	Verbosity int `json:"verbosity"`
}

// DefaultEngineConfig returns the default configuration.
func DefaultEngineConfig() *EngineConfig {
	cc := codecache.DefaultConfig()
	return &EngineConfig{
		ScratchpadBase:  0x10000000,
		ScratchpadSize:  4096,
		RoundingMode:    "rne",
		MaxBlockLen:     64,
		CodeCacheBlocks: cc.Blocks,
		CodeCacheWays:   cc.Associativity,
	}
}

// LoadConfig loads a configuration from a JSON file. Missing fields keep
// their defaults.
func LoadConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine config file: %w", err)
	}

	config := DefaultEngineConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse engine config: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to a JSON file.
func (c *EngineConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize engine config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write engine config file: %w", err)
	}

	return nil
}

// FRM returns the initial rounding mode.
func (c *EngineConfig) FRM() (softfloat.RoundingMode, error) {
	rm, err := rtl.ParseRoundingMode(c.RoundingMode)
	if err != nil {
		return 0, err
	}
	mode := softfloat.RoundingMode(rm)
	if !mode.Valid() {
		return 0, fmt.Errorf("rounding_mode %q cannot be used as frm", c.RoundingMode)
	}
	return mode, nil
}

// CodeCache returns the code cache geometry.
func (c *EngineConfig) CodeCache() codecache.Config {
	return codecache.Config{
		Blocks:        c.CodeCacheBlocks,
		Associativity: c.CodeCacheWays,
	}
}

// Validate checks that the configuration values are sensible.
func (c *EngineConfig) Validate() error {
	if c.ScratchpadSize < 32 {
		return fmt.Errorf("scratchpad_size must be >= 32")
	}
	if c.ScratchpadSize%4 != 0 || c.ScratchpadBase%4 != 0 {
		return fmt.Errorf("scratchpad_base and scratchpad_size must be 4-byte aligned")
	}
	if _, err := c.FRM(); err != nil {
		return err
	}
	if c.MaxBlockLen <= 0 {
		return fmt.Errorf("max_block_len must be > 0")
	}
	if err := c.CodeCache().Validate(); err != nil {
		return fmt.Errorf("code cache: %w", err)
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvScratchpadBase    = "RVDBT_SCRATCHPAD_BASE"
	EnvScratchpadSize    = "RVDBT_SCRATCHPAD_SIZE"
	EnvRoundingMode      = "RVDBT_ROUNDING_MODE"
	EnvMaxBlockLen       = "RVDBT_MAX_BLOCK_LEN"
	EnvWritebackEachInst = "RVDBT_WRITEBACK_EACH_INST"
	EnvCodeCacheBlocks   = "RVDBT_CODE_CACHE_BLOCKS"
	EnvCodeCacheWays     = "RVDBT_CODE_CACHE_WAYS"
	EnvMaxInstructions   = "RVDBT_MAX_INSTRUCTIONS"
	EnvVerbosity         = "RVDBT_VERBOSITY"
)

// ApplyEnv overrides fields from the RVDBT_* environment variables that
// are set.
func (c *EngineConfig) ApplyEnv() error {
	if env.Has(EnvScratchpadBase) {
		v, err := strconv.ParseUint(env.Str(EnvScratchpadBase), 0, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvScratchpadBase, err)
		}
		c.ScratchpadBase = v
	}
	if env.Has(EnvScratchpadSize) {
		v, err := strconv.ParseUint(env.Str(EnvScratchpadSize), 0, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvScratchpadSize, err)
		}
		c.ScratchpadSize = v
	}
	if env.Has(EnvMaxInstructions) {
		v, err := strconv.ParseUint(env.Str(EnvMaxInstructions), 0, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", EnvMaxInstructions, err)
		}
		c.MaxInstructions = v
	}

	c.RoundingMode = env.Str(EnvRoundingMode, c.RoundingMode)
	c.MaxBlockLen = env.Int(EnvMaxBlockLen, c.MaxBlockLen)
	c.CodeCacheBlocks = env.Int(EnvCodeCacheBlocks, c.CodeCacheBlocks)
	c.CodeCacheWays = env.Int(EnvCodeCacheWays, c.CodeCacheWays)
	c.Verbosity = env.Int(EnvVerbosity, c.Verbosity)
	if env.Has(EnvWritebackEachInst) {
		c.WritebackEachInst = env.Bool(EnvWritebackEachInst)
	}

	return nil
}

// Clone returns a copy of the configuration.
func (c *EngineConfig) Clone() *EngineConfig {
	clone := *c
	return &clone
}
