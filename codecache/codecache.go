// Package codecache keeps translated blocks keyed by guest PC, using an
// Akita cache directory for placement and LRU replacement.
package codecache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// EntrySize is the guest address granule of one entry. Guest instructions
// are 4 bytes, so every block start gets its own tag.
const EntrySize = 4

// Config holds code cache configuration parameters.
type Config struct {
	// Blocks is the total number of cached translations.
	Blocks int
	// Associativity is the number of ways per set.
	Associativity int
}

// DefaultConfig returns a 256-entry, 4-way code cache.
func DefaultConfig() Config {
	return Config{
		Blocks:        256,
		Associativity: 4,
	}
}

// Validate checks that the geometry describes at least one full set.
func (c Config) Validate() error {
	if c.Associativity <= 0 {
		return fmt.Errorf("associativity must be positive, got %d", c.Associativity)
	}
	if c.Blocks <= 0 || c.Blocks%c.Associativity != 0 {
		return fmt.Errorf("blocks (%d) must be a positive multiple of associativity (%d)",
			c.Blocks, c.Associativity)
	}
	return nil
}

// Statistics holds code cache statistics.
type Statistics struct {
	Lookups       uint64
	Hits          uint64
	Misses        uint64
	Inserts       uint64
	Evictions     uint64
	Invalidations uint64
}

// Cache maps guest PCs to translations of type V.
type Cache[V any] struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Entries - indexed by (setID * associativity + wayID)
	entries []V

	stats Statistics
}

// New creates a code cache. It panics if config is invalid.
func New[V any](config Config) *Cache[V] {
	if err := config.Validate(); err != nil {
		panic(err)
	}

	numSets := config.Blocks / config.Associativity

	return &Cache[V]{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			EntrySize,
			akitacache.NewLRUVictimFinder(),
		),
		entries: make([]V, config.Blocks),
	}
}

// Config returns the cache configuration.
func (c *Cache[V]) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache[V]) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache[V]) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache[V]) entryIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func tagOf(pc uint64) uint64 {
	return pc / EntrySize * EntrySize
}

func (c *Cache[V]) find(pc uint64) *akitacache.Block {
	block := c.directory.Lookup(0, tagOf(pc))
	if block == nil || !block.IsValid {
		return nil
	}
	return block
}

// Lookup returns the translation starting at pc.
func (c *Cache[V]) Lookup(pc uint64) (V, bool) {
	c.stats.Lookups++

	block := c.find(pc)
	if block == nil {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.stats.Hits++
	c.directory.Visit(block)
	return c.entries[c.entryIndex(block)], true
}

// Insert caches v for pc, replacing the least recently used entry of its
// set if needed. It returns the PC of the entry it replaced.
func (c *Cache[V]) Insert(pc uint64, v V) (evictedPC uint64, evicted bool) {
	c.stats.Inserts++

	block := c.find(pc)
	if block == nil {
		block = c.directory.FindVictim(tagOf(pc))
		if block.IsValid {
			c.stats.Evictions++
			evictedPC, evicted = block.Tag, true
		}
		block.Tag = tagOf(pc)
		block.IsValid = true
	}

	c.entries[c.entryIndex(block)] = v
	c.directory.Visit(block)

	return evictedPC, evicted
}

// Invalidate drops the translation starting at pc, if any.
func (c *Cache[V]) Invalidate(pc uint64) {
	block := c.find(pc)
	if block == nil {
		return
	}

	c.stats.Invalidations++
	block.IsValid = false
	var zero V
	c.entries[c.entryIndex(block)] = zero
}

// Len returns the number of valid entries.
func (c *Cache[V]) Len() int {
	n := 0
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid {
				n++
			}
		}
	}
	return n
}

// Reset drops every translation and clears statistics.
func (c *Cache[V]) Reset() {
	c.directory.Reset()
	var zero V
	for i := range c.entries {
		c.entries[i] = zero
	}
	c.stats = Statistics{}
}
