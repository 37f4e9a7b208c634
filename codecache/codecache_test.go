package codecache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rvdbt/codecache"
)

var _ = Describe("Cache", func() {
	var c *codecache.Cache[string]

	get := func(pc uint64) string {
		v, ok := c.Lookup(pc)
		Expect(ok).To(BeTrue())
		return v
	}

	BeforeEach(func() {
		// 4 sets of 2 ways; PCs 0x00, 0x10, 0x20 share set 0.
		c = codecache.New[string](codecache.Config{Blocks: 8, Associativity: 2})
	})

	It("should miss on a cold cache", func() {
		_, ok := c.Lookup(0x100)

		Expect(ok).To(BeFalse())
		Expect(c.Stats().Misses).To(Equal(uint64(1)))
		Expect(c.Stats().Lookups).To(Equal(uint64(1)))
	})

	It("should hit after insert", func() {
		c.Insert(0x100, "a")

		v, ok := c.Lookup(0x100)

		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("a"))
		Expect(c.Stats().Hits).To(Equal(uint64(1)))
		Expect(c.Len()).To(Equal(1))
	})

	It("should replace the entry for the same PC in place", func() {
		c.Insert(0x100, "a")
		_, evicted := c.Insert(0x100, "b")

		Expect(evicted).To(BeFalse())
		Expect(get(0x100)).To(Equal("b"))
		Expect(c.Len()).To(Equal(1))
	})

	It("should evict the least recently used entry of a full set", func() {
		c.Insert(0x00, "a")
		c.Insert(0x10, "b")
		c.Lookup(0x00)

		pc, evicted := c.Insert(0x20, "c")

		Expect(evicted).To(BeTrue())
		Expect(pc).To(Equal(uint64(0x10)))
		Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		_, ok := c.Lookup(0x10)
		Expect(ok).To(BeFalse())
		Expect(get(0x00)).To(Equal("a"))
		Expect(get(0x20)).To(Equal("c"))
	})

	It("should keep other sets untouched", func() {
		c.Insert(0x00, "a")
		c.Insert(0x10, "b")
		c.Insert(0x04, "d")

		_, evicted := c.Insert(0x08, "e")

		Expect(evicted).To(BeFalse())
		Expect(c.Len()).To(Equal(4))
	})

	It("should invalidate single entries", func() {
		c.Insert(0x40, "a")

		c.Invalidate(0x40)
		c.Invalidate(0x44)

		_, ok := c.Lookup(0x40)
		Expect(ok).To(BeFalse())
		Expect(c.Stats().Invalidations).To(Equal(uint64(1)))
	})

	It("should drop everything on reset", func() {
		c.Insert(0x00, "a")
		c.Insert(0x04, "b")

		c.Reset()

		Expect(c.Len()).To(BeZero())
		Expect(c.Stats()).To(Equal(codecache.Statistics{}))
	})

	Describe("Config", func() {
		It("should reject geometries without a whole set", func() {
			Expect(codecache.Config{Blocks: 6, Associativity: 4}.Validate()).To(HaveOccurred())
			Expect(codecache.Config{Blocks: 4, Associativity: 0}.Validate()).To(HaveOccurred())
			Expect(codecache.DefaultConfig().Validate()).To(Succeed())
		})

		It("should panic on construction with a bad geometry", func() {
			Expect(func() { codecache.New[int](codecache.Config{Blocks: 3, Associativity: 2}) }).To(Panic())
		})
	})
})
