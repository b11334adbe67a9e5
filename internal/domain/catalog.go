package domain

import (
	"iter"
	"strings"
)

// CatalogEntry is one reference product annotated with environmental-impact metadata
type CatalogEntry struct {
	CanonicalName      string `json:"canonicalName"`
	Category           string `json:"category"`
	ImpactScore        int    `json:"impactScore"` // 0-10, higher is worse
	GreenerAlternative string `json:"greenerAlternative"`
	ImpactReason       string `json:"impactReason"`
	AlternativeReason  string `json:"alternativeReason"`
}

// Catalog is an ordered, immutable collection of catalog entries keyed by canonical name.
// It is safe for concurrent readers.
type Catalog struct {
	entries    []CatalogEntry
	index      map[string]int
	duplicates []string
}

// CanonicalName normalizes a display name into the catalog key form:
// uppercase with surrounding and repeated whitespace collapsed.
func CanonicalName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// NewCatalog builds a catalog from entries in source order.
// Names are canonicalized; when two entries share a canonical name the later
// entry's metadata wins and the entry keeps the position of the first occurrence.
func NewCatalog(entries []CatalogEntry) *Catalog {
	c := &Catalog{
		entries: make([]CatalogEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}

	for _, e := range entries {
		e.CanonicalName = CanonicalName(e.CanonicalName)
		if pos, exists := c.index[e.CanonicalName]; exists {
			c.entries[pos] = e
			c.duplicates = append(c.duplicates, e.CanonicalName)
			continue
		}
		c.index[e.CanonicalName] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c
}

// Len returns the number of distinct entries
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entry returns the entry at position i in catalog order
func (c *Catalog) Entry(i int) CatalogEntry {
	return c.entries[i]
}

// All iterates over entries in catalog (insertion) order.
func (c *Catalog) All() iter.Seq2[int, CatalogEntry] {
	return func(yield func(int, CatalogEntry) bool) {
		if c == nil {
			return
		}
		for i, e := range c.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Lookup finds an entry by name, case-insensitively
func (c *Catalog) Lookup(name string) (CatalogEntry, bool) {
	if c == nil {
		return CatalogEntry{}, false
	}
	pos, ok := c.index[CanonicalName(name)]
	if !ok {
		return CatalogEntry{}, false
	}
	return c.entries[pos], true
}

// Duplicates lists canonical names that appeared more than once in the source,
// one element per replaced row.
func (c *Catalog) Duplicates() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.duplicates))
	copy(out, c.duplicates)
	return out
}
