// Package standardize maps free-text ingredient names to canonical
// identifiers. Matching is a best-effort fuzzy pass over a curated synonym
// table; text with no curated match synthesizes a deterministic identifier
// instead of failing.
package standardize

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// maxCanonicalLen bounds synthesized identifiers to the storage column width
// of ingredient names.
const maxCanonicalLen = 100

// CanonicalIngredient is the standardized, deduplicated identity an
// ingredient's many textual spellings collapse to.
type CanonicalIngredient struct {
	ID            string `json:"id"`
	CanonicalName string `json:"canonical_name"`
}

// Standardizer resolves ingredient text to canonical names. Synthesized
// names are memoized so repeated unknown text yields one identifier per run.
// Safe for concurrent use.
type Standardizer struct {
	table []Entry

	mu   sync.RWMutex
	memo map[string]string // cleaned text -> synthesized canonical name
}

// New builds a standardizer over the curated synonym table.
func New() *Standardizer {
	return &Standardizer{
		table: curatedTable,
		memo:  make(map[string]string),
	}
}

// Standardize maps raw ingredient text to a canonical name: curated match
// first, synthesized identifier otherwise.
func (s *Standardizer) Standardize(raw string) string {
	cleaned := Clean(raw)

	if name, ok := s.matchCurated(cleaned); ok {
		return name
	}

	s.mu.RLock()
	name, ok := s.memo[cleaned]
	s.mu.RUnlock()
	if ok {
		return name
	}

	name = Synthesize(cleaned)
	s.mu.Lock()
	s.memo[cleaned] = name
	s.mu.Unlock()
	return name
}

// matchCurated scans the ordered table; the first entry with a synonym that
// contains the cleaned text, or is contained by it, wins.
func (s *Standardizer) matchCurated(cleaned string) (string, bool) {
	if cleaned == "" {
		return "", false
	}
	for _, entry := range s.table {
		for _, syn := range entry.Synonyms {
			if strings.Contains(cleaned, syn) || strings.Contains(syn, cleaned) {
				return entry.Canonical, true
			}
		}
	}
	return "", false
}

// Clean lowercases raw text, strips qualifier words wherever they occur as
// substrings, collapses whitespace, and trims edge punctuation.
func Clean(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	for _, q := range qualifiers {
		cleaned = strings.ReplaceAll(cleaned, q, "")
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.Trim(cleaned, " ,.")
}

// Synthesize derives a canonical identifier from cleaned text: uppercase,
// spaces to underscores, truncated to the storage limit.
func Synthesize(cleaned string) string {
	name := strings.ToUpper(strings.ReplaceAll(cleaned, " ", "_"))
	if len(name) > maxCanonicalLen {
		name = name[:maxCanonicalLen]
	}
	return name
}

// Directory assigns and remembers opaque identifiers for canonical names.
// Identity and uniqueness enforcement live behind this port; the costing
// core treats the returned IDs as opaque.
type Directory interface {
	ResolveOrCreate(canonicalName string) (CanonicalIngredient, error)
}

// MemoryDirectory is an in-memory Directory for tests and the CLI.
type MemoryDirectory struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{ids: make(map[string]string)}
}

func (m *MemoryDirectory) ResolveOrCreate(canonicalName string) (CanonicalIngredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.ids[canonicalName]
	if !ok {
		id = uuid.NewString()
		m.ids[canonicalName] = id
	}
	return CanonicalIngredient{ID: id, CanonicalName: canonicalName}, nil
}
