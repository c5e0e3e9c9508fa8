package category

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/hyperengineering/protrack/internal/types"
)

// registry holds all registered category schemas.
var (
	registryMu sync.RWMutex
	schemas    = make(map[types.Category]Schema)
)

// Register adds a schema to the registry.
// Panics if a schema for the same category is already registered.
func Register(s Schema) {
	registryMu.Lock()
	defer registryMu.Unlock()

	c := s.Category()
	if _, exists := schemas[c]; exists {
		panic("category already registered: " + string(c))
	}
	schemas[c] = s
}

// RegisterBuiltins registers the four built-in schemas, skipping any
// category that already has one.
func RegisterBuiltins() {
	registryMu.Lock()
	defer registryMu.Unlock()

	for _, s := range []Schema{academicSchema{}, longTermSchema{}, personalitySchema{}, additionalSchema{}} {
		if _, exists := schemas[s.Category()]; !exists {
			schemas[s.Category()] = s
		}
	}
}

// Get returns the schema for the given category.
func Get(c types.Category) (Schema, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	s, ok := schemas[c]
	return s, ok
}

// Decode validates raw form data against the schema registered for c.
func Decode(c types.Category, raw json.RawMessage) (Form, error) {
	s, ok := Get(c)
	if !ok {
		return nil, ValidationErrors{Errors: []FieldError{{Field: "category", Message: "invalid category"}}}
	}
	return s.Decode(raw)
}

// Registered returns all registered categories, sorted.
func Registered() []types.Category {
	registryMu.RLock()
	defer registryMu.RUnlock()

	out := make([]types.Category, 0, len(schemas))
	for c := range schemas {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Reset clears the registry. Only for testing.
func Reset() {
	registryMu.Lock()
	defer registryMu.Unlock()
	schemas = make(map[types.Category]Schema)
}
