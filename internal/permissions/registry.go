package permissions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Definition describes a permission known at build time. The registry exists
// for seeding and catalog listing only; check-time lookups treat names as
// opaque and never consult it.
type Definition struct {
	Name        string
	Category    string
	Description string
}

type definitionRegistry struct {
	mu          sync.RWMutex
	definitions map[string]Definition
}

var globalRegistry = &definitionRegistry{
	definitions: make(map[string]Definition),
}

var (
	errEmptyName        = errors.New("permission: name is required")
	errDuplicateName    = errors.New("permission: already registered")
	ErrUnknownPermission = errors.New("unknown permission")
)

// Register adds a definition to the global registry.
func Register(def Definition) error {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return errEmptyName
	}
	def.Name = name
	def.Category = strings.TrimSpace(def.Category)

	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if _, exists := globalRegistry.definitions[name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateName, name)
	}

	globalRegistry.definitions[name] = def
	return nil
}

// Get returns the registered definition, when present.
func Get(name string) (Definition, bool) {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	def, ok := globalRegistry.definitions[name]
	return def, ok
}

// All returns every registered definition sorted by name.
func All() []Definition {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	out := make([]Definition, 0, len(globalRegistry.definitions))
	for _, def := range globalRegistry.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ByCategory gathers definitions registered under the given category.
func ByCategory(category string) []Definition {
	var out []Definition
	for _, def := range All() {
		if def.Category == category {
			out = append(out, def)
		}
	}
	return out
}

func mustRegister(defs ...Definition) {
	for _, def := range defs {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}
