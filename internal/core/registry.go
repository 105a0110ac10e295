package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	fieldRegistry  = make(map[string]FieldDef)
	sourceRegistry = make(map[string]DataSource)
	registryMu     sync.RWMutex
)

// RegisterField adds a field definition to the registry.
// Panics if a field with the same name is already registered.
func RegisterField(def FieldDef) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if def.Name == "" {
		panic("field definition has no name")
	}
	if _, exists := fieldRegistry[def.Name]; exists {
		panic(fmt.Sprintf("field already registered: %s", def.Name))
	}

	fieldRegistry[def.Name] = def
}

// RegisterSource adds a data source to the registry.
// Panics if the key is already registered, the field list is empty, or a
// referenced field does not exist; both are startup configuration mistakes.
func RegisterSource(src DataSource) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := sourceRegistry[src.Key]; exists {
		panic(fmt.Sprintf("data source already registered: %s", src.Key))
	}
	if len(src.Fields) == 0 {
		panic(fmt.Sprintf("data source %s declares no fields", src.Key))
	}
	for _, name := range src.Fields {
		if _, ok := fieldRegistry[name]; !ok {
			panic(fmt.Sprintf("data source %s references unknown field %s", src.Key, name))
		}
	}

	sourceRegistry[src.Key] = src
}

// Field returns a field definition by name.
// Returns false if not found.
func Field(name string) (FieldDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := fieldRegistry[name]
	return def, ok
}

// Source returns a data source by key.
// Returns false if not found.
func Source(key string) (DataSource, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	src, ok := sourceRegistry[key]
	return src, ok
}

// Sources returns all registered data sources sorted by key for consistent
// ordering in listings.
func Sources() []DataSource {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]DataSource, 0, len(sourceRegistry))
	for _, src := range sourceRegistry {
		result = append(result, src)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// SourceFields returns the ordered field definitions for a data source.
func SourceFields(key string) ([]FieldDef, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	src, ok := sourceRegistry[key]
	if !ok {
		return nil, false
	}

	defs := make([]FieldDef, 0, len(src.Fields))
	for _, name := range src.Fields {
		defs = append(defs, fieldRegistry[name])
	}
	return defs, true
}

// SourceCount returns the number of registered data sources.
func SourceCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(sourceRegistry)
}

// ClearRegistry removes all registered fields and sources.
// Primarily useful for testing.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	fieldRegistry = make(map[string]FieldDef)
	sourceRegistry = make(map[string]DataSource)
}
