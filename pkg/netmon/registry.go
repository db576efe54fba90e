package netmon

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

var (
	registry       = make(map[SourceType]NewCollector)
	registryLogger = stdr.New(log.New(os.Stderr, "[netmon.registry] ", log.LstdFlags))
)

// Register adds a collector factory to the global registry for sourceType.
// The factory is used to create new collector instances with the provided
// logger and configuration.
//
// This function is usually called during package initialization (typically in
// init() functions) to register collector implementations before they can be
// instantiated. It panics if a collector for the given sourceType is already
// registered.
func Register(sourceType SourceType, collector NewCollector) {
	if _, exists := registry[sourceType]; exists {
		panic(fmt.Sprintf("collector for %s already registered", sourceType))
	}
	registry[sourceType] = collector
	registryLogger.V(1).Info("registered collector", "source_type", sourceType)
}

// GetCollector retrieves the collector factory from the global registry for
// sourceType.
func GetCollector(sourceType SourceType) (NewCollector, error) {
	collector, exists := registry[sourceType]
	if !exists {
		return nil, fmt.Errorf("collector for %s not found", sourceType)
	}
	return collector, nil
}

// AvailableSources returns the source types with a registered collector,
// sorted by name.
func AvailableSources() []SourceType {
	types := make([]SourceType, 0, len(registry))
	for sourceType := range registry {
		types = append(types, sourceType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// SetRegistryLogger allows setting a custom logger for the registry.
// This should be called before any collectors are registered.
func SetRegistryLogger(logger logr.Logger) {
	registryLogger = logger
}
