package engine

import (
	"fmt"
	"sort"
	"sync"
)

// ModuleFactory is a function that creates an instance of a probe module.
type ModuleFactory func() Module

var (
	registryMu     sync.RWMutex
	moduleRegistry = make(map[string]ModuleFactory)
)

// RegisterModuleFactory adds a module factory to the registry. Probe
// packages register themselves from init().
func RegisterModuleFactory(name string, factory ModuleFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	moduleRegistry[name] = factory
}

// GetModuleInstance creates a new instance of a registered module and
// initializes it with the provided configuration.
func GetModuleInstance(name string, config map[string]any) (Module, error) {
	registryMu.RLock()
	factory, ok := moduleRegistry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no module registered for name: %s", name)
	}
	module := factory()
	if err := module.Init(config); err != nil {
		return nil, fmt.Errorf("initialize module %q: %w", name, err)
	}
	return module, nil
}

// RegisteredModuleNames returns all registered module names, sorted. This is
// the default probe set when no explicit selection is given.
func RegisteredModuleNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(moduleRegistry))
	for name := range moduleRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
