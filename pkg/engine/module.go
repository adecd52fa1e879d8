// Package engine provides the probe module contract and the runner that
// executes selected probes against a single target.
package engine

import "context"

// ModuleType categorizes a probe module.
type ModuleType string

const (
	DetectionModuleType  ModuleType = "detection"  // Product/transport identification
	EvaluationModuleType ModuleType = "evaluation" // Security posture checks
	InventoryModuleType  ModuleType = "inventory"  // Software and account enumeration
)

// ModuleMetadata holds descriptive information common to all probe modules.
type ModuleMetadata struct {
	Name        string     // Registry name, also the --tests selector value
	Label       string     // Human-readable test label printed as section header
	Version     string     // Version of the module implementation
	Description string     // Brief description of what the module checks
	Type        ModuleType // Category of the module
	Tags        []string   // Tags for filtering and docs
}

// Module is the interface all probe modules implement. A module sends one or
// a few HTTP requests through the session's client, classifies what it sees,
// and records findings into the session's report.
type Module interface {
	// Metadata returns descriptive information about the module.
	Metadata() ModuleMetadata

	// Init initializes the module with its specific configuration.
	Init(config map[string]any) error

	// Run executes the probe. Errors abort only this module, never the run.
	Run(ctx context.Context, session *Session) error
}
