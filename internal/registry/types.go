// Package registry is the component loader's single source of truth:
// component metadata and mutable per-component runtime state. Grounded
// in TheSpideX-SystemSim/backend/simulation-service/internal/components
// GlobalRegistry (registration, health/load maps, copy-on-read accessors
// under a single mutex) and in the original Python
// app/core/component_registry.py ComponentRegistry this system replaces.
package registry

import (
	"time"

	"github.com/google/uuid"
)

// Category mirrors spec.md's ComponentMetadata.category enum, carried
// over from the Python ComponentType enum in component_registry.py.
type Category string

const (
	CategoryCore        Category = "core"
	CategoryUI          Category = "ui"
	CategoryTool        Category = "tool"
	CategoryMemory      Category = "memory"
	CategoryExecution   Category = "execution"
	CategoryNetwork     Category = "network"
	CategorySecurity    Category = "security"
	CategoryStorage     Category = "storage"
	CategoryIntegration Category = "integration"
)

// Status is the component lifecycle state machine from spec.md I5:
// NotLoaded -> Loading -> {Loaded, Failed}; Loaded -> NotLoaded (unload);
// Failed -> Loading (retry); any -> Disabled (admin).
type Status string

const (
	StatusNotLoaded Status = "not_loaded"
	StatusLoading   Status = "loading"
	StatusLoaded    Status = "loaded"
	StatusFailed    Status = "failed"
	StatusDisabled  Status = "disabled"
)

// LoaderThunk constructs a component instance, or returns an error.
// It is the first-class registered-loader replacement for the Python
// source's dynamic `importlib.import_module(module_path)` lookup
// (spec.md §9 "Dynamic module import -> registered loader thunks").
type LoaderThunk func() (any, error)

// Precondition is an optional predicate evaluated at query time
// (spec.md §3 ComponentMetadata.precondition).
type Precondition func() bool

// Metadata is immutable once registered (spec.md §3 ComponentMetadata).
type Metadata struct {
	Name                string
	Category            Category
	Dependencies        []string
	Optional            bool
	ResourceRequirement int // MB
	LoadPriority        int
	Precondition        Precondition
	Loader              LoaderThunk
	Description         string
}

// LoadError records the most recent load failure for a component
// (spec.md §3 ComponentRuntimeState.last_error).
type LoadError struct {
	Kind      string
	Message   string
	Traceback string
	Timestamp time.Time
}

func (e *LoadError) Error() string {
	if e == nil {
		return ""
	}
	return e.Kind + ": " + e.Message
}

// RuntimeState is the mutable half of a component record
// (spec.md §3 ComponentRuntimeState).
type RuntimeState struct {
	Status      Status
	Instance    any
	LastError   *LoadError
	LoadTimeMS  float64
	RetryCount  int
	LoadAttempt uuid.UUID // set on each transition into Loading; see SPEC_FULL.md §5
}

// Component is a read-only snapshot combining metadata and runtime
// state, returned by copy from every Registry accessor so callers never
// observe a mutating map (spec.md §4.1 "return copies").
type Component struct {
	Metadata Metadata
	State    RuntimeState
}
