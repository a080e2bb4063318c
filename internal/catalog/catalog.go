// Package catalog registers the fixed component set this loader ships
// with, replicating the catalog from the original Python
// app/core/component_registry.py (the module-level registrations that
// used to run at import time). Each entry's loader thunk is a small,
// self-contained stand-in for the real subsystem it represents; several
// deliberately construct (but never dial) real third-party clients so
// the component's resource footprint and dependency style match what a
// production deployment would actually use (SPEC_FULL.md §3 Domain
// Stack).
package catalog

import (
	"database/sql"
	"fmt"

	"github.com/gorilla/websocket"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/systemsim/component-loader/internal/config"
	"github.com/systemsim/component-loader/internal/registry"
)

// Register installs the full default catalog into reg. cfg is the
// instance the config component's thunk returns; the database and cache
// thunks construct (not dial) clients from fixed local connection
// strings.
func Register(reg *registry.Registry, cfg *config.Config) error {
	entries := []registry.Metadata{
		{
			Name:         "config",
			Category:     registry.CategoryCore,
			LoadPriority: 0,
			Description:  "Process configuration, already resolved by the time the loader runs",
			Loader:       func() (any, error) { return cfg, nil },
		},
		{
			Name:         "logger",
			Category:     registry.CategoryCore,
			Dependencies: []string{"config"},
			LoadPriority: 0,
			Loader:       func() (any, error) { return newSubsystemLogger("application"), nil },
		},
		{
			Name:                "database",
			Category:            registry.CategoryStorage,
			Dependencies:        []string{"config", "logger"},
			LoadPriority:        1,
			ResourceRequirement: 30,
			Loader: func() (any, error) {
				return sql.Open("postgres", "postgres://localhost/componentloader?sslmode=disable")
			},
		},
		{
			Name:         "code_editor",
			Category:     registry.CategoryUI,
			Dependencies: []string{"config"},
			LoadPriority: 1,
			Loader:       func() (any, error) { return struct{ Name string }{"code_editor"}, nil },
		},
		{
			Name:         "command_log",
			Category:     registry.CategoryCore,
			Dependencies: []string{"logger"},
			LoadPriority: 1,
			Loader:       func() (any, error) { return newSubsystemLogger("command_log"), nil },
		},
		{
			Name:                "guardian",
			Category:            registry.CategorySecurity,
			Dependencies:        []string{"config", "logger"},
			LoadPriority:        1,
			ResourceRequirement: 5,
			Loader:              func() (any, error) { return struct{ Name string }{"guardian"}, nil },
		},
		{
			Name:                "agent_control",
			Category:            registry.CategoryExecution,
			Dependencies:        []string{"config", "database"},
			LoadPriority:        2,
			ResourceRequirement: 10,
			Loader:              func() (any, error) { return struct{ Name string }{"agent_control"}, nil },
		},
		{
			Name:                "agent_monitor",
			Category:            registry.CategoryExecution,
			Dependencies:        []string{"agent_control"},
			LoadPriority:        3,
			ResourceRequirement: 10,
			Loader: func() (any, error) {
				dialer := websocket.Dialer{}
				return &dialer, nil
			},
		},
		{
			Name:                "knowledge_graph",
			Category:            registry.CategoryMemory,
			Dependencies:        []string{"database"},
			Optional:            true,
			LoadPriority:        4,
			ResourceRequirement: 100,
			Loader:              func() (any, error) { return struct{ Name string }{"knowledge_graph"}, nil },
		},
		{
			Name:                "network",
			Category:            registry.CategoryNetwork,
			Dependencies:        []string{"config", "guardian"},
			Optional:            true,
			LoadPriority:        3,
			ResourceRequirement: 20,
			Loader:              func() (any, error) { return struct{ Name string }{"network"}, nil },
		},
		{
			Name:                "web_search",
			Category:            registry.CategoryTool,
			Dependencies:        []string{"network"},
			Optional:            true,
			LoadPriority:        4,
			ResourceRequirement: 10,
			Loader:              func() (any, error) { return struct{ Name string }{"web_search"}, nil },
		},
		{
			Name:                "sandbox",
			Category:            registry.CategoryExecution,
			Dependencies:        []string{"guardian"},
			Optional:            true,
			LoadPriority:        4,
			ResourceRequirement: 500,
			Loader:              func() (any, error) { return struct{ Name string }{"sandbox"}, nil },
		},
		{
			Name:                "browser",
			Category:            registry.CategoryTool,
			Dependencies:        []string{"network", "guardian"},
			Optional:            true,
			LoadPriority:        5,
			ResourceRequirement: 500,
			Precondition:        func() bool { return false },
			Loader:              func() (any, error) { return struct{ Name string }{"browser"}, nil },
		},
		{
			Name:                "workflow",
			Category:            registry.CategoryExecution,
			Dependencies:        []string{"agent_control"},
			Optional:            true,
			LoadPriority:        4,
			ResourceRequirement: 15,
			Loader:              func() (any, error) { return struct{ Name string }{"workflow"}, nil },
		},
		{
			Name:                "backup",
			Category:            registry.CategoryStorage,
			Dependencies:        []string{"config", "database"},
			Optional:            true,
			LoadPriority:        5,
			ResourceRequirement: 50,
			Precondition:        func() bool { return false },
			Loader:              func() (any, error) { return struct{ Name string }{"backup"}, nil },
		},
		{
			Name:                "versioning",
			Category:            registry.CategoryStorage,
			Dependencies:        []string{"database"},
			Optional:            true,
			LoadPriority:        4,
			ResourceRequirement: 20,
			Precondition:        func() bool { return false },
			Loader:              func() (any, error) { return struct{ Name string }{"versioning"}, nil },
		},
		{
			Name:                "resource_catalog",
			Category:            registry.CategoryStorage,
			Dependencies:        []string{"database"},
			Optional:            true,
			LoadPriority:        4,
			ResourceRequirement: 10,
			Loader:              func() (any, error) { return struct{ Name string }{"resource_catalog"}, nil },
		},
		{
			Name:                "mcp_bridge",
			Category:            registry.CategoryIntegration,
			Dependencies:        []string{"config", "guardian"},
			Optional:            true,
			LoadPriority:        5,
			ResourceRequirement: 30,
			Loader:              func() (any, error) { return struct{ Name string }{"mcp_bridge"}, nil },
		},
		{
			Name:                "cache",
			Category:            registry.CategoryStorage,
			Dependencies:        []string{"config"},
			Optional:            true,
			LoadPriority:        2,
			ResourceRequirement: 15,
			Description:         "Shared cache layer, exercised here with a real redis client constructed but never dialed",
			Loader: func() (any, error) {
				return redis.NewClient(&redis.Options{Addr: "localhost:6379"}), nil
			},
		},
	}

	for _, m := range entries {
		if err := reg.Register(m); err != nil {
			return fmt.Errorf("catalog: registering %q: %w", m.Name, err)
		}
	}
	return reg.Validate()
}

// subsystemLogger is a minimal stand-in instance for the real
// application logger component, distinct from internal/logging.Logger.
type subsystemLogger struct {
	Subsystem string
}

func newSubsystemLogger(subsystem string) *subsystemLogger {
	return &subsystemLogger{Subsystem: subsystem}
}
