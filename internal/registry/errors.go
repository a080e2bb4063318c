package registry

import "fmt"

// ErrNotFound is returned whenever a name is not present in the
// registry. Operations never panic on an unknown name (spec.md §4.1
// "referencing an unknown name returns a distinguished not-found
// result; never panics").
type ErrNotFound struct {
	Name string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("registry: component %q not found", e.Name)
}

// ErrUnknownDependency is returned by Validate when a component
// declares a dependency on a name that was never registered (I1).
type ErrUnknownDependency struct {
	Component  string
	Dependency string
}

func (e *ErrUnknownDependency) Error() string {
	return fmt.Sprintf("registry: component %q depends on unregistered component %q", e.Component, e.Dependency)
}

// ErrCycle is returned by Validate when the dependency relation is not
// acyclic (I2).
type ErrCycle struct {
	Names []string
}

func (e *ErrCycle) Error() string {
	return fmt.Sprintf("registry: dependency cycle detected among %v", e.Names)
}
