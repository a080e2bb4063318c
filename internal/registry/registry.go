package registry

import (
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/systemsim/component-loader/internal/logging"
)

// registrationForm is validated with go-playground/validator before a
// Metadata is admitted, matching the validation step simulation-service
// and auth-service both run over their request DTOs.
type registrationForm struct {
	Name                string `validate:"required"`
	ResourceRequirement int    `validate:"gte=0"`
}

// Registry holds component metadata and mutable per-component state.
// A single mutex guards the whole map, matching GlobalRegistry's single
// sync.RWMutex; every accessor returns copies so callers never hold a
// reference into the live map (spec.md §4.1, §5 "Shared-resource
// policy").
type Registry struct {
	mu         sync.RWMutex
	components map[string]*entry
	validate   *validator.Validate
	log        *logging.Logger
}

type entry struct {
	metadata Metadata
	state    RuntimeState
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		components: make(map[string]*entry),
		validate:   validator.New(),
		log:        logging.New("Registry"),
	}
}

// Register inserts or overwrites component metadata by name
// (idempotent). Runtime state is preserved across re-registration; only
// a brand-new name starts at StatusNotLoaded (spec.md §4.1
// "overwrites metadata (not state)").
func (r *Registry) Register(m Metadata) error {
	form := registrationForm{Name: m.Name, ResourceRequirement: m.ResourceRequirement}
	if err := r.validate.Struct(form); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.components[m.Name]
	if !exists {
		e = &entry{state: RuntimeState{Status: StatusNotLoaded}}
		r.components[m.Name] = e
	}
	e.metadata = m
	r.log.Debugf("registered component %s", m.Name)
	return nil
}

// Get returns a copy of a component's metadata+state, or ErrNotFound.
func (r *Registry) Get(name string) (Component, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.components[name]
	if !ok {
		return Component{}, &ErrNotFound{Name: name}
	}
	return Component{Metadata: e.metadata, State: e.state}, nil
}

// All returns a copy of every registered component.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Component, 0, len(r.components))
	for _, e := range r.components {
		out = append(out, Component{Metadata: e.metadata, State: e.state})
	}
	return out
}

// ByCategory returns all components in a category.
func (r *Registry) ByCategory(c Category) []Component {
	all := r.All()
	out := make([]Component, 0, len(all))
	for _, comp := range all {
		if comp.Metadata.Category == c {
			out = append(out, comp)
		}
	}
	return out
}

// ByPriority returns every component ordered ascending by load priority,
// tie-broken by name (spec.md §4.1).
func (r *Registry) ByPriority() []Component {
	all := r.All()
	sort.Slice(all, func(i, j int) bool {
		if all[i].Metadata.LoadPriority != all[j].Metadata.LoadPriority {
			return all[i].Metadata.LoadPriority < all[j].Metadata.LoadPriority
		}
		return all[i].Metadata.Name < all[j].Metadata.Name
	})
	return all
}

// DependencyChain returns the transitive closure of name's dependencies
// in load order (DFS post-order, dependencies before dependents),
// grounded in component_registry.py's get_dependency_chain.
func (r *Registry) DependencyChain(name string) []string {
	visited := make(map[string]bool)
	var chain []string

	var visit func(string)
	visit = func(n string) {
		if visited[n] {
			return
		}
		visited[n] = true

		r.mu.RLock()
		e, ok := r.components[n]
		var deps []string
		if ok {
			deps = append(deps, e.metadata.Dependencies...)
		}
		r.mu.RUnlock()

		for _, dep := range deps {
			visit(dep)
		}
		chain = append(chain, n)
	}
	visit(name)
	return chain
}

// SetStatus atomically updates a component's status and, optionally,
// its instance and last error.
func (r *Registry) SetStatus(name string, status Status, instance any, loadErr *LoadError) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.components[name]
	if !ok {
		return &ErrNotFound{Name: name}
	}
	e.state.Status = status
	if instance != nil {
		e.state.Instance = instance
	}
	if loadErr != nil {
		e.state.LastError = loadErr
	}
	if status == StatusLoaded {
		e.state.LastError = nil
	}
	return nil
}

// Unload transitions a component to StatusNotLoaded and drops its
// instance, preserving the invariant that an instance is present iff
// status is Loaded (spec.md §3). SetStatus cannot do this: it treats a
// nil instance argument as "leave unchanged" so other callers can
// update status without disturbing a live instance.
func (r *Registry) Unload(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.components[name]
	if !ok {
		return &ErrNotFound{Name: name}
	}
	e.state.Status = StatusNotLoaded
	e.state.Instance = nil
	return nil
}

// BeginLoading transitions a component into StatusLoading and stamps a
// fresh attempt id, used to discard stale completions from an earlier,
// abandoned attempt (SPEC_FULL.md §5, resolving I4).
func (r *Registry) BeginLoading(name string) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.components[name]
	if !ok {
		return uuid.UUID{}, &ErrNotFound{Name: name}
	}
	id := uuid.New()
	e.state.Status = StatusLoading
	e.state.LoadAttempt = id
	return id, nil
}

// CompleteLoading applies a load result only if attemptID still matches
// the component's current in-flight attempt; a stale result (from a
// load that was superseded) is silently discarded.
func (r *Registry) CompleteLoading(name string, attemptID uuid.UUID, status Status, instance any, loadErr *LoadError) (applied bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.components[name]
	if !ok {
		return false, &ErrNotFound{Name: name}
	}
	if e.state.LoadAttempt != attemptID {
		return false, nil
	}
	e.state.Status = status
	if instance != nil {
		e.state.Instance = instance
	}
	if status == StatusLoaded {
		e.state.LastError = nil
	} else if loadErr != nil {
		e.state.LastError = loadErr
	}
	return true, nil
}

// SetLoadTime records the wall-clock duration of the most recent load
// attempt.
func (r *Registry) SetLoadTime(name string, ms float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.components[name]
	if !ok {
		return &ErrNotFound{Name: name}
	}
	e.state.LoadTimeMS = ms
	return nil
}

// IncrementRetryCount bumps and returns the new retry count for name.
func (r *Registry) IncrementRetryCount(name string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.components[name]
	if !ok {
		return 0, &ErrNotFound{Name: name}
	}
	e.state.RetryCount++
	return e.state.RetryCount, nil
}

// CanLoad reports whether every dependency of name is Loaded and its
// precondition (if any) currently holds.
func (r *Registry) CanLoad(name string) bool {
	r.mu.RLock()
	e, ok := r.components[name]
	if !ok {
		r.mu.RUnlock()
		return false
	}
	deps := append([]string(nil), e.metadata.Dependencies...)
	cond := e.metadata.Precondition
	r.mu.RUnlock()

	for _, dep := range deps {
		depComp, err := r.Get(dep)
		if err != nil || depComp.State.Status != StatusLoaded {
			return false
		}
	}
	if cond != nil && !cond() {
		return false
	}
	return true
}

// Loadable returns every NotLoaded component for which CanLoad holds.
func (r *Registry) Loadable() []string {
	all := r.All()
	var out []string
	for _, c := range all {
		if c.State.Status == StatusNotLoaded && r.CanLoad(c.Metadata.Name) {
			out = append(out, c.Metadata.Name)
		}
	}
	return out
}

// TotalRequirementMB sums resource_requirement_mb across names,
// ignoring unknown names.
func (r *Registry) TotalRequirementMB(names []string) int {
	total := 0
	for _, name := range names {
		c, err := r.Get(name)
		if err != nil {
			continue
		}
		total += c.Metadata.ResourceRequirement
	}
	return total
}

// Validate checks invariants I1 (every dependency exists) and I2 (the
// dependency relation is acyclic). It is intended to run once catalog
// registration is complete, per spec.md §4.1.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, e := range r.components {
		for _, dep := range e.metadata.Dependencies {
			if _, ok := r.components[dep]; !ok {
				return &ErrUnknownDependency{Component: name, Dependency: dep}
			}
		}
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var cyclic []string

	var visit func(string) bool
	visit = func(name string) bool {
		if visiting[name] {
			cyclic = append(cyclic, name)
			return true
		}
		if visited[name] {
			return false
		}
		visiting[name] = true
		e := r.components[name]
		for _, dep := range e.metadata.Dependencies {
			if visit(dep) {
				cyclic = append(cyclic, name)
				return true
			}
		}
		visiting[name] = false
		visited[name] = true
		return false
	}

	for name := range r.components {
		if visit(name) {
			return &ErrCycle{Names: dedupe(cyclic)}
		}
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
