// Package lazyloader loads a single component on demand, the way the
// original Python app/core/lazy_loader.py loads one module at a time:
// check cache, check in-flight, check dependencies, run the loader
// under error isolation, report progress along the way.
package lazyloader

import (
	"context"
	"fmt"
	"time"

	"github.com/systemsim/component-loader/internal/errorisolation"
	"github.com/systemsim/component-loader/internal/logging"
	"github.com/systemsim/component-loader/internal/registry"
)

// ErrAlreadyLoading is returned when Load is called for a component
// that is already mid-load, matching lazy_loader.py's "already loading"
// branch.
type ErrAlreadyLoading struct {
	Name string
}

func (e *ErrAlreadyLoading) Error() string {
	return fmt.Sprintf("lazyloader: component %q is already loading", e.Name)
}

// ErrMissingDependencies is returned when CanLoad fails because one or
// more dependencies are not yet Loaded or the component's precondition
// does not hold; in the latter case Missing may be empty.
type ErrMissingDependencies struct {
	Name    string
	Missing []string
}

func (e *ErrMissingDependencies) Error() string {
	return fmt.Sprintf("lazyloader: component %q is missing dependencies: %v", e.Name, e.Missing)
}

// ProgressFunc is notified as a single component's load advances.
// Percent follows the sentinel scale from spec.md §4.6: 0 (started),
// 30 (resolving), 60 (instantiating), 100 (loaded), -1 (failed).
type ProgressFunc func(name string, percent int)

// LoadedFunc is notified once a component finishes loading,
// successfully or not.
type LoadedFunc func(name string, success bool)

// Loader loads one component at a time against a shared Registry,
// isolating loader failures via errorisolation.Isolation.
type Loader struct {
	reg     *registry.Registry
	iso     *errorisolation.Isolation
	timeout time.Duration
	log     *logging.Logger

	progressCbs []ProgressFunc
	loadedCbs   []LoadedFunc
}

// New creates a Loader. timeout of zero means no per-component load
// timeout is enforced (SPEC_FULL.md §6, resolving spec.md §9's open
// question on bounding a stuck loader).
func New(reg *registry.Registry, iso *errorisolation.Isolation, timeout time.Duration) *Loader {
	return &Loader{
		reg:     reg,
		iso:     iso,
		timeout: timeout,
		log:     logging.New("LazyLoader"),
	}
}

// RegisterProgressCallback adds an observer for progress notifications.
func (l *Loader) RegisterProgressCallback(cb ProgressFunc) {
	l.progressCbs = append(l.progressCbs, cb)
}

// RegisterLoadedCallback adds an observer fired when a load completes.
func (l *Loader) RegisterLoadedCallback(cb LoadedFunc) {
	l.loadedCbs = append(l.loadedCbs, cb)
}

func (l *Loader) notifyProgress(name string, percent int) {
	for _, cb := range l.progressCbs {
		cb(name, percent)
	}
}

func (l *Loader) notifyLoaded(name string, success bool) {
	for _, cb := range l.loadedCbs {
		cb(name, success)
	}
}

// Load resolves a single component by name. If it is already Loaded
// and forceReload is false, the cached instance is returned
// immediately. Otherwise dependencies are checked, the component is
// marked Loading, and its registered loader thunk runs under error
// isolation with an optional deadline.
func (l *Loader) Load(ctx context.Context, name string, forceReload bool) (any, error) {
	comp, err := l.reg.Get(name)
	if err != nil {
		return nil, err
	}

	if comp.State.Status == registry.StatusLoaded && !forceReload {
		return comp.State.Instance, nil
	}
	if comp.State.Status == registry.StatusLoading {
		return nil, &ErrAlreadyLoading{Name: name}
	}
	if !l.reg.CanLoad(name) {
		return nil, &ErrMissingDependencies{Name: name, Missing: l.missingDeps(comp)}
	}

	attemptID, err := l.reg.BeginLoading(name)
	if err != nil {
		return nil, err
	}
	l.notifyProgress(name, 0)

	loadCtx := ctx
	var cancel context.CancelFunc
	if l.timeout > 0 {
		loadCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	instance, loadErr := l.runThunk(loadCtx, name, comp.Metadata.Loader)
	elapsedMS := float64(time.Since(start).Microseconds()) / 1000.0
	_ = l.reg.SetLoadTime(name, elapsedMS)

	if loadErr != nil {
		cerr := &registry.LoadError{
			Kind:      "load_failure",
			Message:   loadErr.Error(),
			Timestamp: time.Now(),
		}
		if ce, ok := loadErr.(*errorisolation.ComponentError); ok {
			cerr.Traceback = ce.Traceback
		}
		applied, err := l.reg.CompleteLoading(name, attemptID, registry.StatusFailed, nil, cerr)
		if err != nil {
			return nil, err
		}
		if applied {
			l.notifyProgress(name, -1)
			l.notifyLoaded(name, false)
		}
		return nil, loadErr
	}

	applied, err := l.reg.CompleteLoading(name, attemptID, registry.StatusLoaded, instance, nil)
	if err != nil {
		return nil, err
	}
	if applied {
		l.notifyProgress(name, 100)
		l.notifyLoaded(name, true)
	}
	return instance, nil
}

// runThunk emits the 30 and 60 progress notifications around the
// registered loader thunk (Load emits 0, 100 and -1) and stops waiting
// for the thunk once ctx is done,
// matching lazy_loader.py's nested closure that reports progress
// before and after the simulated "import".
func (l *Loader) runThunk(ctx context.Context, name string, thunk registry.LoaderThunk) (any, error) {
	if thunk == nil {
		return nil, fmt.Errorf("lazyloader: component %q has no registered loader", name)
	}

	l.notifyProgress(name, 30)

	type result struct {
		instance any
		err      error
	}
	done := make(chan result, 1)
	go func() {
		instance, err := l.iso.SafeLoad(name, func() (any, error) { return thunk() })
		done <- result{instance, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		l.notifyProgress(name, 60)
		return r.instance, nil
	}
}

// Unload sets a Loaded component back to NotLoaded, invoking an
// instance's Cleanup method if it implements one. Cleanup errors are
// logged and swallowed, matching lazy_loader.py's unload_component.
func (l *Loader) Unload(name string) error {
	comp, err := l.reg.Get(name)
	if err != nil {
		return err
	}
	if cleaner, ok := comp.State.Instance.(interface{ Cleanup() error }); ok {
		if cerr := cleaner.Cleanup(); cerr != nil {
			l.log.Warnf("cleanup failed for %s: %v", name, cerr)
		}
	}
	return l.reg.Unload(name)
}

func (l *Loader) missingDeps(comp registry.Component) []string {
	var missing []string
	for _, dep := range comp.Metadata.Dependencies {
		depComp, err := l.reg.Get(dep)
		if err != nil || depComp.State.Status != registry.StatusLoaded {
			missing = append(missing, dep)
		}
	}
	return missing
}
