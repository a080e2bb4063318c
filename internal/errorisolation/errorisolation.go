// Package errorisolation contains a single failing component's load
// attempt so it cannot bring down the orchestrator, grounded in the
// original Python app/core/error_isolation.py and in the teacher's
// internal/components/error_handling.go categorization style.
package errorisolation

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// ComponentError records one failed load attempt for a single
// component (spec.md §4.5 ComponentError).
type ComponentError struct {
	Component  string
	Err        error
	Traceback  string
	Timestamp  time.Time
	RetryCount int
	CanRetry   bool
}

func (e *ComponentError) Error() string {
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

// Isolation tracks the last error per component and runs loader
// closures so a panic or error in one component's loader never
// propagates past this boundary, matching error_isolation.py's
// ErrorIsolation.safe_load contract.
type Isolation struct {
	mu         sync.Mutex
	errors     map[string]*ComponentError
	maxRetries int

	successCallbacks []func(component string, instance any)
	failureCallbacks []func(*ComponentError)
}

// New creates an empty Isolation boundary. maxRetries bounds how many
// times a component may be retried before CanRetry reports false,
// matching error_isolation.py's `retry_count < self.max_retries` check.
func New(maxRetries int) *Isolation {
	return &Isolation{errors: make(map[string]*ComponentError), maxRetries: maxRetries}
}

// RegisterSuccessCallback adds an observer invoked after every
// successful SafeLoad. Observer errors (panics) are swallowed, exactly
// as error_isolation.py's registered callbacks are.
func (i *Isolation) RegisterSuccessCallback(cb func(component string, instance any)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.successCallbacks = append(i.successCallbacks, cb)
}

// RegisterFailureCallback adds an observer invoked after every failed
// SafeLoad.
func (i *Isolation) RegisterFailureCallback(cb func(*ComponentError)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.failureCallbacks = append(i.failureCallbacks, cb)
}

// SafeLoad runs loader under panic/error isolation. On success it
// clears any prior error for component and fans out to success
// callbacks. On failure (error return or recovered panic) it records a
// ComponentError, increments the retry count, and fans out to failure
// callbacks. Callback failures are swallowed and never surface to the
// caller, matching the Python original's try/except around each
// registered callback.
func (i *Isolation) SafeLoad(component string, loader func() (any, error)) (instance any, err error) {
	defer func() {
		if r := recover(); r != nil {
			cerr := i.recordFailure(component, fmt.Errorf("panic: %v", r), debug.Stack())
			err = cerr
		}
	}()

	instance, loadErr := loader()
	if loadErr != nil {
		cerr := i.recordFailure(component, loadErr, debug.Stack())
		return nil, cerr
	}

	i.mu.Lock()
	delete(i.errors, component)
	callbacks := append([]func(string, any){}, i.successCallbacks...)
	i.mu.Unlock()

	for _, cb := range callbacks {
		invokeSuccessSafely(cb, component, instance)
	}
	return instance, nil
}

func (i *Isolation) recordFailure(component string, cause error, stack []byte) *ComponentError {
	i.mu.Lock()
	prev := i.errors[component]
	retryCount := 0
	stickyCanRetry := true
	if prev != nil {
		retryCount = prev.RetryCount + 1
		stickyCanRetry = prev.CanRetry
	}
	canRetry := stickyCanRetry && retryCount < i.maxRetries
	cerr := &ComponentError{
		Component:  component,
		Err:        cause,
		Traceback:  string(stack),
		Timestamp:  time.Now(),
		RetryCount: retryCount,
		CanRetry:   canRetry,
	}
	i.errors[component] = cerr
	callbacks := append([]func(*ComponentError){}, i.failureCallbacks...)
	i.mu.Unlock()

	for _, cb := range callbacks {
		invokeFailureSafely(cb, cerr)
	}
	return cerr
}

func invokeSuccessSafely(cb func(string, any), component string, instance any) {
	defer func() { _ = recover() }()
	cb(component, instance)
}

func invokeFailureSafely(cb func(*ComponentError), cerr *ComponentError) {
	defer func() { _ = recover() }()
	cb(cerr)
}

// LastError returns the most recently recorded error for component, if
// any.
func (i *Isolation) LastError(component string) (*ComponentError, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	e, ok := i.errors[component]
	return e, ok
}

// CanRetry reports whether component is still eligible for a retry.
func (i *Isolation) CanRetry(component string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	e, ok := i.errors[component]
	if !ok {
		return true
	}
	return e.CanRetry
}

// MarkCannotRetry sets CanRetry to false on component's recorded error,
// matching error_isolation.py's mark_cannot_retry. It has no effect when
// no error is recorded for component, and a later successful SafeLoad
// clears the record (and with it the flag).
func (i *Isolation) MarkCannotRetry(component string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if e, ok := i.errors[component]; ok {
		e.CanRetry = false
	}
}

// ClearError removes any recorded error for component, used after a
// manual reset.
func (i *Isolation) ClearError(component string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.errors, component)
}
