// Package orchestrator runs the full smart startup sequence: start
// resource monitoring, detect intent, load essentials, load the
// recommended extras that fit the resource budget, and report. Grounded
// in the original Python app/core/smart_startup.py SmartStartup.startup.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/systemsim/component-loader/internal/intent"
	"github.com/systemsim/component-loader/internal/logging"
	"github.com/systemsim/component-loader/internal/parallelloader"
	"github.com/systemsim/component-loader/internal/registry"
	"github.com/systemsim/component-loader/internal/resourcemonitor"
)

// Phase names mirror smart_startup.py's StartupPhase labels.
const (
	PhaseMonitoring = "start_monitoring"
	PhaseIntent     = "detect_intent"
	PhaseEssentials = "load_essentials"
	PhaseRecommend  = "load_recommended"
	PhaseFinalize   = "finalize"
)

// PhaseReport records one phase's timing and outcome.
type PhaseReport struct {
	Name       string
	DurationMS float64
	Detail     string
}

// Report is the final summary of a startup run (spec.md §4.8
// StartupReport).
type Report struct {
	Phases          []PhaseReport
	Intent          intent.Intent
	Successful      []string
	Failed          []string
	Skipped         []string
	TotalDurationMS float64
	Success         bool
}

// Orchestrator wires the registry, resource monitor, intent detector
// and parallel loader together into the 5-phase startup sequence.
type Orchestrator struct {
	reg      *registry.Registry
	monitor  *resourcemonitor.Monitor
	detector *intent.Detector
	loader   *parallelloader.Loader
	log      *logging.Logger
}

// New creates an Orchestrator from its already-constructed
// dependencies (composition root wiring lives in cmd/loaderctl).
func New(reg *registry.Registry, monitor *resourcemonitor.Monitor, detector *intent.Detector, loader *parallelloader.Loader) *Orchestrator {
	return &Orchestrator{reg: reg, monitor: monitor, detector: detector, loader: loader, log: logging.New("StartupOrchestrator")}
}

// Start runs all five phases in sequence and returns the final report.
// A failure loading essentials does not abort the run; it is recorded
// and startup continues, matching smart_startup.py's error-tolerant
// phase structure.
func (o *Orchestrator) Start(ctx context.Context) (*Report, error) {
	report := &Report{}
	startAll := time.Now()

	o.runPhase(report, PhaseMonitoring, func() string {
		o.monitor.StartMonitoring(5 * time.Second)
		return "resource monitoring started"
	})

	var detected intent.Intent
	o.runPhase(report, PhaseIntent, func() string {
		detected = o.detector.Detect()
		report.Intent = detected
		return fmt.Sprintf("detected %s (confidence %.2f)", detected.Type, detected.Confidence)
	})

	essentials := o.detector.Essential()
	var essentialResults map[string]parallelloader.Result
	o.runPhase(report, PhaseEssentials, func() string {
		results, err := o.loader.LoadMany(ctx, essentials)
		essentialResults = results
		if err != nil {
			o.log.Warnf("essential load encountered an error: %v", err)
		}
		return fmt.Sprintf("attempted %d essential component(s)", len(essentials))
	})
	classify(report, essentialResults)

	var recommendedResults map[string]parallelloader.Result
	o.runPhase(report, PhaseRecommend, func() string {
		recommended := detected.Recommended()
		toLoad := make([]string, 0, len(recommended))
		requirements := make(map[string]int, len(recommended))
		for _, name := range recommended {
			c, err := o.reg.Get(name)
			if err != nil {
				continue
			}
			if c.State.Status == registry.StatusLoaded {
				continue
			}
			toLoad = append(toLoad, name)
			requirements[name] = c.Metadata.ResourceRequirement
		}
		rec, err := o.monitor.Recommend(toLoad, requirements)
		if err != nil {
			o.log.Errorf("resource recommendation failed: %v", err)
			return "resource recommendation unavailable; skipping recommended components"
		}
		report.Skipped = append(report.Skipped, rec.Skipped...)

		results, loadErr := o.loader.LoadMany(ctx, rec.Recommended)
		recommendedResults = results
		if loadErr != nil {
			o.log.Warnf("recommended load encountered an error: %v", loadErr)
		}
		return fmt.Sprintf("recommended %d, skipped %d for budget", len(rec.Recommended), len(rec.Skipped))
	})
	classify(report, recommendedResults)

	o.runPhase(report, PhaseFinalize, func() string {
		return fmt.Sprintf("%d successful, %d failed, %d skipped", len(report.Successful), len(report.Failed), len(report.Skipped))
	})

	report.TotalDurationMS = float64(time.Since(startAll).Microseconds()) / 1000.0
	report.Success = len(report.Failed) == 0
	o.logReport(report)
	return report, nil
}

func (o *Orchestrator) runPhase(report *Report, name string, fn func() string) {
	start := time.Now()
	detail := fn()
	report.Phases = append(report.Phases, PhaseReport{
		Name:       name,
		DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
		Detail:     detail,
	})
}

func classify(report *Report, results map[string]parallelloader.Result) {
	for name, r := range results {
		if r.Err != nil {
			if !containsString(report.Failed, name) {
				report.Failed = append(report.Failed, name)
			}
		} else {
			if !containsString(report.Successful, name) {
				report.Successful = append(report.Successful, name)
			}
		}
	}
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func (o *Orchestrator) logReport(report *Report) {
	o.log.Infof("startup finished in %.0fms: %d loaded, %d failed, %d skipped",
		report.TotalDurationMS, len(report.Successful), len(report.Failed), len(report.Skipped))
	for _, name := range report.Successful {
		o.log.Infof("  OK   %s", name)
	}
	for _, name := range report.Failed {
		o.log.Errorf("  FAIL %s", name)
	}
	for _, name := range report.Skipped {
		o.log.Warnf("  SKIP %s (resource budget)", name)
	}
}
