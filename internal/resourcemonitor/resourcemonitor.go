// Package resourcemonitor samples host CPU/memory via gopsutil/v4 and
// turns a requested component set into an affordable subset, grounded
// in the original Python app/core/resource_monitor.py this replaces.
package resourcemonitor

import (
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/systemsim/component-loader/internal/logging"
)

// snapshotRingSize caps the in-memory history, matching the Python
// monitor's max_history=100.
const snapshotRingSize = 100

// Snapshot is a single point-in-time resource reading (spec.md §4.2
// ResourceSnapshot).
type Snapshot struct {
	Timestamp      time.Time
	CPUPercent     float64
	MemoryPercent  float64
	AvailableMB    int
	TotalMB        int
}

// Recommendation is the outcome of budgeting a requested component set
// against currently available memory (spec.md §4.2 ResourceRecommendation).
type Recommendation struct {
	Recommended []string
	Skipped     []string
	BudgetMB    int
	RequiredMB  int
}

// Monitor samples resource usage and produces load recommendations.
type Monitor struct {
	minReserveMB  int
	maxCPUPercent float64

	mu      sync.Mutex
	history []Snapshot
	stopCh  chan struct{}
	wg      sync.WaitGroup
	log     *logging.Logger
}

// New creates a Monitor that always reserves minReserveMB of memory
// headroom below whatever the host reports as available, and treats
// the host as unaffordable once CPU usage exceeds maxCPUPercent.
func New(minReserveMB int, maxCPUPercent float64) *Monitor {
	return &Monitor{
		minReserveMB:  minReserveMB,
		maxCPUPercent: maxCPUPercent,
		log:           logging.New("ResourceMonitor"),
	}
}

// Snapshot takes a single CPU/memory reading. The 100ms CPU sampling
// window matches resource_monitor.py's psutil.cpu_percent(interval=0.1).
func (m *Monitor) Snapshot() (Snapshot, error) {
	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return Snapshot{}, err
	}
	cpuPercent := 0.0
	if len(percents) > 0 {
		cpuPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Timestamp:     time.Now(),
		CPUPercent:    cpuPercent,
		MemoryPercent: vm.UsedPercent,
		AvailableMB:   int(vm.Available / (1024 * 1024)),
		TotalMB:       int(vm.Total / (1024 * 1024)),
	}

	m.mu.Lock()
	m.history = append(m.history, snap)
	if len(m.history) > snapshotRingSize {
		m.history = m.history[len(m.history)-snapshotRingSize:]
	}
	m.mu.Unlock()

	return snap, nil
}

// History returns a copy of the retained snapshot ring.
func (m *Monitor) History() []Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Snapshot, len(m.history))
	copy(out, m.history)
	return out
}

// Affordable reports whether requiredMB fits within current available
// memory minus the reserve AND current CPU usage is within budget,
// matching resource_monitor.py's is_resource_available (available -
// required >= min_reserve_mb and cpu_usage <= max_cpu_percent).
func (m *Monitor) Affordable(requiredMB int) bool {
	snap, err := m.Snapshot()
	if err != nil {
		return false
	}
	if snap.CPUPercent > m.maxCPUPercent {
		return false
	}
	budget := snap.AvailableMB - m.minReserveMB
	return requiredMB <= budget
}

// Recommend implements the greedy budgeting algorithm from
// resource_monitor.py get_recommendation: if every requested component
// fits within budget, admit all of them; otherwise sort ascending by
// requirement (tie-broken by name) and greedily admit while the
// running total stays within budget.
func (m *Monitor) Recommend(components []string, requirementMB map[string]int) (Recommendation, error) {
	snap, err := m.Snapshot()
	if err != nil {
		return Recommendation{}, err
	}
	budget := snap.AvailableMB - m.minReserveMB
	if budget < 0 {
		budget = 0
	}
	rec := recommendWithinBudget(budget, components, requirementMB)
	if len(rec.Skipped) > 0 {
		m.log.Warnf("skipping %d component(s) to stay within %dMB budget: %v", len(rec.Skipped), budget, rec.Skipped)
	}
	return rec, nil
}

// recommendWithinBudget is the pure greedy-admission algorithm, split
// out from Recommend so it can be exercised without sampling the live
// host.
func recommendWithinBudget(budget int, components []string, requirementMB map[string]int) Recommendation {
	total := 0
	for _, name := range components {
		total += requirementMB[name]
	}

	if total <= budget {
		return Recommendation{
			Recommended: append([]string(nil), components...),
			BudgetMB:    budget,
			RequiredMB:  total,
		}
	}

	ordered := append([]string(nil), components...)
	sort.Slice(ordered, func(i, j int) bool {
		ri, rj := requirementMB[ordered[i]], requirementMB[ordered[j]]
		if ri != rj {
			return ri < rj
		}
		return ordered[i] < ordered[j]
	})

	var recommended, skipped []string
	running := 0
	for _, name := range ordered {
		req := requirementMB[name]
		if running+req <= budget {
			recommended = append(recommended, name)
			running += req
		} else {
			skipped = append(skipped, name)
		}
	}

	return Recommendation{
		Recommended: recommended,
		Skipped:     skipped,
		BudgetMB:    budget,
		RequiredMB:  total,
	}
}

// StartMonitoring begins a background sampling loop, matching
// resource_monitor.py's start_monitoring daemon thread.
func (m *Monitor) StartMonitoring(interval time.Duration) {
	m.mu.Lock()
	if m.stopCh != nil {
		m.mu.Unlock()
		return
	}
	m.stopCh = make(chan struct{})
	stop := m.stopCh
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				snap, err := m.Snapshot()
				if err != nil {
					m.log.Errorf("sampling failed: %v", err)
					continue
				}
				if snap.AvailableMB < 2*m.minReserveMB {
					m.log.Warnf("low memory: %dMB available, reserve is %dMB", snap.AvailableMB, m.minReserveMB)
				}
				if snap.CPUPercent > m.maxCPUPercent {
					m.log.Warnf("high CPU usage: %.1f%%", snap.CPUPercent)
				}
			}
		}
	}()
}

// StopMonitoring stops the background sampling loop started by
// StartMonitoring, if any, and waits for it to exit.
func (m *Monitor) StopMonitoring() {
	m.mu.Lock()
	stop := m.stopCh
	m.stopCh = nil
	m.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	m.wg.Wait()
}
