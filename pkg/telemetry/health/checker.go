package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the state reported by a probe.
type Status string

const (
	StatusOK        Status = "ok"
	StatusReady     Status = "ready"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckFunc reports whether a component is healthy. It returns nil when
// healthy, or an error describing the problem, for example the error of
// the last failed ruleset reload.
type CheckFunc func(ctx context.Context) error

// CheckResult is the outcome of a single named check.
type CheckResult struct {
	Status     Status  `json:"status"`
	Message    string  `json:"message,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Report is the body of a probe response.
type Report struct {
	Status    Status                 `json:"status"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Checker holds the named readiness checks of the process.
type Checker struct {
	mu      sync.RWMutex
	checks  map[string]CheckFunc
	timeout time.Duration
	started time.Time
}

// New creates a checker bounding each check by timeout (5s when 0).
func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{
		checks:  make(map[string]CheckFunc),
		timeout: timeout,
		started: time.Now(),
	}
}

// RegisterCheck registers check under name, replacing any previous check
// of that name.
func (c *Checker) RegisterCheck(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// ListChecks returns the registered check names in sorted order.
func (c *Checker) ListChecks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CheckLiveness reports the process as alive with its uptime.
func (c *Checker) CheckLiveness(ctx context.Context) Report {
	return Report{
		Status:    StatusOK,
		Uptime:    time.Since(c.started).Truncate(time.Second).String(),
		Timestamp: time.Now(),
	}
}

// CheckReadiness runs every check concurrently. The report is ready only
// when every check passes.
func (c *Checker) CheckReadiness(ctx context.Context) Report {
	names := c.ListChecks()
	c.mu.RLock()
	funcs := make([]CheckFunc, len(names))
	for i, name := range names {
		funcs[i] = c.checks[name]
	}
	c.mu.RUnlock()

	results := make([]CheckResult, len(names))
	var wg sync.WaitGroup
	for i, check := range funcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.run(ctx, check)
		}()
	}
	wg.Wait()

	report := Report{Status: StatusReady, Timestamp: time.Now()}
	if len(names) > 0 {
		report.Checks = make(map[string]CheckResult, len(names))
	}
	for i, name := range names {
		report.Checks[name] = results[i]
		if results[i].Status != StatusOK {
			report.Status = StatusDegraded
		}
	}
	return report
}

// run executes check within the checker timeout. A panicking check is
// reported as unhealthy.
func (c *Checker) run(ctx context.Context, check CheckFunc) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("check panicked: %v", r)
			}
		}()
		done <- check(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("check timed out after %s", c.timeout)
	}

	res := CheckResult{Status: StatusOK, DurationMS: float64(time.Since(start).Microseconds()) / 1000}
	if err != nil {
		res.Status = StatusUnhealthy
		res.Message = err.Error()
	}
	return res
}
