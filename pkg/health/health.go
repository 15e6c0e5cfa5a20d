// Package health exposes liveness and readiness probes for the dev server.
//
// Probes run on background tickers and flip state only after consecutive
// results cross a threshold, so a single slow check does not bounce the
// service in and out of rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports on one component: nil means healthy.
type CheckFunc func(ctx context.Context) error

// ProbeOption tunes one registered probe.
type ProbeOption func(*probe)

// WithFailureThreshold sets how many consecutive failures flip a probe
// unhealthy. Default 3.
func WithFailureThreshold(n int) ProbeOption {
	return func(p *probe) { p.failAfter = n }
}

// WithSuccessThreshold sets how many consecutive passes flip a probe healthy
// again. Default 1.
func WithSuccessThreshold(n int) ProbeOption {
	return func(p *probe) { p.passAfter = n }
}

// probe is one registered check plus its debounce state.
//
// tick() runs on a single goroutine, so the streak counters stay plain ints.
// The healthy flag and last error are read by HTTP handlers concurrently and
// go through atomics.
type probe struct {
	name      string
	timeout   time.Duration
	fn        CheckFunc
	failAfter int
	passAfter int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	failStreak int
	passStreak int
}

func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.fn(ctx)
	p.lastErr.Store(&err)

	if err != nil {
		p.passStreak = 0
		p.failStreak++
		if p.failStreak >= p.failAfter {
			p.healthy.Store(false)
		}
		return
	}
	p.failStreak = 0
	p.passStreak++
	if p.passStreak >= p.passAfter {
		p.healthy.Store(true)
	}
}

// failure returns the displayable failure message, or ok=false while healthy.
func (p *probe) failure() (string, bool) {
	if p.healthy.Load() {
		return "", false
	}
	if errp := p.lastErr.Load(); errp != nil && *errp != nil {
		return (*errp).Error(), true
	}
	return "probe unhealthy", true
}

// Checks holds the service's liveness and readiness probes.
type Checks struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns an empty probe set. The service starts not ready; call
// SetReady(true) once initialization is done.
func New() *Checks {
	return &Checks{}
}

func newProbe(name string, timeout time.Duration, fn CheckFunc, opts []ProbeOption) *probe {
	p := &probe{
		name:      name,
		timeout:   timeout,
		fn:        fn,
		failAfter: 3,
		passAfter: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	// Healthy until a failure streak says otherwise.
	p.healthy.Store(true)
	return p
}

// AddLiveness registers a probe behind the /livez endpoint. Liveness failures
// mean the process itself is broken and should be restarted.
func (c *Checks) AddLiveness(name string, timeout time.Duration, fn CheckFunc, opts ...ProbeOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = append(c.liveness, newProbe(name, timeout, fn, opts))
}

// AddReadiness registers a probe behind the /readyz endpoint. Readiness
// failures take the service out of rotation without restarting it.
func (c *Checks) AddReadiness(name string, timeout time.Duration, fn CheckFunc, opts ...ProbeOption) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness = append(c.readiness, newProbe(name, timeout, fn, opts))
}

// Start launches one ticker goroutine per registered probe, each running the
// probe immediately and then every interval. Register all probes before
// calling Start.
func (c *Checks) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	probes := make([]*probe, 0, len(c.liveness)+len(c.readiness))
	probes = append(probes, c.liveness...)
	probes = append(probes, c.readiness...)
	c.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.tick(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.tick(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (c *Checks) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Graceful shutdown sets it false
// first so load balancers drain before the listener closes.
func (c *Checks) SetReady(ready bool) {
	c.ready.Store(ready)
}

// IsReady reports whether the manual gate is open and every readiness probe
// passes.
func (c *Checks) IsReady() bool {
	if !c.ready.Load() {
		return false
	}
	c.mu.RLock()
	probes := c.readiness
	c.mu.RUnlock()
	for _, p := range probes {
		if _, failed := p.failure(); failed {
			return false
		}
	}
	return true
}

type probeResponse struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes, 503 with
// per-probe failure messages otherwise.
func (c *Checks) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	probes := append([]*probe(nil), c.liveness...)
	c.mu.RUnlock()
	writeProbes(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 while the service is marked ready and
// every readiness probe passes.
func (c *Checks) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	probes := append([]*probe(nil), c.readiness...)
	c.mu.RUnlock()

	failed := failures(probes)
	if !c.ready.Load() {
		failed["_gate"] = "service not marked ready"
	}
	writeProbes(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if msg, ok := p.failure(); ok {
			failed[p.name] = msg
		}
	}
	return failed
}

func writeProbes(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	resp := probeResponse{Status: "ok"}
	status := http.StatusOK
	if len(failed) > 0 {
		resp.Status = "unhealthy"
		resp.Failures = failed
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
