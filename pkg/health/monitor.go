package health

import (
	"context"
	"time"
)

// Monitor runs one Checker on a fixed interval, turning its raw Result
// stream into a debounced Status via Config's consecutive-failure
// threshold, and reports every updated Status to OnUpdate. Its
// Start/Stop shape mirrors the ticker loops used elsewhere in this
// daemon (see pkg/metrics.Collector).
type Monitor struct {
	Name     string
	Checker  Checker
	Config   Config
	OnUpdate func(name string, status Status)

	status Status
	stopCh chan struct{}
}

// NewMonitor builds a Monitor around checker, using cfg's interval,
// timeout, and retry threshold to debounce raw results.
func NewMonitor(name string, checker Checker, cfg Config, onUpdate func(name string, status Status)) *Monitor {
	return &Monitor{
		Name:     name,
		Checker:  checker,
		Config:   cfg,
		OnUpdate: onUpdate,
		status:   *NewStatus(),
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling on Config.Interval until Stop is called. The
// first check runs immediately so the daemon doesn't report readiness
// based on the optimistic initial Status from NewStatus (Healthy=true).
func (m *Monitor) Start() {
	ticker := time.NewTicker(m.Config.Interval)
	go func() {
		m.tick()
		for {
			select {
			case <-ticker.C:
				m.tick()
			case <-m.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts polling.
func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), m.Config.Timeout)
	defer cancel()

	result := m.Checker.Check(ctx)
	m.status.Update(result, m.Config)

	reported := m.status
	if reported.InStartPeriod(m.Config) {
		// Don't flip readiness off while a connection pool is still
		// warming up; the raw Status is still recorded above.
		reported.Healthy = true
	}
	if m.OnUpdate != nil {
		m.OnUpdate(m.Name, reported)
	}
}
