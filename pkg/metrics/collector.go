package metrics

import "time"

// PoolStat is one tenant's database connection pool gauge reading.
type PoolStat struct {
	Tenant string
	Open   int
}

// PoolStatsSource is implemented by whatever owns the live per-tenant
// database connection pools (pkg/pipeline's Runner registry) so the
// collector can poll gauges without importing pipeline and creating a
// cycle.
type PoolStatsSource interface {
	PoolStats() []PoolStat
}

// Collector periodically samples DB connection pool gauges, mirroring
// the teacher's ticker-loop Start/Stop shape.
type Collector struct {
	source PoolStatsSource
	stopCh chan struct{}
}

// NewCollector creates a collector that samples source every tick.
func NewCollector(source PoolStatsSource) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	if c.source == nil {
		return
	}
	for _, stat := range c.source.PoolStats() {
		DBConnPoolOpen.WithLabelValues(stat.Tenant).Set(float64(stat.Open))
	}
}
