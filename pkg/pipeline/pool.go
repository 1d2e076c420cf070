package pipeline

import (
	"context"
	"sync"

	"github.com/lakeforge/etl/pkg/log"
	"github.com/lakeforge/etl/pkg/metrics"
)

// TenantRunFunc runs one tenant's job and returns its outcome. TenantPool
// is agnostic to what a "run" means — callers close over a Runner built
// per tenant.
type TenantRunFunc func(ctx context.Context, tenantSlug string) (JobOutcome, error)

// TenantPool fans a run out across tenants with bounded concurrency,
// mirroring the teacher scheduler's Start/Stop shape but as a bounded
// worker pool over a finite tenant list rather than a ticking
// reconciliation loop, since a job run completes rather than repeating
// forever.
type TenantPool struct {
	MaxConcurrent int
}

// TenantOutcome pairs a tenant slug with its job outcome or error.
type TenantOutcome struct {
	Tenant  string
	Outcome JobOutcome
	Err     error
}

// Run executes fn for every tenant in slugs, running at most
// MaxConcurrent at a time (default 1, i.e. sequential). Cancellation of
// ctx stops new tenants from starting; in-flight ones finish their
// current unit of work cooperatively.
func (p *TenantPool) Run(ctx context.Context, slugs []string, fn TenantRunFunc) []TenantOutcome {
	maxConcurrent := p.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	tokens := make(chan struct{}, maxConcurrent)
	results := make([]TenantOutcome, len(slugs))
	var wg sync.WaitGroup

	for i, slug := range slugs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		tokens <- struct{}{}
		go func(i int, slug string) {
			defer wg.Done()
			defer func() { <-tokens }()

			metrics.TenantPoolInFlight.Inc()
			defer metrics.TenantPoolInFlight.Dec()

			outcome, err := fn(ctx, slug)
			results[i] = TenantOutcome{Tenant: slug, Outcome: outcome, Err: err}
			if err != nil {
				log.WithTenant(slug).Error().Err(err).Msg("tenant run failed")
			}
		}(i, slug)
	}

	wg.Wait()
	return results
}
