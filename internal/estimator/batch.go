package estimator

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EstimateBatch prices one address for several services with bounded
// concurrency. A failing service only affects its own result.
func (e *Engine) EstimateBatch(ctx context.Context, req BatchRequest) ([]BatchResult, error) {
	if addressTooShort(req.Address) {
		return nil, fmt.Errorf("%w: %q", ErrAddressTooShort, normalizeAddress(req.Address))
	}

	services := req.Services
	if len(services) == 0 {
		services = e.calc.Catalog().IDs()
	}

	results := make([]BatchResult, len(services))
	var g errgroup.Group
	g.SetLimit(e.cfg.BatchConcurrency)

	for i, service := range services {
		g.Go(func() error {
			e.metrics.IncrementBatchInflight()
			defer e.metrics.DecrementBatchInflight()

			results[i] = BatchResult{Service: service}
			q, err := e.Estimate(ctx, Request{
				Address:  req.Address,
				Service:  service,
				Items:    req.Items,
				WeightKg: req.WeightKg,
				Now:      req.Now,
			})
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].Quote = &q
			return nil
		})
	}
	_ = g.Wait()

	return results, nil
}
