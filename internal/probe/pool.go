package probe

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// PoolConfig holds options for the probe pool.
type PoolConfig struct {
	Concurrency int
	Pauser      *Pauser                  // nil = no pause support
	OnResult    func(r Result, done int) // called once per completion, in completion order
}

// RunPool probes every key with at most cfg.Concurrency probes in
// flight at once. One task is launched per key; tasks beyond the limit
// wait on the admission gate, not on earlier keys finishing. Results
// are returned in completion order together with the set of valid keys.
// On ctx cancellation outstanding probes are abandoned and the partial
// results collected so far are returned.
func RunPool(ctx context.Context, prober *Prober, keys []string, cfg PoolConfig) ([]Result, map[string]struct{}) {
	sem := semaphore.NewWeighted(int64(cfg.Concurrency))
	resultsCh := make(chan Result, cfg.Concurrency)

	grp, grpCtx := errgroup.WithContext(ctx)
	for _, key := range keys {
		key := key // per-iteration copy: the closures below must each see their own key
		grp.Go(func() error {
			if cfg.Pauser != nil {
				if err := cfg.Pauser.Wait(grpCtx); err != nil {
					return err
				}
			}
			if err := sem.Acquire(grpCtx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			res, err := prober.Probe(grpCtx, key)
			if err != nil {
				return err
			}
			select {
			case resultsCh <- res:
				return nil
			case <-grpCtx.Done():
				return grpCtx.Err()
			}
		})
	}

	// Closer: once every task is done, no more results can arrive.
	go func() {
		_ = grp.Wait()
		close(resultsCh)
	}()

	// Single collector, so the slice and set need no further locking.
	var results []Result
	successSet := make(map[string]struct{})
	for res := range resultsCh {
		results = append(results, res)
		if res.Category == CategoryValid {
			successSet[res.Key] = struct{}{}
		}
		if cfg.OnResult != nil {
			cfg.OnResult(res, len(results))
		}
	}

	return results, successSet
}
