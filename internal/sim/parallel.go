package sim

import (
	"context"
	"sync"
)

// Ensemble runs independent systems in parallel, one Simulator each.
type Ensemble struct {
	newSim func() (*Simulator, error)
}

// NewEnsemble takes a constructor because a Simulator owns its builder and
// integrator state. A constructor error fails that member's run.
func NewEnsemble(newSim func() (*Simulator, error)) *Ensemble {
	return &Ensemble{newSim: newSim}
}

func (e *Ensemble) Run(ctx context.Context, systems []*System, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(systems))
	errs := make([]error, len(systems))

	var wg sync.WaitGroup
	for i := range systems {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			s, err := e.newSim()
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, systems[idx], cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}

	return results, nil
}
