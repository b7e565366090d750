package probe

import (
	"context"
	"sync"
)

// Pauser provides a cooperative pause/resume gate for probe tasks.
// When paused, calls to Wait block until resumed or the context is
// canceled. When not paused, Wait is near-zero overhead.
type Pauser struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{} // valid while paused; closed on resume
}

// NewPauser creates a Pauser in the running (unpaused) state.
func NewPauser() *Pauser {
	return &Pauser{}
}

// Wait blocks the calling goroutine while the sweep is paused. It
// returns ctx.Err() if the context is canceled during the pause and
// nil otherwise.
func (p *Pauser) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		paused, resume := p.paused, p.resume
		p.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-resume:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Toggle flips between paused and running states.
// Returns the new paused state (true = now paused).
func (p *Pauser) Toggle() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resume)
	} else {
		p.paused = true
		p.resume = make(chan struct{})
	}
	return p.paused
}

// IsPaused returns whether the sweep is currently paused.
func (p *Pauser) IsPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}
