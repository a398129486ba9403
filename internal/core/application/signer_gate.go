package application

import "context"

// SignerGate serializes access to the threshold-signing capability.
// The deposit claim path and the leaf optimizer share one instance and
// acquire it around each signing ceremony, so that only one ceremony is
// in flight system-wide.
type SignerGate struct {
	sem chan struct{}
}

func NewSignerGate() *SignerGate {
	return &SignerGate{sem: make(chan struct{}, 1)}
}

// Acquire blocks until the signing capability is exclusively held or the
// context is done.
func (g *SignerGate) Acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release gives the capability back. It must be called exactly once per
// successful Acquire.
func (g *SignerGate) Release() {
	<-g.sem
}
