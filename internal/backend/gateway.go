package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/msomdec/localstore/internal/domain"
)

// Gateway moves database images between the engine and the storage media.
// Medium failures are soft: a read or write error falls through to the next
// candidate instead of propagating, because medium availability is host-
// and permission-dependent and can change between calls. Candidates are
// re-resolved fresh on every call for the same reason.
type Gateway struct {
	selector *Selector

	mu     sync.Mutex
	active domain.Backend
}

// NewGateway builds a gateway over the given selector.
func NewGateway(selector *Selector) *Gateway {
	return &Gateway{selector: selector, active: domain.BackendMemory}
}

// Load probes the media, resolves candidates for pref, and returns the
// first non-empty image found, recording that medium as active. Absence on
// every candidate is not an error: Load returns nil and the fallback is
// recorded active.
func (g *Gateway) Load(ctx context.Context, pref domain.Preference) []byte {
	candidates := g.selector.Resolve(pref, g.selector.Probe(ctx))
	for _, m := range candidates {
		image, err := m.Read(ctx)
		if err != nil {
			// Missing image and broken medium look the same from here;
			// either way the next candidate gets a chance.
			if !errors.Is(err, domain.ErrNotFound) {
				slog.Warn("image load failed, trying next medium", "backend", m.Backend(), "error", err)
			}
			continue
		}
		g.setActive(m.Backend())
		return image
	}
	g.setActive(domain.BackendMemory)
	return nil
}

// Save writes the image to the first candidate that accepts it and records
// that medium as active. If every candidate refuses the write, the image
// goes to the non-persistent fallback: callers keep working, the data is
// simply not durable for this call, and a later Save may retry the durable
// media.
func (g *Gateway) Save(ctx context.Context, pref domain.Preference, image []byte) domain.Backend {
	candidates := g.selector.Resolve(pref, g.selector.Probe(ctx))
	for _, m := range candidates {
		if err := m.Write(ctx, image); err != nil {
			slog.Warn("image save failed, trying next medium", "backend", m.Backend(), "error", err)
			continue
		}
		g.setActive(m.Backend())
		return m.Backend()
	}

	fallback := g.selector.Fallback()
	if err := fallback.Write(ctx, image); err != nil {
		slog.Warn("fallback save failed", "error", err)
	}
	g.setActive(fallback.Backend())
	return fallback.Backend()
}

// Active reports the medium used by the most recent successful load or
// save. This is an observed fact and may diverge from the preference.
func (g *Gateway) Active() domain.Backend {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

// Available reports the currently usable backends.
func (g *Gateway) Available(ctx context.Context) []domain.Backend {
	return g.selector.Probe(ctx)
}

func (g *Gateway) setActive(b domain.Backend) {
	g.mu.Lock()
	g.active = b
	g.mu.Unlock()
}
