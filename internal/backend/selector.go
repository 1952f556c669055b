package backend

import (
	"context"

	"github.com/msomdec/localstore/internal/domain"
)

// Selector resolves a backend preference against the media the host
// actually exposes. The same resolution serves both load and save, so an
// image loaded from medium X is saved back to X while X stays available.
type Selector struct {
	// media in automatic priority order: durable file first, structured
	// key-value second, non-persistent memory last.
	media []Medium
}

// NewSelector builds a selector over the given media, which must already be
// in automatic priority order.
func NewSelector(media ...Medium) *Selector {
	return &Selector{media: media}
}

// Probe reports which backends can currently be used.
func (s *Selector) Probe(ctx context.Context) []domain.Backend {
	var out []domain.Backend
	for _, m := range s.media {
		if m.Available(ctx) {
			out = append(out, m.Backend())
		}
	}
	return out
}

// Resolve returns the ordered candidate list for pref.
//
// An explicit preference yields exactly that medium, available or not: an
// explicit choice that fails is a failure, never a silent redirect. The
// automatic preference yields the priority order filtered to the probed
// set.
func (s *Selector) Resolve(pref domain.Preference, probed []domain.Backend) []Medium {
	if target, ok := pref.Concrete(); ok {
		for _, m := range s.media {
			if m.Backend() == target {
				return []Medium{m}
			}
		}
		return nil
	}

	available := make(map[domain.Backend]bool, len(probed))
	for _, b := range probed {
		available[b] = true
	}
	var out []Medium
	for _, m := range s.media {
		if available[m.Backend()] {
			out = append(out, m)
		}
	}
	return out
}

// Fallback returns the non-persistent medium, which is always last in the
// priority order.
func (s *Selector) Fallback() Medium {
	return s.media[len(s.media)-1]
}
