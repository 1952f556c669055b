// Package backend provides the storage media that hold the serialized
// database image, the selector that picks between them, and the gateway
// that moves images in and out with soft-failure fallthrough.
//
// A medium stores exactly one image. Sharing the same data directory
// between two processes is unsupported; the store assumes a single writer.
package backend

import (
	"context"

	"github.com/msomdec/localstore/internal/domain"
)

// Medium is one concrete storage substrate for the database image.
//
// Read reports a missing or empty image as domain.ErrNotFound. Any other
// error means the medium is present but misbehaving; the gateway treats
// both the same way and falls through to the next candidate.
type Medium interface {
	Backend() domain.Backend
	// Available probes whether the medium can currently be used, without
	// user-observable side effects. Availability may change between calls.
	Available(ctx context.Context) bool
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, image []byte) error
	// Wipe removes the stored image. Absence is not an error.
	Wipe(ctx context.Context) error
}
