package storage

import (
	"context"
	"errors"
)

// Fixed keys the storefront persists under.
const (
	KeyCart = "cart"
	KeyUser = "user"
)

var ErrNotFound = errors.New("key not found")

// KV is durable key/value storage for serialized client state.
// Get returns ErrNotFound for absent keys; Delete of an absent key is not an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
