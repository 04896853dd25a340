// Package storage defines the interface implemented by the daily snapshot
// storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/gardensim/internal/types"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.Snapshot
}
