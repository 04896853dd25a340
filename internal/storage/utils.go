package storage

import (
	"context"
	"sync"

	"github.com/chrissnell/gardensim/internal/types"
	"go.uber.org/zap"
)

// ProcessSnapshots feeds snapshots from snapshotChan to processor until the
// channel is closed or ctx is cancelled. On cancellation whatever is already
// buffered is still processed. Errors are logged and the loop continues. The
// caller must have done wg.Add(1).
func ProcessSnapshots(ctx context.Context, wg *sync.WaitGroup, snapshotChan <-chan types.Snapshot, processor func(types.Snapshot) error, name string, logger *zap.SugaredLogger) {
	defer wg.Done()

	process := func(s types.Snapshot) {
		if err := processor(s); err != nil {
			logger.Errorw("could not store snapshot", "engine", name, "key", s.Key(), "error", err)
		}
	}

	for {
		select {
		case s, ok := <-snapshotChan:
			if !ok {
				return
			}
			process(s)
		case <-ctx.Done():
			logger.Infof("cancellation request received. Cancelling %s snapshot processor", name)
			for {
				select {
				case s, ok := <-snapshotChan:
					if !ok {
						return
					}
					process(s)
				default:
					return
				}
			}
		}
	}
}
