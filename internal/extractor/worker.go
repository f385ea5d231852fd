package extractor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/AreTor/labaug/internal/backbone"
	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/manifest"
)

// extractAll computes the features of every manifest entry on a fixed pool of
// workers. Each result lands at its manifest index, so the output does not
// depend on scheduling. The first failure cancels the remaining work.
func (e *Extractor) extractAll(ctx context.Context, net backbone.Network, m manifest.Manifest, batch, workers int) ([][]float64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger := ctxlog.FromContext(ctx)

	feats := make([][]float64, len(m))
	readyChan := make(chan int)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
		done     atomic.Int64
	)

	for workerID := 0; workerID < workers; workerID++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range readyChan {
				if ctx.Err() != nil {
					continue
				}
				f, err := e.features(net, m[i].Path)
				if err != nil {
					logger.Error("Feature extraction failed.", "workerID", workerID, "path", m[i].Path, "error", err)
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				feats[i] = f
				if n := done.Add(1); n%int64(batch) == 0 || n == int64(len(m)) {
					logger.Debug("Batch done.", "done", n, "total", len(m))
				}
			}
		}()
	}

feed:
	for i := range m {
		select {
		case readyChan <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(readyChan)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return feats, nil
}
