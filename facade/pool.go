package facade

import (
	"context"

	"fluidinfo/models"
)

// workerPool bounds how many Facade calls run concurrently, so the
// synchronous store work underneath never saturates the process while
// the caller's event loop stays non-blocking.
type workerPool struct {
	slots chan struct{}
}

func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = 1
	}
	return &workerPool{slots: make(chan struct{}, size)}
}

// acquire blocks until a slot frees up or ctx is cancelled. A cancelled
// wait releases nothing: the caller never ran.
func (p *workerPool) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return models.Wrap(models.KindFeatureError, ctx.Err(), "request cancelled while queued")
	}
}

func (p *workerPool) release() { <-p.slots }
