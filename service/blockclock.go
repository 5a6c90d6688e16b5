// Package service hosts the long-running pieces of the node: the block clock
// standing in for the ledger's height counter and the HTTP API server.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/infimum-dao/infimum-node/log"
)

// BlockClock is a monotonic block-height counter advancing at a fixed wall
// clock interval. It stands in for the hosting ledger's block number and
// implements the engine's time source.
type BlockClock struct {
	height   atomic.Uint64
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// NewBlockClock creates a clock starting at the given height.
func NewBlockClock(start uint64, interval time.Duration) *BlockClock {
	bc := &BlockClock{interval: interval}
	bc.height.Store(start)
	return bc
}

// Now returns the current block height.
func (bc *BlockClock) Now() uint64 {
	return bc.height.Load()
}

// Start begins advancing the height. It returns an error if the clock is
// already running.
func (bc *BlockClock) Start(ctx context.Context) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.cancel != nil {
		return fmt.Errorf("service already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	bc.cancel = cancel

	go bc.tick(ctx)
	return nil
}

// Stop halts the clock. The height is retained.
func (bc *BlockClock) Stop() {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	if bc.cancel != nil {
		bc.cancel()
		bc.cancel = nil
	}
}

func (bc *BlockClock) tick(ctx context.Context) {
	ticker := time.NewTicker(bc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h := bc.height.Add(1)
			log.Debugw("new block", "height", h)
		}
	}
}
