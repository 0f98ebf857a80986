package gpu

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Render owns the GPU's dedicated render goroutine: the bus thread calls
// Enqueue/EnqueueGP1 to forward words onto CommandCh/GP1Ch (buffered,
// non-blocking up to their capacity) and reads StatusWord atomically; the
// render goroutine runs GP0/GP1 on them, and only it
// touches VRAM and the GPU's command-decode state, matching spec.md §5's
// two-thread concurrency model ("render thread owns VRAM; bus-side
// forwards commands via channels + atomic status word").
type Render struct {
	gpu *GPU
	g   *errgroup.Group
	ctx context.Context
}

// Start launches the render goroutine under ctx; canceling ctx exits it
// at once, and Stop exits it after CommandCh is drained.
func (g *GPU) Start(ctx context.Context) *Render {
	eg, egCtx := errgroup.WithContext(ctx)
	r := &Render{gpu: g, g: eg, ctx: egCtx}
	eg.Go(func() error {
		for {
			select {
			case <-egCtx.Done():
				return egCtx.Err()
			case word, ok := <-g.CommandCh:
				if !ok {
					return nil
				}
				g.GP0(word)
			case word, ok := <-g.GP1Ch:
				if !ok {
					return nil
				}
				g.GP1(word)
			case req := <-g.vramReadCh:
				req.reply <- g.ReadVRAMData()
			}
		}
	})
	return r
}

// Stop closes the command channel and waits for the render goroutine to
// drain and exit.
func (r *Render) Stop() error {
	close(r.gpu.CommandCh)
	return r.g.Wait()
}

// Enqueue forwards a GP0 command word from the bus thread to the render
// goroutine without blocking the caller on VRAM access.
func (g *GPU) Enqueue(word uint32) {
	g.CommandCh <- word
}

// EnqueueGP1 forwards a GP1 display-control word to the render goroutine so
// display-control writes (including the full state reset on GP1(0x00)) are
// serialized against GP0 command dispatch instead of racing it.
func (g *GPU) EnqueueGP1(word uint32) {
	g.GP1Ch <- word
}

// RequestVRAMRead asks the render goroutine for the next word of an
// in-progress VRAM-to-CPU transfer and blocks for the reply, keeping
// readBuf/readPos exclusively owned by that goroutine.
func (g *GPU) RequestVRAMRead() uint32 {
	req := vramReadRequest{reply: make(chan uint32, 1)}
	g.vramReadCh <- req
	return <-req.reply
}
