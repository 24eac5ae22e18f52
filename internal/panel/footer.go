package panel

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultFanout = 16

// Footer owns the animation shared by every panel: the frames generated
// from the server address, the current index and frame, and the set of
// panels to update. All panels show the same frame at the same tick.
type Footer struct {
	interval time.Duration
	fanout   int
	palette  Palette

	mu        sync.Mutex
	address   string
	framesFor string
	frames    []string
	index     int
	current   string
	panels    map[*Panel]struct{}

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewFooter prepares the frames for address. The animation does not run
// until Start is called.
func NewFooter(address string, palette Palette, interval time.Duration) (*Footer, error) {
	frames, err := Frames(address, palette)
	if err != nil {
		return nil, err
	}
	return &Footer{
		interval:  interval,
		fanout:    defaultFanout,
		palette:   palette,
		address:   address,
		framesFor: address,
		frames:    frames,
		current:   frames[0],
		panels:    make(map[*Panel]struct{}),
	}, nil
}

// SetFanout bounds how many panel updates run at once during a tick.
func (f *Footer) SetFanout(n int) {
	if n < 1 {
		n = 1
	}
	f.fanout = n
}

// SetAddress changes the animated text. New frames are generated on the
// next tick.
func (f *Footer) SetAddress(address string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.address = address
}

// Start runs the animation until ctx is cancelled or Stop is called.
// Calling Start on a running footer does nothing.
func (f *Footer) Start(ctx context.Context) {
	f.runMu.Lock()
	defer f.runMu.Unlock()
	if f.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	go f.loop(ctx, f.done)
}

// Stop halts the animation and waits for the running tick to finish.
func (f *Footer) Stop() {
	f.runMu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel, f.done = nil, nil
	f.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (f *Footer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Tick(ctx)
		}
	}
}

// Tick advances the animation by one frame and pushes it to every
// registered panel. The index and frame are updated once, before any panel
// is scheduled; a panel torn down in between is skipped by the panel
// itself.
func (f *Footer) Tick(ctx context.Context) {
	f.mu.Lock()
	if f.framesFor != f.address {
		// The palette was validated in NewFooter, so only the text changes.
		if frames, err := Frames(f.address, f.palette); err == nil {
			f.frames = frames
			f.framesFor = f.address
		}
	}
	f.index = (f.index + 1) % len(f.frames)
	frame := f.frames[f.index]
	f.current = frame
	targets := make([]*Panel, 0, len(f.panels))
	for p := range f.panels {
		targets = append(targets, p)
	}
	f.mu.Unlock()

	if len(targets) == 0 {
		return
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(f.fanout)
	for _, p := range targets {
		p := p
		g.Go(func() error {
			p.applyFooter(frame)
			return nil
		})
	}
	_ = g.Wait()
}

// Current returns the frame shown by the last tick.
func (f *Footer) Current() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Index returns the position of Current in the frame sequence.
func (f *Footer) Index() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index
}

// FramesSnapshot returns a copy of the current frame sequence.
func (f *Footer) FramesSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.frames...)
}

// Registered returns the number of panels receiving footer updates.
func (f *Footer) Registered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.panels)
}

func (f *Footer) register(p *Panel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.panels[p] = struct{}{}
}

func (f *Footer) unregister(p *Panel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.panels, p)
}
