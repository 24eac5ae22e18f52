package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// MaxFields is the documented number of fields a panel shows. It is not
// enforced; callers keep positions within 0..MaxFields-1.
const MaxFields = 5

const defaultRefreshInterval = 500 * time.Millisecond

// Field is one entry of the panel body.
type Field struct {
	Name    string
	Value   string
	OneLine bool
}

// Option configures a Panel.
type Option func(*Panel)

// WithRefreshInterval sets how often the panel body is recomputed.
func WithRefreshInterval(d time.Duration) Option {
	return func(p *Panel) { p.interval = d }
}

// WithHostname sets the resolver for the diagnostic line. A nil resolver
// hides the line.
func WithHostname(fn HostnameFunc) Option {
	return func(p *Panel) { p.hostname = fn }
}

// WithTitle sets the initial title.
func WithTitle(title string) Option {
	return func(p *Panel) { p.title = title }
}

// Panel is a player's live status display: a title, up to MaxFields fields
// and the shared animated footer.
type Panel struct {
	owner    string
	backend  Backend
	footer   *Footer
	interval time.Duration
	hostname HostnameFunc
	render   *lipgloss.Renderer

	// mu guards everything below. Backend calls are made while holding it so
	// that nothing reaches the backend once the handle has been released.
	mu        sync.Mutex
	handle    Handle
	closed    bool
	title     string
	fields    map[int]Field
	lineCount int

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates the panel on the backend, renders it once, registers it for
// footer updates and starts its refresh loop.
func New(owner string, backend Backend, footer *Footer, opts ...Option) (*Panel, error) {
	p := &Panel{
		owner:    owner,
		backend:  backend,
		footer:   footer,
		interval: defaultRefreshInterval,
		render:   newRenderer(),
		fields:   make(map[int]Field),
	}
	for _, opt := range opts {
		opt(p)
	}

	h, err := backend.CreatePanel(owner)
	if err != nil {
		return nil, fmt.Errorf("create panel for %s: %w", owner, err)
	}
	p.handle = h
	p.Refresh()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	footer.register(p)
	go p.run(ctx)
	return p, nil
}

func (p *Panel) Owner() string { return p.owner }

func (p *Panel) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh()
		}
	}
}

// Refresh recomputes the title and lines and pushes them. It does nothing
// on a hidden or closed panel.
func (p *Panel) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.handle == "" {
		return
	}
	lines := p.linesLocked()
	if err := p.backend.SetTitle(p.handle, p.title); err != nil {
		logBackendErr(p.owner, "set title", err)
		return
	}
	if err := p.backend.SetLines(p.handle, lines); err != nil {
		logBackendErr(p.owner, "set lines", err)
		return
	}
	p.lineCount = len(lines)
}

// applyFooter replaces the last line with frame.
func (p *Panel) applyFooter(frame string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.handle == "" || p.lineCount == 0 {
		return
	}
	if err := p.backend.UpdateLine(p.handle, p.lineCount-1, frame); err != nil {
		logBackendErr(p.owner, "update footer", err)
	}
}

// Lines returns what the next refresh would push.
func (p *Panel) Lines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.linesLocked()
}

func (p *Panel) linesLocked() []string {
	positions := make([]int, 0, len(p.fields))
	for pos := range p.fields {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	bold := p.render.NewStyle().Bold(true)
	dim := p.render.NewStyle().Foreground(lipgloss.Color("#555555"))

	lines := []string{""}
	for _, pos := range positions {
		f := p.fields[pos]
		if f.OneLine {
			lines = append(lines, f.Name+" "+f.Value)
		} else {
			lines = append(lines, bold.Render(f.Name), f.Value)
		}
		lines = append(lines, "")
	}
	if p.hostname != nil {
		if name, err := p.hostname(); err == nil {
			lines = append(lines, dim.Render(name))
		}
	}
	lines = append(lines, p.footer.Current())
	return lines
}

func (p *Panel) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title
}

func (p *Panel) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

// SetField places f at pos, overwriting any previous field there.
func (p *Panel) SetField(pos int, f Field) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fields[pos] = f
}

func (p *Panel) RemoveField(pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.fields, pos)
}

func (p *Panel) ClearFields() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.fields)
}

// Visible reports whether the panel currently holds a backend handle.
func (p *Panel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed && p.handle != ""
}

// SetVisible shows or hides the panel. Hiding releases the backend handle;
// showing creates a new one and renders immediately. Fields are kept.
func (p *Panel) SetVisible(visible bool) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	if visible {
		if p.handle != "" {
			p.mu.Unlock()
			return nil
		}
		h, err := p.backend.CreatePanel(p.owner)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("create panel for %s: %w", p.owner, err)
		}
		p.handle = h
		p.mu.Unlock()
		p.Refresh()
		return nil
	}

	h := p.handle
	p.handle = ""
	p.lineCount = 0
	p.mu.Unlock()
	return p.release(h)
}

// Close tears the panel down: the refresh loop is stopped, the panel leaves
// the footer set and the backend handle is released, in that order. Close
// is idempotent and succeeds when the backend resource is already gone.
func (p *Panel) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	h := p.handle
	p.handle = ""
	p.mu.Unlock()

	p.cancel()
	<-p.done
	p.footer.unregister(p)
	return p.release(h)
}

func (p *Panel) release(h Handle) error {
	if h == "" {
		return nil
	}
	if err := p.backend.Destroy(h); err != nil && !errors.Is(err, ErrGone) {
		return fmt.Errorf("destroy panel for %s: %w", p.owner, err)
	}
	return nil
}

func logBackendErr(owner, op string, err error) {
	if errors.Is(err, ErrGone) {
		return
	}
	log.Printf("panel: %s for %s: %v", op, owner, err)
}
