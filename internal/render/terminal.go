package render

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// DefaultStyle is glamour's auto-detected style.
const DefaultStyle = "auto"

// rendererPool hands out glamour renderers keyed by style and width.
// glamour.TermRenderer is not safe for concurrent Render calls, so each
// caller borrows its own instance.
type rendererPool struct {
	mu    sync.RWMutex
	pools map[string]*sync.Pool
}

var terminalPool = &rendererPool{pools: make(map[string]*sync.Pool)}

func (p *rendererPool) pool(style string, width int) *sync.Pool {
	key := fmt.Sprintf("%s:%d", style, width)

	p.mu.RLock()
	pool, ok := p.pools[key]
	p.mu.RUnlock()
	if ok {
		return pool
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if pool, ok := p.pools[key]; ok {
		return pool
	}
	pool = &sync.Pool{}
	p.pools[key] = pool
	return pool
}

func newTermRenderer(style string, width int) (*glamour.TermRenderer, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == DefaultStyle || style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	return glamour.NewTermRenderer(opts...)
}

// Terminal renders Markdown for a terminal of the given width.
func Terminal(source string, style string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}

	pool := terminalPool.pool(style, width)
	renderer, _ := pool.Get().(*glamour.TermRenderer)
	if renderer == nil {
		var err error
		renderer, err = newTermRenderer(style, width)
		if err != nil {
			return "", fmt.Errorf("create terminal renderer: %w", err)
		}
	}
	defer pool.Put(renderer)

	out, err := renderer.Render(source)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// PoolSize returns the number of style/width combinations seen so far.
func PoolSize() int {
	terminalPool.mu.RLock()
	defer terminalPool.mu.RUnlock()
	return len(terminalPool.pools)
}
