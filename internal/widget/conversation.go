// Package widget is a headless chat view: it keeps the ordered list of
// entries a chat window shows and drives the request/response exchange
// with the backend.
package widget

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/zhouzirui/travel-tavern/backend/internal/client"
	"github.com/zhouzirui/travel-tavern/backend/internal/render"
)

// Text shown by the widget itself.
const (
	LoadingText    = "Typing..."
	GenericFailure = "Sorry, I couldn't connect to the server. Please try again."
)

// Sender 表示条目的来源。
type Sender string

const (
	SenderUser    Sender = "user"
	SenderAI      Sender = "ai"
	SenderLoading Sender = "loading"
)

// Entry is one item in the chat window. Entries are never modified after
// they are created.
type Entry struct {
	ID     int
	Text   string
	Sender Sender
	// Markdown marks AI replies whose Text is interpreted as Markdown.
	// Everything else is displayed as plain text.
	Markdown bool
	// HTML is the markup shown for the entry.
	HTML string
	// Failure marks the generic failure notice and "Error: ..." entries.
	Failure bool
}

// Transport sends one message to the backend.
type Transport interface {
	Chat(ctx context.Context, message string) (client.Reply, error)
}

// Pending is a submission that has been displayed but not yet answered.
type Pending struct {
	Message     string
	placeholder int
}

// Conversation is safe for concurrent use. Overlapping submissions are not
// serialized; each one owns and removes only its own placeholder.
type Conversation struct {
	mu        sync.Mutex
	entries   []Entry
	nextID    int
	transport Transport
	sanitize  bool
}

// Option customises a Conversation.
type Option func(*Conversation)

// WithSanitize toggles sanitizing of rendered AI HTML. It is on by default.
func WithSanitize(enabled bool) Option {
	return func(c *Conversation) { c.sanitize = enabled }
}

// New creates an empty conversation that submits through transport.
func New(transport Transport, opts ...Option) *Conversation {
	c := &Conversation{
		transport: transport,
		sanitize:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Begin shows text as a user entry followed by a loading placeholder.
// It reports false, and changes nothing, when text is blank.
func (c *Conversation) Begin(text string) (Pending, bool) {
	message := strings.TrimSpace(text)
	if message == "" {
		return Pending{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendLocked(plainEntry(message, SenderUser))
	id := c.appendLocked(plainEntry(LoadingText, SenderLoading))
	return Pending{Message: message, placeholder: id}, true
}

// Send issues the request for p. It does not touch the entries.
func (c *Conversation) Send(ctx context.Context, p Pending) (client.Reply, error) {
	return c.transport.Chat(ctx, p.Message)
}

// Resolve removes p's placeholder and appends the outcome. It returns the
// appended entry, or false when a successful reply carried neither a
// response nor an error.
func (c *Conversation) Resolve(p Pending, reply client.Reply, err error) (Entry, bool) {
	var entry Entry
	var ok bool

	switch {
	case err != nil:
		log.Printf("[widget] request failed: %v", err)
		entry, ok = plainEntry(GenericFailure, SenderAI), true
		entry.Failure = true
	case reply.Response != "":
		entry, ok = c.markdownEntry(reply.Response), true
	case reply.Error != "":
		entry, ok = plainEntry("Error: "+reply.Error, SenderAI), true
		entry.Failure = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(p.placeholder)
	if !ok {
		return Entry{}, false
	}
	entry.ID = c.appendLocked(entry)
	return entry, true
}

// Submit runs a whole exchange: Begin, Send and Resolve. It reports
// whether anything was submitted.
func (c *Conversation) Submit(ctx context.Context, text string) bool {
	p, ok := c.Begin(text)
	if !ok {
		return false
	}
	reply, err := c.Send(ctx, p)
	c.Resolve(p, reply, err)
	return true
}

// Entries returns a snapshot in display order.
func (c *Conversation) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Clear removes every entry.
func (c *Conversation) Clear() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}

// Render returns the chat window as HTML, one element per entry.
func (c *Conversation) Render() string {
	var b strings.Builder
	for _, e := range c.Entries() {
		b.WriteString(`<div class="chat-message `)
		b.WriteString(string(e.Sender))
		b.WriteString(`">`)
		b.WriteString(e.HTML)
		b.WriteString("</div>\n")
	}
	return b.String()
}

func (c *Conversation) markdownEntry(text string) Entry {
	html := render.UnsafeHTML(text)
	if c.sanitize {
		html = render.Sanitize(html)
	}
	return Entry{Text: text, Sender: SenderAI, Markdown: true, HTML: html}
}

func plainEntry(text string, sender Sender) Entry {
	return Entry{Text: text, Sender: sender, HTML: "<p>" + render.Escape(text) + "</p>"}
}

func (c *Conversation) appendLocked(e Entry) int {
	c.nextID++
	e.ID = c.nextID
	c.entries = append(c.entries, e)
	return e.ID
}

func (c *Conversation) removeLocked(id int) {
	for i, e := range c.entries {
		if e.ID == id {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return
		}
	}
}
