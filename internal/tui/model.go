package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/travel-tavern/backend/internal/client"
	"github.com/zhouzirui/travel-tavern/backend/internal/render"
	"github.com/zhouzirui/travel-tavern/backend/internal/widget"
)

// replyMsg carries the outcome of one submission.
type replyMsg struct {
	pending widget.Pending
	reply   client.Reply
	err     error
}

// Model is the bubbletea model of the chat window.
type Model struct {
	ctx   context.Context
	conv  *widget.Conversation
	style string
	title string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	inflight int
	ready    bool
	width    int
	height   int
}

// Options configures the window.
type Options struct {
	// Style is a glamour style name; "auto" detects the terminal background.
	Style string
	Title string
}

// New creates the chat window for conv. ctx bounds outstanding requests.
func New(ctx context.Context, conv *widget.Conversation, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 4000
	ti.Prompt = "> "
	ti.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = loadingStyle

	if opts.Style == "" {
		opts.Style = render.DefaultStyle
	}
	if opts.Title == "" {
		opts.Title = "Travel Assistant"
	}

	return Model{
		ctx:     ctx,
		conv:    conv,
		style:   opts.Style,
		title:   opts.Title,
		input:   ti,
		spinner: s,
	}
}

// Init starts the cursor blink and spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 1
		inputHeight := 3
		vpHeight := m.height - headerHeight - inputHeight - 1
		if vpHeight < 3 {
			vpHeight = 3
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = scrollKeys()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.input.Width = m.width - 6
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			pending, ok := m.conv.Begin(m.input.Value())
			if !ok {
				return m, nil
			}
			m.input.Reset()
			m.inflight++
			m.refresh()
			return m, tea.Batch(m.send(pending), m.spinner.Tick)
		}

	case replyMsg:
		m.conv.Resolve(msg.pending, msg.reply, msg.err)
		m.inflight--
		m.refresh()

	case spinner.TickMsg:
		if m.inflight > 0 {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
			m.refresh()
		}
	}

	if _, ok := msg.(tea.KeyMsg); ok {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// scrollKeys leaves letter keys to the input field.
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}
}

func (m Model) send(p widget.Pending) tea.Cmd {
	conv := m.conv
	ctx := m.ctx
	return func() tea.Msg {
		reply, err := conv.Send(ctx, p)
		return replyMsg{pending: p, reply: reply, err: err}
	}
}

// refresh re-renders the transcript and keeps the newest entry visible.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m Model) renderEntries() string {
	entries := m.conv.Entries()
	if len(entries) == 0 {
		return hintStyle.Render("Tell me your name (for example \"I'm Jane\") and ask where to travel.")
	}

	width := m.viewport.Width - 2
	if width < 20 {
		width = 20
	}

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, m.renderEntry(e, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m Model) renderEntry(e widget.Entry, width int) string {
	switch e.Sender {
	case widget.SenderUser:
		return lipgloss.JoinVertical(lipgloss.Left,
			userLabelStyle.Render("You"),
			userBubbleStyle.Width(width).Render(e.Text),
		)
	case widget.SenderLoading:
		return m.spinner.View() + " " + loadingStyle.Render(e.Text)
	}

	body := plainBubbleStyle.Width(width).Render(e.Text)
	if e.Failure {
		body = errorStyle.PaddingLeft(2).Width(width).Render(e.Text)
	} else if e.Markdown {
		if out, err := render.Terminal(e.Text, m.style, width); err == nil {
			body = out
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, aiLabelStyle.Render("Assistant"), body)
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	header := headerStyle.Width(m.width).Render(m.title)
	input := inputPanelStyle.Width(m.width - 2).Render(m.input.View())
	help := hintStyle.Render("enter send • pgup/pgdown scroll • esc quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), input, help)
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, conv *widget.Conversation, opts Options) error {
	p := tea.NewProgram(New(ctx, conv, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
