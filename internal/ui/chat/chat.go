// Package chat provides the interactive terminal session: a scrollback
// viewport over the conversation, a textarea for the next prompt, and a
// status line with the conversation identifier and running cost.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/headless/internal/agent/runner"
	"github.com/zjrosen/headless/internal/log"
)

var (
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Italic(true)
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// message is one rendered conversation entry.
type message struct {
	role    string // "user", "assistant", "error"
	content string
}

// responseMsg delivers a finished turn back to the update loop.
type responseMsg struct {
	res *runner.Result
	err error
}

// chunkMsg delivers streamed assistant text mid-turn.
type chunkMsg struct {
	text string
}

type tickMsg struct{}

// Model is the bubbletea model for the interactive session.
type Model struct {
	runner *runner.Runner
	ctx    context.Context

	viewport viewport.Model
	input    textarea.Model
	md       *markdownRenderer

	messages []message
	pending  string
	chunks   chan string

	waiting      bool
	spinnerFrame int
	totalCost    float64
	width        int
	height       int
	ready        bool
}

// New creates the chat model over an already configured runner.
func New(ctx context.Context, r *runner.Runner) Model {
	input := textarea.New()
	input.Placeholder = "Prompt (enter to send, /reset, /quit)"
	input.SetHeight(3)
	input.CharLimit = 0
	input.ShowLineNumbers = false
	input.Focus()

	return Model{
		runner: r,
		ctx:    ctx,
		input:  input,
		chunks: make(chan string, 64),
	}
}

const spinnerInterval = 120 * time.Millisecond

// Init starts the spinner tick.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update handles input, streamed chunks, and finished turns.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		inputHeight := m.input.Height() + 1
		statusHeight := 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-inputHeight-statusHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - inputHeight - statusHeight
		}
		m.input.SetWidth(msg.Width)
		if md, err := newMarkdownRenderer(msg.Width - 2); err == nil {
			m.md = md
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			prompt := strings.TrimSpace(m.input.Value())
			if prompt == "" {
				return m, nil
			}
			m.input.Reset()
			return m.submit(prompt)
		}

	case chunkMsg:
		m.pending += msg.text
		m.refresh()
		return m, m.awaitChunk()

	case responseMsg:
		m.waiting = false
		m.pending = ""
		if msg.err != nil {
			m.messages = append(m.messages, message{role: "error", content: msg.err.Error()})
		} else {
			role := "assistant"
			if msg.res.IsError() {
				role = "error"
			}
			m.messages = append(m.messages, message{role: role, content: msg.res.Text})
			m.totalCost += msg.res.Stats.CostUSD
		}
		m.refresh()
		return m, nil

	case tickMsg:
		if m.waiting {
			m.spinnerFrame = (m.spinnerFrame + 1) % len(spinnerFrames)
		}
		return m, tick()
	}

	var cmd tea.Cmd
	if m.waiting {
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	var cmds []tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submit(prompt string) (tea.Model, tea.Cmd) {
	switch prompt {
	case "/quit", "/exit":
		return m, tea.Quit
	case "/reset":
		if err := m.runner.Reset(); err != nil {
			m.messages = append(m.messages, message{role: "error", content: err.Error()})
		} else {
			m.messages = append(m.messages, message{role: "assistant", content: "Conversation reset."})
		}
		m.refresh()
		return m, nil
	}

	m.messages = append(m.messages, message{role: "user", content: prompt})
	m.waiting = true
	m.pending = ""
	m.refresh()

	run := func() tea.Msg {
		res, err := m.runner.Run(m.ctx, prompt, runner.RunOptions{
			OnText: func(text string) {
				select {
				case m.chunks <- text:
				default:
					log.Debug(log.CatUI, "chunk channel full, dropping chunk")
				}
			},
		})
		return responseMsg{res: res, err: err}
	}
	return m, tea.Batch(run, m.awaitChunk())
}

// awaitChunk relays one streamed chunk into the update loop.
func (m Model) awaitChunk() tea.Cmd {
	return func() tea.Msg {
		text, ok := <-m.chunks
		if !ok {
			return nil
		}
		return chunkMsg{text: text}
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.role {
		case "user":
			sb.WriteString(userStyle.Render("You"))
			sb.WriteString("\n")
			sb.WriteString(wordwrap.String(msg.content, m.viewport.Width-2))
		case "assistant":
			sb.WriteString(assistantStyle.Render("Agent"))
			sb.WriteString("\n")
			if m.md != nil {
				sb.WriteString(m.md.Render(msg.content))
			} else {
				sb.WriteString(wordwrap.String(msg.content, m.viewport.Width-2))
			}
		case "error":
			sb.WriteString(errorStyle.Render("Error: " + msg.content))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if m.pending != "" {
		sb.WriteString(assistantStyle.Render("Agent"))
		sb.WriteString("\n")
		// In-progress text is wrapped plain; markdown waits for the full turn.
		sb.WriteString(pendingStyle.Render(wordwrap.String(m.pending, m.viewport.Width-2)))
		sb.WriteString("\n")
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

// View renders the conversation, input, and status line.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	status := fmt.Sprintf(" session: %s  cost: $%.4f", m.sessionLabel(), m.totalCost)
	if m.waiting {
		status = fmt.Sprintf(" %s thinking...%s", spinnerFrames[m.spinnerFrame], status)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.input.View(),
		statusStyle.Render(status),
	)
}

func (m Model) sessionLabel() string {
	if id := m.runner.CurrentSessionID(); id != "" {
		return id
	}
	return "(new)"
}
