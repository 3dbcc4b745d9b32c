// Package main provides the inkwell CLI entry point.
// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"

	"inkwell/cmd/inkwell/ui"
	"inkwell/internal/config"
	"inkwell/internal/llm"
	"inkwell/internal/logging"
	"inkwell/internal/store"
	"inkwell/internal/telemetry"
	"inkwell/internal/usage"
)

const (
	headerHeight = 1
	inputHeight  = 3
	footerHeight = 1
)

type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	time    time.Time
}

// Messages for tea updates
type (
	responseMsg string
	errorMsg    error
)

// chatDeps carries the wired backends into the chat model.
type chatDeps struct {
	cfg      *config.Config
	client   llm.Client
	sessions *store.SessionStore
	tracker  *usage.Tracker
	emitter  telemetry.Emitter
	banner   *ui.StatusBanner
	styles   ui.Styles
}

// chatModel is the main model for the interactive chat interface.
type chatModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer
	banner    *ui.StatusBanner

	// State
	history   []chatMessage
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Session state
	sessionID string
	turnCount int

	// Backend
	cfg      *config.Config
	client   llm.Client
	sessions *store.SessionStore
	tracker  *usage.Tracker
	emitter  telemetry.Emitter
}

// newChatModel initializes the interactive chat model.
func newChatModel(deps chatDeps) chatModel {
	ti := textinput.New()
	ti.Placeholder = "Ask me anything... (Enter to send, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = "│ "
	ti.CharLimit = 4096
	ti.Width = 80
	ti.PromptStyle = deps.styles.Prompt
	ti.TextStyle = deps.styles.UserInput

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = deps.styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	wrap := deps.cfg.UI.WordWrap
	if wrap <= 0 {
		wrap = 80
	}
	var renderer *glamour.TermRenderer
	if deps.styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(wrap),
		)
	}

	return chatModel{
		textinput: ti,
		viewport:  vp,
		spinner:   sp,
		styles:    deps.styles,
		renderer:  renderer,
		banner:    deps.banner,
		sessionID: uuid.NewString(),
		cfg:       deps.cfg,
		client:    deps.client,
		sessions:  deps.sessions,
		tracker:   deps.tracker,
		emitter:   deps.emitter,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.banner.Init())
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The banner sees messages first; consumed messages stop here so
	// banner keys never leak into the input field.
	if bannerCmd, consumed := m.banner.Update(msg); consumed {
		m.resize()
		return m, bannerCmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.banner.SetWidth(msg.Width)
		m.textinput.Width = msg.Width - 4
		m.resize()
		m.viewport.SetContent(m.renderHistory())
		m.ready = true
		return m, nil

	case ui.FocusChatInputMsg:
		m.banner.Blur()
		m.textinput.Focus()
		return m, textinput.Blink

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.banner.Dispose()
			m.shutdown()
			return m, tea.Quit

		case tea.KeyTab:
			// Cycle focus between the banner and the input field.
			if m.banner.Visible() {
				if m.banner.Focused() {
					m.banner.Blur()
					m.textinput.Focus()
				} else {
					m.banner.Focus()
					m.textinput.Blur()
				}
				return m, nil
			}

		case tea.KeyEnter:
			if m.isLoading || m.banner.Focused() {
				return m, nil
			}
			prompt := strings.TrimSpace(m.textinput.Value())
			if prompt == "" {
				return m, nil
			}
			return m.submit(prompt)
		}

	case responseMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{role: "assistant", content: string(msg), time: time.Now()})
		if err := m.sessions.StoreTurn(m.sessionID, m.turnCount, "assistant", string(msg)); err != nil {
			logging.Get(logging.CategoryUI).Warnf("failed to store assistant turn: %v", err)
		}
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case errorMsg:
		m.isLoading = false
		m.err = msg
		return m, nil

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submit sends the prompt to the responder and records the user turn.
func (m chatModel) submit(prompt string) (tea.Model, tea.Cmd) {
	m.err = nil
	m.isLoading = true
	m.turnCount++
	m.history = append(m.history, chatMessage{role: "user", content: prompt, time: time.Now()})
	m.textinput.Reset()

	if err := m.sessions.StoreTurn(m.sessionID, m.turnCount, "user", prompt); err != nil {
		logging.Get(logging.CategoryUI).Warnf("failed to store user turn: %v", err)
	}
	m.tracker.Track("chat")

	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()

	client := m.client
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		reply, err := client.Complete(ctx, prompt)
		if err != nil {
			return errorMsg(err)
		}
		return responseMsg(reply)
	})
}

// resize recomputes the viewport height, reserving space for the banner.
func (m *chatModel) resize() {
	if m.width == 0 || m.height == 0 {
		return
	}
	m.viewport.Width = m.width
	h := m.height - headerHeight - inputHeight - footerHeight - m.banner.Height()
	if h < 3 {
		h = 3
	}
	m.viewport.Height = h
}

// renderHistory formats the conversation for the viewport.
func (m chatModel) renderHistory() string {
	var sb strings.Builder
	for _, msg := range m.history {
		switch msg.role {
		case "user":
			sb.WriteString(m.styles.Prompt.Render("you ▸ "))
			sb.WriteString(m.styles.UserInput.Render(msg.content))
			sb.WriteString("\n")
		case "assistant":
			content := msg.content
			if m.renderer != nil {
				if rendered, err := m.renderer.Render(msg.content); err == nil {
					content = rendered
				}
			}
			sb.WriteString(m.styles.AgentResponse.Render(content))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.styles.Header.Render("inkwell"))
	sb.WriteString("\n")

	if m.banner.Visible() {
		sb.WriteString(m.banner.View())
		sb.WriteString("\n")
	}

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	if m.isLoading {
		sb.WriteString(m.spinner.View())
		sb.WriteString(" thinking...")
	} else {
		sb.WriteString(m.textinput.View())
	}
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(m.styles.Error.Render(fmt.Sprintf("error: %v", m.err)))
	} else {
		sb.WriteString(m.styles.Footer.Render("enter send · tab banner · ctrl+c quit"))
	}
	return sb.String()
}

// shutdown flushes persistent state before the program exits.
func (m chatModel) shutdown() {
	if err := m.tracker.Save(); err != nil {
		logging.Get(logging.CategoryUsage).Warnf("failed to save usage on exit: %v", err)
	}
}
