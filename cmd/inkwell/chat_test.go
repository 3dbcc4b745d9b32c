package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"inkwell/cmd/inkwell/ui"
	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/entitlement"
	"inkwell/internal/store"
	"inkwell/internal/telemetry"
	"inkwell/internal/usage"
	"inkwell/internal/ux"
)

type staticClient struct {
	reply string
}

func (c staticClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.reply, nil
}

// newTestChat wires a chat model against temp-dir backends. exhaustQuota
// drains the anonymous allowance so the quota banner shows immediately.
func newTestChat(t *testing.T, exhaustQuota bool) chatModel {
	t.Helper()
	workspaceDir := t.TempDir()

	cfg := config.Default()
	accounts, err := auth.NewStore(workspaceDir)
	if err != nil {
		t.Fatalf("new auth store failed: %v", err)
	}
	tracker, err := usage.NewTracker(workspaceDir)
	if err != nil {
		t.Fatalf("new tracker failed: %v", err)
	}
	sessions, err := store.NewSessionStore(filepath.Join(workspaceDir, ".inkwell", "sessions.db"))
	if err != nil {
		t.Fatalf("new session store failed: %v", err)
	}
	t.Cleanup(func() { _ = sessions.Close() })

	if exhaustQuota {
		provider := entitlement.NewProvider(accounts, tracker)
		for provider.Snapshot().Quota.PercentRemaining > 0 {
			tracker.Track("chat")
		}
	}

	styles := ui.NewStyles(ui.DarkTheme())
	banner := ui.NewStatusBanner(ui.StatusBannerDeps{
		Entitlements: entitlement.NewProvider(accounts, tracker),
		History:      sessions,
		Toggles:      cfg,
		Flags:        ux.NewFlagStore(workspaceDir),
		Telemetry:    telemetry.Nop{},
		Styles:       styles,
	})

	return newChatModel(chatDeps{
		cfg:      cfg,
		client:   staticClient{reply: "sure thing"},
		sessions: sessions,
		tracker:  tracker,
		emitter:  telemetry.Nop{},
		banner:   banner,
		styles:   styles,
	})
}

func TestWindowSizeReservesBannerSpace(t *testing.T) {
	withBanner := newTestChat(t, true)
	if !withBanner.banner.Visible() {
		t.Fatalf("expected quota banner visible")
	}
	model, _ := withBanner.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	withBanner = model.(chatModel)

	without := newTestChat(t, false)
	model, _ = without.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	without = model.(chatModel)

	lost := without.viewport.Height - withBanner.viewport.Height
	if lost != withBanner.banner.Height() {
		t.Fatalf("expected viewport to shrink by banner height %d, shrank by %d",
			withBanner.banner.Height(), lost)
	}
}

func TestFocusChatInputMessage(t *testing.T) {
	m := newTestChat(t, true)
	m.banner.Focus()
	m.textinput.Blur()

	model, _ := m.Update(ui.FocusChatInputMsg{})
	m = model.(chatModel)

	if m.banner.Focused() {
		t.Fatalf("expected banner blurred")
	}
	if !m.textinput.Focused() {
		t.Fatalf("expected input focused")
	}
}

func TestResponseAppendsAssistantTurn(t *testing.T) {
	m := newTestChat(t, false)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	m = model.(chatModel)

	m.history = append(m.history, chatMessage{role: "user", content: "hello", time: time.Now()})
	m.turnCount = 1
	m.isLoading = true

	model, _ = m.Update(responseMsg("sure thing"))
	m = model.(chatModel)

	if m.isLoading {
		t.Fatalf("expected loading cleared")
	}
	if len(m.history) != 2 || m.history[1].role != "assistant" {
		t.Fatalf("expected assistant turn appended, got %+v", m.history)
	}
}

func TestRenderHistoryShowsBothRoles(t *testing.T) {
	m := newTestChat(t, false)
	m.renderer = nil // plain text, easier to assert
	m.history = []chatMessage{
		{role: "user", content: "what is a goroutine"},
		{role: "assistant", content: "a lightweight thread"},
	}

	out := m.renderHistory()
	if !strings.Contains(out, "you ▸") {
		t.Fatalf("expected user prompt marker in history")
	}
	if !strings.Contains(out, "what is a goroutine") {
		t.Fatalf("expected user content in history")
	}
	if !strings.Contains(out, "a lightweight thread") {
		t.Fatalf("expected assistant content in history")
	}
}
