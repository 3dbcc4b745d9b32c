package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"inkwell/internal/command"
	"inkwell/internal/config"
	"inkwell/internal/entitlement"
	"inkwell/internal/logging"
	"inkwell/internal/store"
	"inkwell/internal/telemetry"
	"inkwell/internal/ux"
)

// EntitlementSource provides the entitlement snapshot the banner reads once
// at construction.
type EntitlementSource interface {
	Snapshot() entitlement.Snapshot
}

// HistorySource returns prior session records; the banner only consults
// emptiness.
type HistorySource interface {
	RecentSessions(ctx context.Context, limit int) ([]store.SessionSummary, error)
}

// Toggles reads boolean feature toggles by key.
type Toggles interface {
	Enabled(key string) bool
}

// FlagStore reads and writes persisted boolean flags.
type FlagStore interface {
	Get(name string) bool
	Set(name string, value bool) error
}

// Dispatcher executes a named action by identifier.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string) error
}

// BannerVariant identifies which banner, if any, is showing.
type BannerVariant int

const (
	BannerNone BannerVariant = iota

	// BannerFree prompts a quota-exhausted free-tier user to upgrade.
	BannerFree

	// BannerAnonymous prompts a quota-exhausted anonymous user to sign in.
	BannerAnonymous

	// BannerAnonymousWelcome greets an anonymous user with no prior sessions.
	BannerAnonymousWelcome
)

// FocusChatInputMsg asks the owning chat model to focus its input field.
type FocusChatInputMsg struct{}

// historyLookupMsg carries the async history result back into Update.
// ok is false when the lookup failed; failures keep the banner hidden.
type historyLookupMsg struct {
	empty bool
	ok    bool
}

// StatusBannerDeps are the banner's injected collaborators.
type StatusBannerDeps struct {
	Entitlements EntitlementSource
	History      HistorySource
	Toggles      Toggles
	Flags        FlagStore
	Dispatcher   Dispatcher
	Telemetry    telemetry.Emitter
	Styles       Styles
}

// StatusBanner decides at construction whether to show one of three
// mutually exclusive variants above the chat viewport. The decision is not
// re-evaluated when entitlement state changes later; the owner constructs
// a fresh banner per chat session.
type StatusBanner struct {
	deps StatusBannerDeps

	variant        BannerVariant
	pendingWelcome bool
	welcomeShown   bool
	disposed       bool
	focused        bool
	width          int
}

// NewStatusBanner constructs the banner and runs the synchronous part of
// the display decision. Call Init to issue the history lookup the welcome
// variant depends on.
func NewStatusBanner(deps StatusBannerDeps) *StatusBanner {
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Nop{}
	}
	b := &StatusBanner{deps: deps, width: 80}
	b.decide()
	return b
}

// decide evaluates the variant selection, first match wins:
//  1. quota exhausted + anonymous + toggle  -> Anonymous
//  2. quota exhausted + free tier           -> Free
//  3. anonymous + toggle + not dismissed    -> welcome candidate (needs
//     the async history lookup to confirm)
func (b *StatusBanner) decide() {
	snap := b.deps.Entitlements.Snapshot()
	exhausted := snap.Quota != nil && snap.Quota.PercentRemaining == 0

	switch {
	case exhausted && snap.Anonymous && b.deps.Toggles.Enabled(config.ToggleAnonymousQuotaBanner):
		b.variant = BannerAnonymous
	case exhausted && snap.Tier == entitlement.TierFree:
		b.variant = BannerFree
	case snap.Anonymous && b.deps.Toggles.Enabled(config.ToggleWelcomeBanner) &&
		!b.deps.Flags.Get(ux.FlagWelcomeBannerDismissed):
		b.pendingWelcome = true
	}
}

// Init issues the asynchronous history lookup when the welcome variant is
// still in play. Any lookup error is swallowed; the banner stays hidden.
func (b *StatusBanner) Init() tea.Cmd {
	if !b.pendingWelcome {
		return nil
	}
	history := b.deps.History
	return func() tea.Msg {
		if history == nil {
			return historyLookupMsg{}
		}
		sessions, err := history.RecentSessions(context.Background(), 1)
		if err != nil {
			return historyLookupMsg{}
		}
		return historyLookupMsg{empty: len(sessions) == 0, ok: true}
	}
}

// Update handles banner messages. The second return value reports whether
// the message was consumed; consumed key events must not reach the chat
// model underneath.
func (b *StatusBanner) Update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case historyLookupMsg:
		if b.disposed || !b.pendingWelcome {
			return nil, true
		}
		b.pendingWelcome = false
		if !msg.ok || !msg.empty {
			return nil, true
		}
		b.variant = BannerAnonymousWelcome
		if !b.welcomeShown {
			b.welcomeShown = true
			b.deps.Telemetry.Emit(telemetry.Event{Name: telemetry.EventWelcomeShown})
		}
		return nil, true

	case tea.KeyMsg:
		if !b.focused || !b.Visible() {
			return nil, false
		}
		switch msg.String() {
		case "enter", " ":
			return b.activate(), true
		case "esc", "x":
			if b.variant == BannerAnonymousWelcome {
				b.dismiss()
				return nil, true
			}
		}
	}
	return nil, false
}

// activate triggers the variant's primary action.
func (b *StatusBanner) activate() tea.Cmd {
	switch b.variant {
	case BannerFree:
		return b.dispatch(command.Upgrade)
	case BannerAnonymous:
		return b.dispatch(command.SignIn)
	case BannerAnonymousWelcome:
		b.deps.Telemetry.Emit(telemetry.Event{Name: telemetry.EventWelcomeClick})
		return func() tea.Msg { return FocusChatInputMsg{} }
	}
	return nil
}

// dispatch logs the action click keyed by the command id, then runs it.
func (b *StatusBanner) dispatch(id string) tea.Cmd {
	b.deps.Telemetry.Emit(telemetry.Event{
		Name:   telemetry.EventActionClick,
		Fields: map[string]string{"command": id},
	})
	dispatcher := b.deps.Dispatcher
	return func() tea.Msg {
		if dispatcher == nil {
			return nil
		}
		if err := dispatcher.Dispatch(context.Background(), id); err != nil {
			logging.Get(logging.CategoryUI).Warnf("banner command %s failed: %v", id, err)
		}
		return nil
	}
}

// dismiss hides the welcome banner and persists the dismissal so it never
// comes back.
func (b *StatusBanner) dismiss() {
	b.deps.Telemetry.Emit(telemetry.Event{Name: telemetry.EventWelcomeDismiss})
	if err := b.deps.Flags.Set(ux.FlagWelcomeBannerDismissed, true); err != nil {
		logging.Get(logging.CategoryUI).Warnf("failed to persist welcome dismissal: %v", err)
	}
	b.variant = BannerNone
	b.focused = false
}

// Dispose marks the banner torn down. A history lookup resolving after
// this point is discarded without rendering or side effects.
func (b *StatusBanner) Dispose() {
	b.disposed = true
	b.pendingWelcome = false
}

// Visible reports whether any variant is showing.
func (b *StatusBanner) Visible() bool {
	return b.variant != BannerNone
}

// Variant returns the selected variant.
func (b *StatusBanner) Variant() BannerVariant {
	return b.variant
}

// Focus gives the banner keyboard focus. No-op while hidden.
func (b *StatusBanner) Focus() {
	if b.Visible() {
		b.focused = true
	}
}

// Blur removes keyboard focus.
func (b *StatusBanner) Blur() {
	b.focused = false
}

// Focused reports keyboard focus.
func (b *StatusBanner) Focused() bool {
	return b.focused
}

// SetWidth updates the render width.
func (b *StatusBanner) SetWidth(w int) {
	if w > 0 {
		b.width = w
	}
}

// Height returns the rendered height, or 0 while hidden. The host layout
// uses this to reserve vertical space.
func (b *StatusBanner) Height() int {
	if !b.Visible() {
		return 0
	}
	return lipgloss.Height(b.View())
}

// View renders the banner content for the selected variant.
func (b *StatusBanner) View() string {
	s := b.deps.Styles

	switch b.variant {
	case BannerFree:
		msg := "You've used all of your included requests for this month."
		action := s.BannerAction.Render("[ Upgrade plan ]")
		return b.frame(s.BannerWarning, msg+"\n"+action+b.focusHint("enter"))

	case BannerAnonymous:
		msg := "You've reached the free request limit."
		action := s.BannerAction.Render("[ Sign in to continue ]")
		return b.frame(s.BannerWarning, msg+"\n"+action+b.focusHint("enter"))

	case BannerAnonymousWelcome:
		msg := s.Title.Render("Welcome to inkwell!") +
			"\nAsk your first question below to get started."
		dismiss := s.BannerDismiss.Render("esc to dismiss")
		return b.frame(s.BannerWelcome, msg+"\n"+dismiss)

	default:
		return ""
	}
}

func (b *StatusBanner) frame(style lipgloss.Style, content string) string {
	w := b.width - style.GetHorizontalFrameSize()
	if w < 10 {
		w = 10
	}
	return style.Width(w).Render(content)
}

func (b *StatusBanner) focusHint(key string) string {
	if !b.focused {
		return ""
	}
	return b.deps.Styles.BannerDismiss.Render("  (" + key + ")")
}
