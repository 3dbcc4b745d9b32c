package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inkwell/cmd/inkwell/ui"
	"inkwell/internal/auth"
	"inkwell/internal/command"
	"inkwell/internal/config"
	"inkwell/internal/entitlement"
	"inkwell/internal/llm"
	"inkwell/internal/logging"
	"inkwell/internal/store"
	"inkwell/internal/telemetry"
	"inkwell/internal/usage"
	"inkwell/internal/ux"
)

const appVersion = "0.3.0"

var (
	// Global flags
	verbose   bool
	workspace string
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "inkwell - a terminal chat assistant for code",
	Long: `inkwell is a terminal chat assistant for working on code.

Run without arguments to start the interactive chat interface.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the inkwell version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("inkwell %s\n", appVersion)
	},
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show request usage for the current month",
	RunE: func(cmd *cobra.Command, args []string) error {
		tracker, err := usage.NewTracker(workspace)
		if err != nil {
			return err
		}
		snap := tracker.Snapshot()

		fmt.Printf("Month:    %s\n", snap.Month)
		fmt.Printf("Requests: %d\n", snap.Requests)
		if len(snap.ByOperation) > 0 {
			fmt.Println("By operation:")
			ops := make([]string, 0, len(snap.ByOperation))
			for op := range snap.ByOperation {
				ops = append(ops, op)
			}
			sort.Strings(ops)
			for _, op := range ops {
				fmt.Printf("  %-12s %d\n", op, snap.ByOperation[op])
			}
		}

		accounts, err := auth.NewStore(workspace)
		if err != nil {
			return err
		}
		es := entitlement.NewProvider(accounts, tracker).Snapshot()
		if es.Quota != nil {
			fmt.Printf("Remaining: %.0f%%\n", es.Quota.PercentRemaining)
		} else {
			fmt.Println("Remaining: unlimited")
		}
		return nil
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the signed-in account",
}

var signinEmail string

var authSigninCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in with an email address",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := auth.NewStore(workspace)
		if err != nil {
			return err
		}
		if err := accounts.SignIn(signinEmail); err != nil {
			return err
		}
		fmt.Printf("Signed in as %s\n", signinEmail)
		return nil
	},
}

var authSignoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and return to anonymous use",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := auth.NewStore(workspace)
		if err != nil {
			return err
		}
		if err := accounts.SignOut(); err != nil {
			return err
		}
		fmt.Println("Signed out")
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current account",
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := auth.NewStore(workspace)
		if err != nil {
			return err
		}
		acct := accounts.Current()
		if acct == nil {
			fmt.Println("Anonymous (not signed in)")
			return nil
		}
		fmt.Printf("%s (%s plan)\n", acct.Email, acct.Plan)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", ".", "workspace directory")

	authSigninCmd.Flags().StringVar(&signinEmail, "email", "", "account email address")
	_ = authSigninCmd.MarkFlagRequired("email")

	authCmd.AddCommand(authSigninCmd, authSignoutCmd, authStatusCmd)
	rootCmd.AddCommand(versionCmd, usageCmd, authCmd)
}

// runInteractiveChat wires the backends and runs the chat UI.
func runInteractiveChat() error {
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}

	if err := logging.Initialize(workspace, cfg.Logging.DebugMode || verbose); err != nil {
		return err
	}
	defer logging.Sync()
	log := logging.Get(logging.CategoryBoot)

	accounts, err := auth.NewStore(workspace)
	if err != nil {
		return err
	}
	tracker, err := usage.NewTracker(workspace)
	if err != nil {
		return err
	}
	sessions, err := store.NewSessionStore(filepath.Join(workspace, ".inkwell", "sessions.db"))
	if err != nil {
		return err
	}
	defer sessions.Close()

	telLogger, err := newTelemetryLogger(workspace)
	if err != nil {
		return err
	}
	bus := telemetry.NewBus(telLogger)
	bus.SetEnabled(cfg.Telemetry.Enabled)
	defer bus.Close()

	dispatcher := command.NewDispatcher()
	dispatcher.Register(command.SignIn, func(ctx context.Context) error {
		email := os.Getenv("INKWELL_ACCOUNT_EMAIL")
		if email == "" {
			return fmt.Errorf("no account email; run 'inkwell auth signin --email you@example.com'")
		}
		return accounts.SignIn(email)
	})
	dispatcher.Register(command.Upgrade, func(ctx context.Context) error {
		return accounts.Upgrade()
	})

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("no API key configured; set llm.api_key in %s or INKWELL_API_KEY", config.Path(workspace))
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewGenAIClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return err
	}

	styles := ui.DefaultStyles()
	switch cfg.UI.Theme {
	case "light":
		styles = ui.NewStyles(ui.LightTheme())
	case "dark":
		styles = ui.NewStyles(ui.DarkTheme())
	}

	banner := ui.NewStatusBanner(ui.StatusBannerDeps{
		Entitlements: entitlement.NewProvider(accounts, tracker),
		History:      sessions,
		Toggles:      cfg,
		Flags:        ux.NewFlagStore(workspace),
		Dispatcher:   dispatcher,
		Telemetry:    bus,
		Styles:       styles,
	})

	model := newChatModel(chatDeps{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		tracker:  tracker,
		emitter:  bus,
		banner:   banner,
		styles:   styles,
	})

	// Live config edits toggle telemetry without restarting the chat.
	watcher, err := config.NewWatcher(workspace, func(next *config.Config) {
		bus.SetEnabled(next.Telemetry.Enabled)
	})
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	log.Infof("starting chat: workspace=%s model=%s", workspace, cfg.LLM.Model)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := program.Run()
		stop()
		return err
	})
	g.Go(func() error {
		// Periodic usage flush so a crash loses at most one interval.
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return tracker.Save()
			case <-ticker.C:
				if err := tracker.Save(); err != nil {
					logging.Get(logging.CategoryUsage).Warnf("periodic usage save failed: %v", err)
				}
			}
		}
	})
	return g.Wait()
}

// newTelemetryLogger builds the zap sink telemetry events are written to.
func newTelemetryLogger(workspace string) (*zap.Logger, error) {
	dir := filepath.Join(workspace, ".inkwell")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{filepath.Join(dir, "telemetry.log")}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
