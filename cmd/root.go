// Package cmd defines the headless command line interface.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/headless/internal/agent/client"
	_ "github.com/zjrosen/headless/internal/agent/providers/claude"
	_ "github.com/zjrosen/headless/internal/agent/providers/codex"
	"github.com/zjrosen/headless/internal/agent/runner"
	"github.com/zjrosen/headless/internal/config"
	"github.com/zjrosen/headless/internal/log"
	"github.com/zjrosen/headless/internal/tracing"
	"github.com/zjrosen/headless/internal/ui/chat"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config

	flagProvider       string
	flagModel          string
	flagSessionFile    string
	flagSessionName    string
	flagPermissionMode string
	flagSandbox        string
	flagStream         bool
	flagReset          bool
	flagInteractive    bool
	flagDebug          bool

	traceProvider *tracing.Provider
	logCleanup    func()
)

var rootCmd = &cobra.Command{
	Use:   "headless [PROMPT]",
	Short: "Run prompts through headless AI agent CLIs",
	Long: `Runs prompts through the Claude Code or Codex CLI in headless mode,
keeping the conversation across invocations. The prompt comes from the
argument or, when absent, from stdin.`,
	Version:           version,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runRoot,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.headless/config.yml)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "",
		"agent provider: claude or codex")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"enable debug logging")

	rootCmd.Flags().StringVar(&flagModel, "model", "", "override the provider model")
	rootCmd.Flags().StringVar(&flagSessionName, "session", "",
		"run inside a named session")
	rootCmd.Flags().StringVar(&flagSessionFile, "session-file", "",
		"file holding the anonymous conversation id")
	rootCmd.Flags().StringVar(&flagPermissionMode, "permission-mode", "",
		"claude permission mode")
	rootCmd.Flags().StringVar(&flagSandbox, "sandbox", "",
		"codex sandbox mode")
	rootCmd.Flags().BoolVar(&flagStream, "stream", false,
		"print assistant text as it arrives")
	rootCmd.Flags().BoolVar(&flagReset, "reset", false,
		"discard the current conversation before running")
	rootCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false,
		"start an interactive chat session")
}

// setup loads configuration and initializes logging and tracing for
// every subcommand.
func setup(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}

	if cfg.Log.Enabled || flagDebug {
		logCleanup, err = log.Init(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: debug log unavailable: %v\n", err)
		}
		if flagDebug {
			log.SetMinLevel(log.LevelDebug)
		}
	}

	traceProvider, err = tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	return nil
}

func teardown(*cobra.Command, []string) {
	if traceProvider != nil {
		_ = traceProvider.Shutdown(context.Background())
	}
	if logCleanup != nil {
		logCleanup()
	}
}

func newAgentClient() (client.AgentClient, error) {
	c, err := client.New(cfg.ClientType())
	if err != nil {
		return nil, fmt.Errorf("%w (registered: %v)", err, client.RegisteredClients())
	}
	return c, nil
}

func spawnConfig() client.Config {
	spawn := cfg.SpawnConfig()
	if flagModel != "" {
		spawn.Model = flagModel
	}
	if flagPermissionMode != "" {
		spawn.PermissionMode = flagPermissionMode
	}
	if flagSandbox != "" {
		spawn.SandboxMode = flagSandbox
	}
	return spawn
}

func runRoot(cmd *cobra.Command, args []string) error {
	c, err := newAgentClient()
	if err != nil {
		return err
	}

	if flagSessionName != "" {
		return runNamed(cmd, args, c)
	}

	sessionFile := flagSessionFile
	if sessionFile == "" {
		sessionFile = cfg.Session.File
	}
	r := runner.New(c,
		runner.WithBaseConfig(spawnConfig()),
		runner.WithSessionFile(sessionFile),
	)

	if flagReset {
		if err := r.Reset(); err != nil {
			return err
		}
		if len(args) == 0 && !flagInteractive && isTerminal(cmd.InOrStdin()) {
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation reset.")
			return nil
		}
	}

	if flagInteractive {
		p := tea.NewProgram(chat.New(cmd.Context(), r), tea.WithAltScreen())
		_, err := p.Run()
		return err
	}

	prompt, err := resolvePrompt(cmd, args)
	if err != nil {
		return err
	}

	opts := runner.RunOptions{}
	if flagStream {
		opts.OnText = func(text string) {
			fmt.Fprint(cmd.OutOrStdout(), text)
		}
	}

	res, err := r.Run(cmd.Context(), prompt, opts)
	if err != nil {
		return err
	}

	if flagStream {
		fmt.Fprintln(cmd.OutOrStdout())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "session: %s  cost: $%.4f  duration: %dms\n",
		res.Stats.SessionID, res.Stats.CostUSD, res.Stats.DurationMs)

	if res.IsError() {
		// The agent completed the turn but reported failure; mirror that
		// in the exit code without the usage noise of a cobra error.
		return fmt.Errorf("agent reported a failed turn")
	}
	return nil
}

// resolvePrompt takes the positional prompt or falls back to stdin.
func resolvePrompt(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	if isTerminal(cmd.InOrStdin()) {
		return "", fmt.Errorf("no prompt: pass one as an argument or pipe it on stdin")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read prompt from stdin: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("no prompt: stdin was empty")
	}
	return prompt, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
