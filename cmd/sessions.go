package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zjrosen/headless/internal/agent/client"
	"github.com/zjrosen/headless/internal/agent/runner"
	"github.com/zjrosen/headless/internal/agent/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage named sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List named sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		names, err := store.List()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPROVIDER\tTURNS\tCOST\tUPDATED")
		for _, name := range names {
			sess, err := store.Load(name)
			if err != nil {
				return err
			}
			if sess == nil {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t$%.4f\t%s\n",
				sess.Name, sess.Provider, sess.TurnCount(), sess.TotalCostUSD,
				sess.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var sessionsStatsCmd = &cobra.Command{
	Use:   "stats [NAME]",
	Short: "Show turn and cost totals for one session or all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := sessionManager()
		if err != nil {
			return err
		}
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		stats, err := m.Stats(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sessions: %d\nturns: %d\ntotal cost: $%.4f\n",
			stats.Sessions, stats.Turns, stats.TotalCostUSD)
		return nil
	},
}

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history NAME",
	Short: "Print a session's turns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := sessionManager()
		if err != nil {
			return err
		}
		turns, err := m.History(args[0])
		if err != nil {
			return err
		}
		for i, turn := range turns {
			fmt.Fprintf(cmd.OutOrStdout(), "--- turn %d  %s  $%.4f\n",
				i+1, turn.Timestamp.Local().Format("2006-01-02 15:04:05"), turn.CostUSD)
			fmt.Fprintf(cmd.OutOrStdout(), "> %s\n%s\n", turn.Prompt, turn.Response)
		}
		return nil
	},
}

var sessionsForkCmd = &cobra.Command{
	Use:   "fork SRC DST [PROMPT]",
	Short: "Branch a session into a new one without touching the original",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := sessionManager()
		if err != nil {
			return err
		}
		prompt := ""
		if len(args) == 3 {
			prompt = args[2]
		}
		dst, err := m.Fork(cmd.Context(), args[0], args[1], prompt)
		if err != nil {
			if err == client.ErrForkUnsupported {
				return fmt.Errorf("%s does not support forking", cfg.Provider)
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "forked %s -> %s (conversation %s)\n",
			args[0], dst.Name, dst.ConversationID)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a named session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := sessionStore()
		if err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsStatsCmd, sessionsHistoryCmd,
		sessionsForkCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func sessionStore() (*session.Store, error) {
	return session.NewStore(cfg.Session.Dir)
}

func sessionManager() (*session.Manager, error) {
	store, err := sessionStore()
	if err != nil {
		return nil, err
	}
	c, err := newAgentClient()
	if err != nil {
		return nil, err
	}
	return session.NewManager(store, c, spawnConfig()), nil
}

// runNamed executes the root prompt inside a named session.
func runNamed(cmd *cobra.Command, args []string, _ client.AgentClient) error {
	m, err := sessionManager()
	if err != nil {
		return err
	}
	prompt, err := resolvePrompt(cmd, args)
	if err != nil {
		return err
	}

	opts := runner.RunOptions{}
	if flagStream {
		opts.OnText = func(text string) { fmt.Fprint(cmd.OutOrStdout(), text) }
	}

	res, err := m.Run(cmd.Context(), flagSessionName, prompt, opts)
	if err != nil {
		return err
	}
	if flagStream {
		fmt.Fprintln(cmd.OutOrStdout())
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "session: %s  cost: $%.4f\n", flagSessionName, res.Stats.CostUSD)
	if res.IsError() {
		return fmt.Errorf("agent reported a failed turn")
	}
	return nil
}
