package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/toritoma/playbridge/internal/config"
	"github.com/toritoma/playbridge/internal/scenario"
	"github.com/toritoma/playbridge/internal/simulator"
	"github.com/toritoma/playbridge/internal/tui/prompt"
)

var (
	simulateInteractive bool
	simulateConnect     connectScript
	simulateQuiet       bool
)

// connectScript is a pflag.Value collecting connect outcomes such as
// "fail:4:resolvable,ok". Outcomes are validated as the flag is parsed.
type connectScript []simulator.ConnectOutcome

var _ pflag.Value = (*connectScript)(nil)

func (c *connectScript) String() string {
	parts := make([]string, len(*c))
	for i, o := range *c {
		parts[i] = o.String()
	}
	return strings.Join(parts, ",")
}

func (c *connectScript) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		o, err := simulator.ParseConnectOutcome(part)
		if err != nil {
			return err
		}
		*c = append(*c, o)
	}
	return nil
}

func (c *connectScript) Type() string { return "outcomes" }

var simulateCmd = &cobra.Command{
	Use:   "simulate <scenario.yaml>",
	Short: "Replay a scenario against the simulated platform",
	Long: `Replay a scenario of host and game events against the simulated identity
service, resolution UI, leaderboard, ad banner and share target, and print
every event the bridge emits.

With --interactive the resolution UI and the blocking error dialog are shown
as terminal prompts instead of following the scenario's script.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().BoolVarP(&simulateInteractive, "interactive", "i", false, "answer resolution UIs and error dialogs yourself")
	simulateCmd.Flags().Var(&simulateConnect, "connect", "replace the connect script (e.g. fail:4:resolvable,ok)")
	simulateCmd.Flags().BoolVarP(&simulateQuiet, "quiet", "q", false, "print only the summary")
}

var (
	stepStyle    = lipgloss.NewStyle().Bold(true)
	eventStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")).Bold(true)
	passStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
)

func runSimulate(cmd *cobra.Command, args []string) error {
	// Set appends, so a second Execute in the same process starts clean.
	defer func() { simulateConnect = nil }()
	out := cmd.OutOrStdout()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	if len(simulateConnect) > 0 {
		sc.Connect = append([]simulator.ConnectOutcome(nil), simulateConnect...)
	}

	logger := createLogger(cfg)
	defer logger.Close()
	logger = logger.WithSession(sc.Name)

	opts := []scenario.RunnerOption{scenario.WithLogger(logger)}
	if !simulateQuiet {
		opts = append(opts, scenario.WithEntryHandler(func(e scenario.Entry) { printEntry(out, e) }))
	}

	if simulateInteractive {
		if !isTerminal(os.Stdin) {
			return fmt.Errorf("--interactive requires a terminal on stdin")
		}
		opts = append(opts, scenario.WithPrompter(prompt.New(prompt.WithIO(cmd.InOrStdin(), out))))
		watchConfig(cmd.ErrOrStderr())
	}

	fmt.Fprintln(out, headerStyle.Render("scenario: "+sc.Name))
	if sc.Description != "" {
		fmt.Fprintln(out, eventStyle.Render(sc.Description))
	}

	tr, err := scenario.NewRunner(cfg, opts...).Run(cmd.Context(), sc)
	if err != nil {
		return err
	}
	logger.Info("scenario finished",
		"steps", len(sc.Steps),
		"final_phase", string(tr.Final.Phase),
		"failures", len(tr.Failures))

	printSummary(out, tr)
	if !tr.Passed() {
		return fmt.Errorf("%d expectation(s) failed", len(tr.Failures))
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// watchConfig reports config file edits made while prompts are open.
// Changes apply to the next run.
func watchConfig(w io.Writer) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	config.Watch(func(*config.Config) {
		fmt.Fprintln(w, eventStyle.Render("config reloaded; changes apply to the next run"))
	}, func(err error) {
		fmt.Fprintln(w, failureStyle.Render("config change rejected: "+err.Error()))
	})
}

func printEntry(w io.Writer, e scenario.Entry) {
	switch e.Kind {
	case scenario.EntryStep:
		fmt.Fprintf(w, "%s %s\n", stepStyle.Render(fmt.Sprintf("[%d]", e.Step)), stepStyle.Render(e.Text))
	case scenario.EntryFailure:
		fmt.Fprintln(w, "    "+failureStyle.Render("FAIL "+e.Text))
	default:
		fmt.Fprintln(w, "    "+eventStyle.Render(e.Text))
	}
}

func printSummary(w io.Writer, tr *scenario.Transcript) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("summary"))
	fmt.Fprintf(w, "  phase:      %s (resolving=%t)\n", tr.Final.Phase, tr.Final.ResolvingError)
	fmt.Fprintf(w, "  connects:   %d started, %d merged\n", tr.Connects, tr.Merged)
	fmt.Fprintf(w, "  scores:     %s\n", formatScores(tr.Scores))
	fmt.Fprintf(w, "  banner:     visible=%t\n", tr.BannerVisible)
	for _, d := range tr.Dispatches {
		fmt.Fprintf(w, "  share:      %s\n", d)
	}

	if tr.Passed() {
		fmt.Fprintln(w, passStyle.Render("PASS"))
		return
	}
	for _, f := range tr.Failures {
		fmt.Fprintln(w, failureStyle.Render("FAIL "+f))
	}
}

func formatScores(scores []int64) string {
	if len(scores) == 0 {
		return "none"
	}
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprint(s)
	}
	return strings.Join(parts, ", ")
}
