// Package main provides the CLI entrypoint for tuidice.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/tuidice/internal/config"
	"github.com/verte-zerg/tuidice/internal/dice"
	"github.com/verte-zerg/tuidice/internal/historyui"
	"github.com/verte-zerg/tuidice/internal/logging"
	"github.com/verte-zerg/tuidice/internal/model"
	"github.com/verte-zerg/tuidice/internal/random"
	"github.com/verte-zerg/tuidice/internal/store"
	"github.com/verte-zerg/tuidice/internal/tui"
	"github.com/verte-zerg/tuidice/internal/widget"
)

const (
	defaultInstance = "default"
	defaultMaxDice  = 1000
	defaultLogLevel = "info"
	defaultWindow   = 20
)

var (
	rollerNotation string
	rollerColor    string
	rollerUser     string
	rollerInstance string
	rollerMaxDice  int
	rollerLogLevel string

	rollSeed      int64
	rollTotalOnly bool

	historyLast   int
	historyWindow int
	historySince  string
	historyExport string
	historyAll    bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuidice",
		Short:         "TUI dice roller",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runRollerCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rollerNotation, "notation", dice.DefaultSpec().Raw, "initial dice notation for a new instance")
	flags.StringVar(&rollerColor, "color", widget.DefaultColor, "initial panel color for a new instance (hex or name)")
	flags.StringVar(&rollerUser, "user", "", "name shown in roll notifications (default: login name)")
	flags.StringVar(&rollerInstance, "instance", defaultInstance, "widget instance whose state is used")
	flags.IntVar(&rollerMaxDice, "max-dice", defaultMaxDice, "refuse to roll more dice than this (0 = no limit)")
	flags.StringVar(&rollerLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRollCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newColorsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// session bundles the resources shared by commands that touch widget state.
type session struct {
	cfg    model.Config
	file   config.FileConfig
	store  *store.Store
	logger *slog.Logger
	closer io.Closer
}

func openSession(cmd *cobra.Command) (*session, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := rollerConfig(cmd, fileCfg)
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.Open(config.DefaultLogPath(), logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to open log: %w", err)
	}
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		if cerr := closer.Close(); cerr != nil {
			// Best-effort close on db open failure.
			_ = cerr
		}
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return &session{cfg: cfg, file: fileCfg, store: st, logger: logger, closer: closer}, nil
}

func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	if err := s.closer.Close(); err != nil {
		logErrf("failed to close log: %v\n", err)
	}
}

func (s *session) loadWidget(ctx context.Context, src dice.Source) (*widget.Widget, error) {
	w, err := widget.Load(ctx, s.store.Scope(s.cfg.Instance), widget.Options{
		Notation: s.cfg.Notation,
		Color:    s.cfg.Color,
		User:     s.cfg.User,
		Instance: s.cfg.Instance,
		MaxDice:  s.cfg.MaxDice,
		Source:   src,
		Recorder: s.store,
		Logger:   s.logger.With("instance", s.cfg.Instance),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load widget state: %w", err)
	}
	return w, nil
}

func runRollerCmd(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	w, err := sess.loadWidget(cmd.Context(), random.New().Source())
	if err != nil {
		return err
	}
	program := tea.NewProgram(tui.NewModel(w, sess.logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newRollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roll [notation]",
		Short: "Roll once without the TUI",
		Long: "Roll the instance's current dice, or set new notation first when given.\n" +
			"The notation and result are stored exactly as in the interactive roller.",
		RunE: runRollCmd,
	}
	cmd.Flags().Int64Var(&rollSeed, "seed", 0, "seed the random source for a reproducible roll")
	cmd.Flags().BoolVar(&rollTotalOnly, "total", false, "print only the aggregate")
	return cmd
}

func runRollCmd(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	gen := random.New()
	if cmd.Flags().Changed("seed") {
		gen = random.NewSeeded(rollSeed)
	}
	ctx := cmd.Context()
	w, err := sess.loadWidget(ctx, gen.Source())
	if err != nil {
		return err
	}
	if len(args) > 0 {
		text := strings.Join(args, " ")
		if _, err := w.Edit(ctx, text); err != nil {
			return err
		}
	}
	out, err := w.Roll(ctx)
	if errors.Is(err, widget.ErrNotRollable) {
		return fmt.Errorf("%w: %q", dice.ErrInvalidNotation, w.Snapshot().RollString)
	}
	if err != nil {
		return err
	}

	line := out.Notification
	if rollTotalOnly {
		line = out.Result.AggregateText()
	}
	if isTerminal(cmd.OutOrStdout()) && !rollTotalOnly {
		line = lipgloss.NewStyle().Foreground(lipgloss.Color(w.Snapshot().Color)).Render(line)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show roll history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N rolls")
	cmd.Flags().IntVar(&historyWindow, "window", defaultWindow, "moving average and fairness window")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&historyExport, "export", "", "write rolls to stdout as json or yaml instead of opening the TUI")
	cmd.Flags().BoolVar(&historyAll, "all", false, "include rolls from every instance")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	applyIntConfig(cmd, "last", &historyLast, sess.file.History.Last)
	applyIntConfig(cmd, "window", &historyWindow, sess.file.History.Window)

	hcfg := model.HistoryConfig{
		Instance: sess.cfg.Instance,
		Last:     historyLast,
		Window:   historyWindow,
	}
	if historyAll {
		hcfg.Instance = ""
	}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		hcfg.Since = &parsed
	}
	if hcfg.Last < 0 || hcfg.Window < 0 {
		return fmt.Errorf("--last and --window must be >= 0")
	}

	if historyExport != "" {
		rolls, err := sess.store.ListRolls(cmd.Context(), hcfg)
		if err != nil {
			return fmt.Errorf("failed to load rolls: %w", err)
		}
		return exportRolls(cmd.OutOrStdout(), historyExport, rolls)
	}

	program := tea.NewProgram(historyui.NewModel(historyui.StoreSource(sess.store), hcfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run history TUI: %w", err)
	}
	return nil
}

func exportRolls(w io.Writer, format string, rolls []model.RollRecord) error {
	if rolls == nil {
		rolls = []model.RollRecord{}
	}
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rolls); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rolls); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to flush yaml: %w", err)
		}
	default:
		return fmt.Errorf("unknown export format %q (want json or yaml)", format)
	}
	return nil
}

func newColorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "colors [color]",
		Short: "List palette colors or select one",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runColorsCmd,
	}
}

func runColorsCmd(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	w, err := sess.loadWidget(ctx, random.New().Source())
	if err != nil {
		return err
	}
	if len(args) == 1 {
		if err := w.SetColor(ctx, args[0]); err != nil {
			return err
		}
	}
	current := w.Snapshot().Color
	useColor := isTerminal(cmd.OutOrStdout())
	for _, s := range widget.Palette() {
		marker := " "
		if s.Hex == current {
			marker = "*"
		}
		swatch := s.Hex
		if useColor {
			swatch = lipgloss.NewStyle().Foreground(lipgloss.Color(s.Hex)).Render(s.Hex)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %-7s %s\n", marker, s.Name, swatch); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the stored state of an instance",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	sess, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	n, err := sess.store.ClearState(cmd.Context(), sess.cfg.Instance)
	if err != nil {
		return fmt.Errorf("failed to reset state: %w", err)
	}
	sess.logger.Info("reset instance state", "instance", sess.cfg.Instance, "slots", n)
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d slots for instance %q\n", n, sess.cfg.Instance); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func rollerConfig(cmd *cobra.Command, fileCfg config.FileConfig) (model.Config, error) {
	applyStringConfig(cmd, "notation", &rollerNotation, fileCfg.Roller.Notation)
	applyStringConfig(cmd, "color", &rollerColor, fileCfg.Roller.Color)
	applyStringConfig(cmd, "user", &rollerUser, fileCfg.Roller.User)
	applyStringConfig(cmd, "instance", &rollerInstance, fileCfg.Roller.Instance)
	applyIntConfig(cmd, "max-dice", &rollerMaxDice, fileCfg.Roller.MaxDice)
	applyStringConfig(cmd, "log-level", &rollerLogLevel, fileCfg.Roller.LogLevel)

	cfg := model.Config{
		Notation: rollerNotation,
		Color:    rollerColor,
		User:     rollerUser,
		Instance: strings.TrimSpace(rollerInstance),
		MaxDice:  rollerMaxDice,
		LogLevel: rollerLogLevel,
	}
	if cfg.User == "" {
		cfg.User = loginName()
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.Instance == "" {
		return fmt.Errorf("--instance must not be empty")
	}
	if cfg.MaxDice < 0 {
		return fmt.Errorf("--max-dice must be >= 0")
	}
	if _, err := dice.Parse(cfg.Notation); err != nil {
		return fmt.Errorf("--notation %q: %w", cfg.Notation, err)
	}
	if _, ok := widget.LookupColor(cfg.Color); !ok {
		return fmt.Errorf("--color %q is not a palette color (see: tuidice colors)", cfg.Color)
	}
	return nil
}

func loginName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuidice configuration
# Uncomment a value to enable it. CLI flags override config values.

[roller]
# notation = %q          # Notation for a new instance
# color = %q       # Panel color for a new instance (hex or palette name)
# user = ""               # Name in roll notifications (default: login name)
# instance = %q     # Widget instance whose state is used
# max-dice = %d          # Refuse to roll more dice than this (0 = no limit)
# log-level = %q      # debug, info, warn, error

[history]
# last = 0                # Limit to last N rolls (0 = all)
# window = %d             # Moving average and fairness window
`,
		dice.DefaultSpec().Raw,
		widget.DefaultColor,
		defaultInstance,
		defaultMaxDice,
		defaultLogLevel,
		defaultWindow,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
