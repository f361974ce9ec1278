package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pitchdial/config"
	"pitchdial/dial"
	"pitchdial/display"
	"pitchdial/doctor"
	"pitchdial/keyboard"
	"pitchdial/log"
	"pitchdial/shutdown"
)

var version = "dev"

var errDoctorFailed = errors.New("doctor: some checks failed")

var (
	logPathFlag string
	configFlag  string
	inputFlag   string
	portFlag    string
	baudFlag    int

	trialTarget    float64
	trialItem      int
	trialPositions []string
	trialStart     float64
	trialStep      float64
	trialStimulus  bool
	trialRetention time.Duration
	trialFeedback  bool

	calibrateDuration time.Duration
)

func run(args []string) int {
	defer log.Close()

	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		if errors.Is(err, dial.ErrQuit) {
			return 2
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "pitchdial",
		Short:             "Pitch reproduction response dial",
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logPathFlag, "logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	pf.StringVar(&configFlag, "config", "", "config file (default: $PITCHDIAL_CONFIG or $XDG_CONFIG_HOME/pitchdial/config.toml)")

	rootCmd.AddCommand(newTrialCmd())
	rootCmd.AddCommand(newCalibrateCmd())
	rootCmd.AddCommand(newDoctorCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newTestCmd())
	return rootCmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logPath, err := log.ResolveDir(logPathFlag)
	if err != nil {
		return fmt.Errorf("failed to resolve log directory: %w", err)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
		return nil
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	return nil
}

func addRigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&inputFlag, "input", "auto", "key input backend: auto, evdev, hotkey or terminal")
	cmd.Flags().StringVar(&portFlag, "trigger-port", "", "serial port for sync markers (empty disables)")
	cmd.Flags().IntVar(&baudFlag, "trigger-baud", 115200, "baud rate of the trigger port")
}

func loadFileConfig() (config.FileConfig, error) {
	path := configFlag
	if path == "" {
		path = config.DefaultConfigPath()
	}
	fc, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fc, nil
}

func applyRigConfig(cmd *cobra.Command, fc config.FileConfig) {
	applyStringConfig(cmd, "input", &inputFlag, fc.Input.Backend)
	applyStringConfig(cmd, "trigger-port", &portFlag, fc.Trigger.Port)
	applyIntConfig(cmd, "trigger-baud", &baudFlag, fc.Trigger.Baud)
}

func newTrialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trial",
		Short: "Play a target tone and collect one dial response",
		Args:  cobra.NoArgs,
		RunE:  runTrialCmd,
	}
	addRigFlags(cmd)
	cmd.Flags().Float64Var(&trialTarget, "target", 450, "target frequency in Hz")
	cmd.Flags().IntVar(&trialItem, "item", 1, "1-based index of the item to reproduce")
	cmd.Flags().StringSliceVar(&trialPositions, "positions", []string{"left", "right"}, "position of each item")
	cmd.Flags().Float64Var(&trialStart, "start", 450, "dial starting frequency")
	cmd.Flags().Float64Var(&trialStep, "step", 50, "Hz per key press")
	cmd.Flags().BoolVar(&trialStimulus, "stimulus", true, "play the target before the dial")
	cmd.Flags().DurationVar(&trialRetention, "retention", time.Second, "gap between stimulus and cue")
	cmd.Flags().BoolVar(&trialFeedback, "feedback", true, "show the offset after responding")
	return cmd
}

func runTrialCmd(cmd *cobra.Command, _ []string) error {
	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyRigConfig(cmd, fc)

	cfg := dial.DefaultConfig()
	fc.ApplyDial(&cfg)
	if cmd.Flags().Changed("start") {
		cfg.StartFrequency = trialStart
	}
	if cmd.Flags().Changed("step") {
		cfg.Step = trialStep
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	monitor := display.DefaultMonitor
	fc.ApplyMonitor(&monitor)

	ctx, stop := shutdown.Context(cmd.Context())
	defer stop()

	keys := []string{cfg.Keys.Down, cfg.Keys.Up, cfg.Keys.Commit, cfg.Keys.Quit, keyboard.KeyReturn}
	r, err := openRig(rigOptions{Input: inputFlag, Keys: keys, TriggerPort: portFlag, TriggerBaud: baudFlag})
	if err != nil {
		return err
	}
	log.SessionStart(r.inputName, "trial")

	tr := dial.Trial{TargetFrequency: trialTarget, Positions: trialPositions, TargetItem: trialItem}
	d := dial.New(cfg, dial.Deps{
		Clock:    r.clock,
		Keyboard: r.kb,
		Player:   r.player,
		Surface:  r.tui,
		Monitor:  monitor,
		Emitter:  r.emitter,
		Observer: &tuiObserver{tui: r.tui},
	})

	res, err := collectResponse(ctx, d, r, tr)
	r.Close()
	if err != nil {
		if errors.Is(err, dial.ErrQuit) {
			log.SessionEnd(0)
			fmt.Fprintln(os.Stderr, "Aborted.")
		}
		return err
	}
	log.SessionEnd(1)
	return printResult(os.Stdout, res)
}

func collectResponse(ctx context.Context, d *dial.Dial, r *rig, tr dial.Trial) (dial.Result, error) {
	if trialStimulus {
		if err := d.PlayStimulus(tr.TargetFrequency, tr); err != nil {
			return dial.Result{}, err
		}
		r.clock.Sleep(trialRetention)
		if err := d.ShowCue(strconv.Itoa(tr.TargetItem)); err != nil {
			return dial.Result{}, err
		}
		r.clock.Sleep(trialRetention)
	}

	res, err := d.Run(ctx, tr)
	if err != nil {
		return dial.Result{}, err
	}

	if trialFeedback {
		if err := d.ShowFeedback(tr.TargetFrequency, res); err != nil {
			return res, err
		}
		cfg := d.Config()
		if _, err := dial.WaitForKey(ctx, r.kb, cfg.Keys.Commit, keyboard.KeyReturn); err != nil {
			log.Warnf("feedback dismissed: %v", err)
		}
	}
	return res, nil
}

func printResult(w io.Writer, res dial.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Free sweep: hold z to lower and m to raise the tone",
		Args:  cobra.NoArgs,
		RunE:  runCalibrateCmd,
	}
	addRigFlags(cmd)
	cmd.Flags().DurationVar(&calibrateDuration, "duration", 10*time.Second, "sweep length")
	return cmd
}

func runCalibrateCmd(cmd *cobra.Command, _ []string) error {
	fc, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyRigConfig(cmd, fc)

	cfg := dial.DefaultSweepConfig()
	fc.ApplySweep(&cfg)
	if cmd.Flags().Changed("duration") {
		cfg.Duration = calibrateDuration
	}
	if err := config.ValidateSweep(cfg); err != nil {
		return err
	}

	ctx, stop := shutdown.Context(cmd.Context())
	defer stop()

	r, err := openRig(rigOptions{Input: inputFlag, Keys: []string{cfg.Lower, cfg.Raise, cfg.Quit}, TriggerPort: portFlag, TriggerBaud: baudFlag})
	if err != nil {
		return err
	}
	log.SessionStart(r.inputName, "calibrate")

	r.tui.DrawFixation(0, display.Grey)
	r.tui.ShowText(fmt.Sprintf("hold %s to lower, %s to raise", cfg.Lower, cfg.Raise), 1)
	if err := r.tui.Flip(); err != nil {
		log.Warnf("calibrate frame: %v", err)
	}
	freq, err := dial.Sweep(ctx, r.clock, r.kb, r.player, cfg, &tuiObserver{tui: r.tui, showFrequency: true})
	r.Close()
	log.SessionEnd(0)
	if err != nil {
		return err
	}
	fmt.Printf("Final frequency: %.0f Hz\n", freq)
	return nil
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run interactive rig diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fc, err := loadFileConfig()
			if err != nil {
				return err
			}
			applyRigConfig(cmd, fc)
			if code := doctor.Run(doctor.Options{TriggerPort: portFlag, TriggerBaud: baudFlag}); code != 0 {
				return errDoctorFailed
			}
			return nil
		},
	}
	addRigFlags(cmd)
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write a commented config file if none exists and print its path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := configFlag
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create config directory: %w", err)
			}
			if _, err := os.Stat(path); err != nil {
				if !os.IsNotExist(err) {
					return fmt.Errorf("failed to stat config: %w", err)
				}
				if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
					return fmt.Errorf("failed to write config: %w", err)
				}
			}
			fmt.Println(path)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("pitchdial %s\n", version)
		},
	}
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
