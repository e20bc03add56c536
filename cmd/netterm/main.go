package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carlosrabelo/netterm/application/services"
	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/domain/ports"
	"github.com/carlosrabelo/netterm/infrastructure/config"
	"github.com/carlosrabelo/netterm/infrastructure/logging"
	"github.com/carlosrabelo/netterm/platform"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

const defaultConfig = "config.yaml"

// newService builds the session service for a run; tests replace it
var newService = func(logger ports.Logger) *services.SessionService {
	return services.NewSessionService(services.WithLogger(logger))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand
type app struct {
	v   *viper.Viper
	out io.Writer
	err io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("NETTERM")
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "netterm",
		Short: "Drive network device CLIs over SSH or Telnet",
		Long: `netterm connects to routers, switches and firewalls, moves them to the
right CLI mode and runs commands or configuration sets.

Devices are described in a YAML inventory searched in ./, the user
config directory and /etc/netterm unless --config is given.`,
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			a.err = cmd.ErrOrStderr()
			if v := a.v.GetInt("verbose"); v < 0 || v > 3 {
				return errors.New("--verbose must be 0, 1, 2, or 3")
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", defaultConfig, "YAML inventory file")
	flags.IntP("verbose", "v", 0, "Verbosity level: 0=none, 1=debug logs, 2=raw device output, 3=debug+raw output")
	flags.Duration("timeout", 0, "Override the per-device timeout")
	for _, name := range []string{"config", "verbose", "timeout"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(a.execCmd(), a.configureCmd(), a.detectCmd(), a.platformsCmd())
	return root
}

func (a *app) execCmd() *cobra.Command {
	var (
		target  string
		all     bool
		pattern string
		mode    string
	)
	cmd := &cobra.Command{
		Use:   "exec <command>",
		Short: "Run a show command on one device or the whole inventory",
		Example: `  netterm exec --target 192.0.2.1 "show version"
  netterm exec --all "show clock"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []ports.CommandOption
			if pattern != "" {
				opts = append(opts, ports.WithPattern(pattern))
			}
			if mode != "" {
				opts = append(opts, ports.InMode(mode))
			}
			run := func(ctx context.Context, s ports.Session) (string, error) {
				return s.SendCommand(ctx, args[0], opts...)
			}
			return a.run(cmd.Context(), target, all, run)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "Device host (must match a host in YAML)")
	cmd.Flags().BoolVar(&all, "all", false, "Run on every device of the inventory")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Regular expression that also ends the output, alongside the prompt")
	cmd.Flags().StringVar(&mode, "mode", "", "CLI mode to run the command in")
	return cmd
}

func (a *app) configureCmd() *cobra.Command {
	var (
		target   string
		all      bool
		file     string
		noCommit bool
		comment  string
		stay     bool
	)
	cmd := &cobra.Command{
		Use:   "configure [command...]",
		Short: "Apply a configuration set and commit it",
		Example: `  netterm configure --target 192.0.2.1 "interface Gi0/1" "description uplink"
  netterm configure --target 192.0.2.2 --file changes.txt --comment "ticket 42"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			commands := args
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				commands = append(commands, splitLines(string(data))...)
			}
			if len(commands) == 0 {
				return errors.New("no configuration commands given")
			}

			var opts []ports.ConfigOption
			if noCommit {
				opts = append(opts, ports.WithoutCommit())
			}
			if comment != "" {
				opts = append(opts, ports.WithCommitComment(comment))
			}
			if stay {
				opts = append(opts, ports.KeepConfigMode())
			}
			run := func(ctx context.Context, s ports.Session) (string, error) {
				return s.SendConfigSet(ctx, commands, opts...)
			}
			return a.run(cmd.Context(), target, all, run)
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "Device host (must match a host in YAML)")
	cmd.Flags().BoolVar(&all, "all", false, "Configure every device of the inventory")
	cmd.Flags().StringVarP(&file, "file", "f", "", "File with one configuration command per line")
	cmd.Flags().BoolVar(&noCommit, "no-commit", false, "Leave the changes uncommitted")
	cmd.Flags().StringVar(&comment, "comment", "", "Commit comment on platforms that support it")
	cmd.Flags().BoolVar(&stay, "stay", false, "Stay in configuration mode after the set")
	return cmd
}

func (a *app) detectCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect the device type of a device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.load()
			if err != nil {
				return err
			}
			dev, err := a.device(cfg, target)
			if err != nil {
				return err
			}
			dev.DeviceType = platform.AutoName
			deviceType, err := newService(logger).ResolveDeviceType(cmd.Context(), dev)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s: %s\n", dev.Host, deviceType)
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "Device host (must match a host in YAML)")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func (a *app) platformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the supported device types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range platform.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// run executes fn on the target device, or on all of them, and prints the output
func (a *app) run(ctx context.Context, target string, all bool, fn func(context.Context, ports.Session) (string, error)) error {
	if (target == "") == !all {
		return errors.New("exactly one of --target or --all is required")
	}
	cfg, logger, err := a.load()
	if err != nil {
		return err
	}

	devices := cfg.Devices
	if !all {
		dev, err := a.device(cfg, target)
		if err != nil {
			return err
		}
		devices = []entities.SessionConfig{dev}
	}

	results := newService(logger).RunAll(ctx, devices, fn)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(a.err, "Error on %s: %v\n", r.Host, r.Err)
			continue
		}
		if all {
			fmt.Fprintf(a.out, "=== %s ===\n", r.Host)
		}
		fmt.Fprintln(a.out, r.Output)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d devices failed", failed, len(results))
	}
	return nil
}

func (a *app) load() (*config.Config, ports.Logger, error) {
	verbosity := a.v.GetInt("verbose")
	level := slog.LevelWarn
	if verbosity > 0 {
		level = slog.LevelDebug
	}
	logger := logging.New(a.err, logging.Options{Level: level})

	path, err := resolveConfigPath(a.v.GetString("config"))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configuration file found", "path", path)

	cfg, err := config.Load(path, verbosity, logger)
	if err != nil {
		return nil, nil, err
	}
	if timeout := a.v.GetDuration("timeout"); timeout > 0 {
		for i := range cfg.Devices {
			cfg.Devices[i].Timeout = timeout
		}
	}
	return cfg, logger, nil
}

func (a *app) device(cfg *config.Config, target string) (entities.SessionConfig, error) {
	dev, ok := cfg.Device(target)
	if !ok {
		return entities.SessionConfig{}, fmt.Errorf("target %s not registered in the YAML configuration", target)
	}
	if timeout := a.v.GetDuration("timeout"); timeout > 0 {
		dev.Timeout = timeout
	}
	return dev, nil
}

// resolveConfigPath returns path when it was overridden, otherwise the
// first config.yaml found in the local, user and system locations.
func resolveConfigPath(path string) (string, error) {
	if path != defaultConfig {
		return path, nil
	}
	for _, candidate := range configCandidates() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if runtime.GOOS == "windows" {
		return "", errors.New("no config.yaml file found in ./, %APPDATA%\\netterm\\, or %ProgramData%\\netterm\\")
	}
	return "", errors.New("no config.yaml file found in ./, ~/.config/netterm/, or /etc/netterm/")
}

func configCandidates() []string {
	paths := []string{filepath.Join(".", defaultConfig)}
	switch runtime.GOOS {
	case "windows":
		if dir := os.Getenv("APPDATA"); dir != "" {
			paths = append(paths, filepath.Join(dir, "netterm", defaultConfig))
		}
		if dir := os.Getenv("ProgramData"); dir != "" {
			paths = append(paths, filepath.Join(dir, "netterm", defaultConfig))
		}
	default:
		if dir, err := os.UserConfigDir(); err == nil {
			paths = append(paths, filepath.Join(dir, "netterm", defaultConfig))
		}
		paths = append(paths, "/etc/netterm/"+defaultConfig)
	}
	return paths
}

// splitLines drops blank lines and lines starting with #
func splitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return out
}

