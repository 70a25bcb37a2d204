// Command tsprobe measures and inspects MPEG transport stream files.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zsiec/tsprobe/internal/mpegts"
)

var version = "dev"

func init() {
	cobra.MousetrapHelpText = ""
}

func main() {
	a := newApp(os.Stderr)
	slog.SetDefault(a.logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		a.logger.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	if err := a.rootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		a.logger.Error("tsprobe failed", "error", err)
		os.Exit(1)
	}
}

// app carries state shared by all subcommands.
type app struct {
	debug  bool
	level  *slog.LevelVar
	logger *slog.Logger
}

// newApp builds the single logger used by every command. The DEBUG
// environment variable or --debug lowers its level.
func newApp(stderr io.Writer) *app {
	level := new(slog.LevelVar)
	if os.Getenv("DEBUG") != "" {
		level.Set(slog.LevelDebug)
	}
	return &app{
		level:  level,
		logger: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})),
	}
}

func (a *app) rootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "tsprobe",
		Short:         "Measure and inspect MPEG transport streams",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.debug {
				a.level.Set(slog.LevelDebug)
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		a.durationCmd(),
		a.inspectCmd(),
		a.summaryCmd(),
		a.shiftCmd(),
	)
	return root
}

// selectorFlags are the packet selection flags shared by duration and shift.
type selectorFlags struct {
	format string
	pid    string
}

func (f *selectorFlags) register(cmd *cobra.Command, defaultFormat string) {
	cmd.Flags().StringVarP(&f.format, "format", "f", defaultFormat, "stream class to select: video, audio or other")
	cmd.Flags().StringVarP(&f.pid, "pid", "p", "", "select a single PID instead of a stream class (decimal or 0x hex)")
	cmd.MarkFlagsMutuallyExclusive("format", "pid")
}

// selector returns the PID selector when --pid is set, otherwise the class
// selector. It returns nil when neither flag selects anything.
func (f *selectorFlags) selector() (mpegts.Selector, error) {
	if f.pid != "" {
		pid, err := parsePID(f.pid)
		if err != nil {
			return nil, err
		}
		return mpegts.PIDSelector(pid), nil
	}
	if f.format == "" {
		return nil, nil
	}
	class, ok := mpegts.ParseStreamClass(f.format)
	if !ok {
		return nil, fmt.Errorf("unknown format %q", f.format)
	}
	return mpegts.ClassSelector(class), nil
}

func parsePID(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil || v > mpegts.MaxPID {
		return 0, fmt.Errorf("invalid PID %q", s)
	}
	return uint16(v), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (a *app) open(path string) (*mpegts.Stream, error) {
	return mpegts.Open(path, mpegts.StreamOptLogger(a.logger))
}
